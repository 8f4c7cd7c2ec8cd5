package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/oswinhale/steading/internal/metrics"
)

// JSONLWriter appends one zstd-compressed JSON line per snapshot. The
// format replays well: decompress, then read line by line.
type JSONLWriter struct {
	file *os.File
	zw   *zstd.Encoder
	enc  *json.Encoder
}

// NewJSONLWriter creates (truncating) the output file.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create snapshot file: %w", err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &JSONLWriter{file: f, zw: zw, enc: json.NewEncoder(zw)}, nil
}

// WriteSnapshot appends one line.
func (w *JSONLWriter) WriteSnapshot(s metrics.Snapshot) error {
	if err := w.enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot day %d: %w", s.Day, err)
	}
	return nil
}

// Close flushes the compressor and the file.
func (w *JSONLWriter) Close() error {
	if err := w.zw.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close zstd stream: %w", err)
	}
	return w.file.Close()
}

// ReadSnapshots decodes a stream written by JSONLWriter, mostly for tests
// and offline analysis.
func ReadSnapshots(r io.Reader) ([]metrics.Snapshot, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()

	var out []metrics.Snapshot
	dec := json.NewDecoder(zr)
	for {
		var s metrics.Snapshot
		if err := dec.Decode(&s); err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, s)
	}
}
