package sink

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/oswinhale/steading/internal/metrics"
)

func sampleSnapshot(day int) metrics.Snapshot {
	return metrics.Snapshot{
		Day:            day,
		Season:         "spring",
		Weather:        "clear",
		Population:     150,
		MeanWellbeing:  62.5,
		TotalFoodValue: 340.25,
		Trades:         4,
		Activities:     map[string]int{"fishing": 12, "rest": 3},
	}
}

func TestJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl.zst")
	w, err := NewJSONLWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	for day := 0; day < 5; day++ {
		if err := w.WriteSnapshot(sampleSnapshot(day)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := ReadSnapshots(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("read %d snapshots, want 5", len(got))
	}
	if got[3].Day != 3 || got[3].Population != 150 || got[3].Activities["fishing"] != 12 {
		t.Fatalf("snapshot 3 mangled: %+v", got[3])
	}
}

func TestSQLiteStoreHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	st, err := OpenSQLite(path, "run-1", 42, 10, 150)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	for day := 0; day < 3; day++ {
		s := sampleSnapshot(day)
		s.Deaths = day
		if err := st.WriteSnapshot(s); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := st.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("history has %d rows, want 3", len(rows))
	}
	for i, r := range rows {
		if r.Day != i {
			t.Fatalf("row %d has day %d, rows out of order", i, r.Day)
		}
	}
	if rows[2].Deaths != 2 {
		t.Fatalf("day 2 deaths = %d, want 2", rows[2].Deaths)
	}
}

func TestSQLiteDuplicateDayRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	st, err := OpenSQLite(path, "run-1", 42, 10, 150)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if err := st.WriteSnapshot(sampleSnapshot(1)); err != nil {
		t.Fatal(err)
	}
	if err := st.WriteSnapshot(sampleSnapshot(1)); err == nil {
		t.Fatal("duplicate (run, day) insert succeeded")
	}
}

type failingSink struct{ closed bool }

func (f *failingSink) WriteSnapshot(metrics.Snapshot) error { return errors.New("boom") }
func (f *failingSink) Close() error                         { f.closed = true; return nil }

type countingSink struct{ writes int }

func (c *countingSink) WriteSnapshot(metrics.Snapshot) error { c.writes++; return nil }
func (c *countingSink) Close() error                         { return nil }

func TestMultiKeepsGoingPastFailures(t *testing.T) {
	bad := &failingSink{}
	good := &countingSink{}
	m := NewMulti(bad, nil, good)

	err := m.WriteSnapshot(sampleSnapshot(0))
	if err == nil {
		t.Fatal("failure not reported")
	}
	if good.writes != 1 {
		t.Fatalf("good sink got %d writes, want 1", good.writes)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if !bad.closed {
		t.Fatal("failing sink not closed")
	}
}
