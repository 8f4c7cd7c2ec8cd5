// Package sink delivers daily snapshots to their destinations: compressed
// JSONL files, a SQLite history database and live websocket observers.
// Sinks observe; they never feed anything back into the simulation.
package sink

import (
	"errors"

	"github.com/oswinhale/steading/internal/metrics"
)

// Sink consumes one snapshot per simulated day.
type Sink interface {
	WriteSnapshot(s metrics.Snapshot) error
	Close() error
}

// Multi fans snapshots out to several sinks, keeping going past individual
// failures and reporting them joined.
type Multi struct {
	sinks []Sink
}

// NewMulti bundles sinks. Nil entries are skipped.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// WriteSnapshot delivers to every sink.
func (m *Multi) WriteSnapshot(s metrics.Snapshot) error {
	var errs []error
	for _, sk := range m.sinks {
		if err := sk.WriteSnapshot(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m *Multi) Close() error {
	var errs []error
	for _, sk := range m.sinks {
		if err := sk.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
