package trace

import (
	"sync"

	"github.com/tracelab/viper/record"
)

// RingWriter keeps the most recent records in memory. It is meant for live
// inspection, for example through the monitoring server.
type RingWriter struct {
	mu       sync.Mutex
	capacity int
	records  []*record.Record
	total    uint64
}

// NewRingWriter creates a RingWriter that retains up to capacity records.
func NewRingWriter(capacity int) *RingWriter {
	if capacity <= 0 {
		panic("ring capacity must be positive")
	}

	return &RingWriter{capacity: capacity}
}

// Write retains rec, evicting the oldest record when full.
func (t *RingWriter) Write(rec *record.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = append(t.records, rec)
	if len(t.records) > t.capacity {
		t.records = t.records[1:]
	}

	t.total++

	return nil
}

// Records returns the retained records, oldest first.
func (t *RingWriter) Records() []*record.Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*record.Record, len(t.records))
	copy(out, t.records)

	return out
}

// Total returns the number of records ever written.
func (t *RingWriter) Total() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}
