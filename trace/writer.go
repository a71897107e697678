package trace

import (
	"io"
	"os"
	"sync"

	"github.com/tracelab/viper/record"
)

// A Writer consumes one transformed record per kept occurrence.
type Writer interface {
	Write(rec *record.Record) error
}

// LineWriter serializes each record as one JSON line on a diagnostic
// stream. It is the default writer of an Engine.
type LineWriter struct {
	mu    sync.Mutex
	w     io.Writer
	codec *record.JSONCodec
}

// NewLineWriter creates a LineWriter on w. A nil writer means stderr.
func NewLineWriter(w io.Writer) *LineWriter {
	if w == nil {
		w = os.Stderr
	}

	return &LineWriter{w: w, codec: record.NewJSONCodec()}
}

// Write emits rec as a newline-terminated JSON object.
func (t *LineWriter) Write(rec *record.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.codec.Encode(rec, t.w); err != nil {
		return err
	}

	_, err := t.w.Write([]byte("\n"))

	return err
}
