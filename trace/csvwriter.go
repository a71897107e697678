package trace

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/tracelab/viper/record"
)

// CSVTraceWriter stores flattened trace records in a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File

	records    []*record.Record
	bufferSize int
}

// NewCSVTraceWriter creates a new CSVTraceWriter.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the CSV file. A writer with no path picks a generated name.
func (t *CSVTraceWriter) Init() {
	if t.path == "" {
		t.path = "viper_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file, "Event, FnName, FnLine, FnFilename, Arg, Time, Epoch\n")

	atexit.Register(func() {
		t.Flush()
		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// Write buffers one record for the CSV file.
func (t *CSVTraceWriter) Write(rec *record.Record) error {
	t.records = append(t.records, rec)
	if len(t.records) >= t.bufferSize {
		t.Flush()
	}

	return nil
}

// Flush flushes the buffered records to the CSV file.
func (t *CSVTraceWriter) Flush() {
	for _, rec := range t.records {
		fmt.Fprintf(t.file, "%s, %s, %s, %s, %s, %s, %s\n",
			fieldOf(rec, "event"),
			frameFieldOf(rec, "fn_name"),
			frameFieldOf(rec, "fn_line"),
			frameFieldOf(rec, "fn_filename"),
			fieldOf(rec, "arg"),
			frameFieldOf(rec, "time"),
			frameFieldOf(rec, "epoch"),
		)
	}

	t.records = nil
}

func fieldOf(rec *record.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok {
		return ""
	}

	return fmt.Sprintf("%v", v)
}

func frameFieldOf(rec *record.Record, key string) string {
	v, ok := rec.Get("frame")
	if !ok {
		return ""
	}

	frame, ok := v.(*record.Record)
	if !ok {
		return ""
	}

	return fieldOf(frame, key)
}
