package trace

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/tracelab/viper/record"
)

// SQLiteTraceWriter stores flattened trace records in a SQLite database.
type SQLiteTraceWriter struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	toWrite   []*record.Record
	batchSize int
}

// NewSQLiteTraceWriter creates a new SQLiteTraceWriter.
func NewSQLiteTraceWriter(path string) *SQLiteTraceWriter {
	w := &SQLiteTraceWriter{
		dbName:    path,
		batchSize: 1000,
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// Init establishes the database connection and prepares the schema. A
// writer with no path picks a generated name.
func (t *SQLiteTraceWriter) Init() {
	if t.dbName == "" {
		t.dbName = "viper_trace_" + xid.New().String()
	}

	filename := t.dbName + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}
	t.DB = db

	t.createTable()
	t.prepareStatement()
}

// Write buffers one record for the database.
func (t *SQLiteTraceWriter) Write(rec *record.Record) error {
	t.toWrite = append(t.toWrite, rec)
	if len(t.toWrite) >= t.batchSize {
		t.Flush()
	}

	return nil
}

// Flush writes all the buffered records to the database.
func (t *SQLiteTraceWriter) Flush() {
	if len(t.toWrite) == 0 {
		return
	}

	t.mustExecute("BEGIN TRANSACTION")
	defer t.mustExecute("COMMIT TRANSACTION")

	for _, rec := range t.toWrite {
		_, err := t.statement.Exec(
			xid.New().String(),
			rawFieldOf(rec, "event"),
			rawFrameFieldOf(rec, "fn_name"),
			rawFrameFieldOf(rec, "fn_line"),
			rawFrameFieldOf(rec, "fn_filename"),
			rawFieldOf(rec, "arg"),
			rawFrameFieldOf(rec, "time"),
			rawFrameFieldOf(rec, "epoch"),
		)
		if err != nil {
			panic(err)
		}
	}

	t.toWrite = nil
}

func (t *SQLiteTraceWriter) createTable() {
	t.mustExecute(`
		CREATE TABLE trace_records (
			id TEXT,
			event TEXT,
			fn_name TEXT,
			fn_line INTEGER,
			fn_filename TEXT,
			arg TEXT,
			time TEXT,
			epoch REAL
		)
	`)
}

func (t *SQLiteTraceWriter) prepareStatement() {
	stmt, err := t.Prepare(`
		INSERT INTO trace_records (
			id, event, fn_name, fn_line, fn_filename, arg, time, epoch
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		panic(err)
	}

	t.statement = stmt
}

func rawFieldOf(rec *record.Record, key string) any {
	v, _ := rec.Get(key)
	return v
}

func rawFrameFieldOf(rec *record.Record, key string) any {
	v, ok := rec.Get("frame")
	if !ok {
		return nil
	}

	frame, ok := v.(*record.Record)
	if !ok {
		return nil
	}

	return rawFieldOf(frame, key)
}

func (t *SQLiteTraceWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		panic(err)
	}

	return res
}
