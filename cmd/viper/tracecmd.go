package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/tracelab/viper/hooking"
	"github.com/tracelab/viper/monitoring"
	"github.com/tracelab/viper/record"
	"github.com/tracelab/viper/trace"
)

var (
	writerFlag  string
	outputFlag  string
	keepFlag    []string
	numFlag     int
	monitorFlag bool
	portFlag    int
	openFlag    bool
	linger      time.Duration
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Run the demo workload under the tracer.",
	Long: "`trace` builds a pipeline from the given flags, starts a trace " +
		"session, runs the demo workload, and stops the session.",
	Run: func(cmd *cobra.Command, args []string) {
		engine := trace.NewEngine(hooking.Default).
			WithFilter(buildFilter())

		ring := trace.NewRingWriter(1024)
		engine.WithWriter(buildWriter(ring))

		handle := engine.Start()

		if monitorFlag {
			if portFlag == 0 {
				if s := os.Getenv("VIPER_MONITOR_PORT"); s != "" {
					portFlag, _ = strconv.Atoi(s)
				}
			}

			monitor := monitoring.NewMonitor().WithPortNumber(portFlag)
			if openFlag {
				monitor.WithBrowser()
			}

			monitor.RegisterEngine(engine)
			monitor.RegisterRing(ring)
			monitor.RegisterSession(handle)
			monitor.StartServer()
		}

		result := demoA(hooking.Default, numFlag)

		if monitorFlag && linger > 0 {
			time.Sleep(linger)
		}

		handle.Stop()

		fmt.Printf("workload returned %d after %d kept occurrences\n",
			result, engine.RecordsKept())

		// File-backed writers flush through their exit handlers.
		atexit.Exit(0)
	},
}

func buildFilter() trace.EventFilter {
	kinds := make([]trace.Kind, 0, len(keepFlag))

	for _, name := range keepFlag {
		kind, err := trace.ParseKind(strings.TrimSpace(name))
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		kinds = append(kinds, kind)
	}

	return trace.KeepKinds(kinds...)
}

func buildWriter(ring *trace.RingWriter) trace.Writer {
	var sink trace.Writer

	switch writerFlag {
	case "line":
		sink = trace.NewLineWriter(nil)
	case "csv":
		w := trace.NewCSVTraceWriter(outputFlag)
		w.Init()
		sink = w
	case "sqlite":
		w := trace.NewSQLiteTraceWriter(outputFlag)
		w.Init()
		sink = w
	default:
		log.Fatalf("Error: unknown writer %q, "+
			"allowed values are line, csv, and sqlite", writerFlag)
	}

	if monitorFlag {
		return teeWriter{writers: []trace.Writer{sink, ring}}
	}

	return sink
}

// teeWriter duplicates each record to every underlying writer.
type teeWriter struct {
	writers []trace.Writer
}

func (t teeWriter) Write(rec *record.Record) error {
	for _, w := range t.writers {
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	return nil
}

func init() {
	traceCmd.Flags().StringVar(&writerFlag, "writer", "line",
		"record sink: line, csv, or sqlite")
	traceCmd.Flags().StringVar(&outputFlag, "output", "",
		"output path for file-backed writers; generated when empty")
	traceCmd.Flags().StringSliceVar(&keepFlag, "keep", []string{"call"},
		"event kinds to keep")
	traceCmd.Flags().IntVar(&numFlag, "num", 1,
		"argument passed to the demo workload")
	traceCmd.Flags().BoolVar(&monitorFlag, "monitor", false,
		"serve the monitoring API while tracing")
	traceCmd.Flags().IntVar(&portFlag, "port", 0,
		"monitoring port; random when 0")
	traceCmd.Flags().BoolVar(&openFlag, "open", false,
		"open the monitoring page in the default browser")
	traceCmd.Flags().DurationVar(&linger, "linger", 0,
		"keep the process alive after the workload for monitoring")

	rootCmd.AddCommand(traceCmd)
}
