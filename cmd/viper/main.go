// The viper command traces an instrumented workload and writes the kept
// occurrences to a configurable sink. It is a thin wrapper around the trace
// engine: it builds the pipeline, starts a session, runs the workload, and
// stops the session.
package main

func main() {
	Execute()
}
