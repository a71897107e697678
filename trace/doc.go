// Package trace implements the event capture and pipeline engine.
//
// An Engine installs itself as the hook of a hooking.Runtime. Every
// occurrence the runtime emits is classified into a typed Event, offered to
// an EventFilter, shaped by an EventTransformer into an ordered record, and
// handed to a Writer, all synchronously within the hook invocation. A guard
// flag keeps the engine's own processing from re-entering the pipeline, so
// transforms and writers may themselves execute instrumented code.
package trace
