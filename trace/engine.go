package trace

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/tracelab/viper/hooking"
	"github.com/tracelab/viper/summarize"
)

// State is the lifecycle state of an Engine.
type State int

// Engine states.
const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		panic(fmt.Sprintf("invalid engine state %d", int(s)))
	}
}

// FailurePolicy decides what the engine does when a pipeline stage fails.
type FailurePolicy int

const (
	// PropagateFailures uninstalls the hook and panics with the
	// PipelineError. Silently dropping events could mask exactly the
	// failures a tracer exists to surface, so this is the default.
	PropagateFailures FailurePolicy = iota

	// LogAndContinue writes a diagnostic to the engine's logger and keeps
	// tracing.
	LogAndContinue
)

// A PipelineError reports the failure of one pipeline stage.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("trace pipeline %s stage: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// An Engine runs the classify, filter, transform, write pipeline for every
// occurrence its runtime emits. One engine serves one execution context;
// installing a second engine on the same runtime supersedes the first.
//
// The whole pipeline executes inline within the hook invocation. Tracing
// overhead is paid synchronously and grows with stack depth per
// occurrence.
type Engine struct {
	rt          *hooking.Runtime
	filter      EventFilter
	transformer EventTransformer
	writer      Writer
	summarizer  summarize.Summarizer
	policy      FailurePolicy
	logger      *log.Logger

	mu    sync.Mutex
	state State
	hook  *hooking.Hook
	busy  bool
	seen  uint64
	kept  uint64
}

// NewEngine creates an Engine bound to rt. A nil runtime means the
// process-wide default. The engine starts with the standard child-frame
// transformer, the stderr line writer, and the propagate failure policy; a
// filter must be supplied before Start.
func NewEngine(rt *hooking.Runtime) *Engine {
	if rt == nil {
		rt = hooking.Default
	}

	return &Engine{
		rt:          rt,
		transformer: NewStandardEventTransformer(NewChildFrameTransformer(WallClock)),
		writer:      NewLineWriter(nil),
		summarizer:  summarize.Default,
		policy:      PropagateFailures,
		logger:      log.New(os.Stderr, "viper: ", log.LstdFlags),
	}
}

// WithFilter sets the event filter. There is no sensible universal
// default, so every engine needs one.
func (e *Engine) WithFilter(f EventFilter) *Engine {
	e.filter = f
	return e
}

// WithTransformer replaces the event transformer.
func (e *Engine) WithTransformer(t EventTransformer) *Engine {
	e.transformer = t
	return e
}

// WithWriter replaces the writer.
func (e *Engine) WithWriter(w Writer) *Engine {
	e.writer = w
	return e
}

// WithSummarizer replaces the value summarizer used at classification.
func (e *Engine) WithSummarizer(s summarize.Summarizer) *Engine {
	e.summarizer = s
	return e
}

// WithFailurePolicy sets the pipeline failure policy.
func (e *Engine) WithFailurePolicy(p FailurePolicy) *Engine {
	e.policy = p
	return e
}

// WithLogger replaces the diagnostic logger.
func (e *Engine) WithLogger(l *log.Logger) *Engine {
	e.logger = l
	return e
}

// Start installs the engine's callback in the runtime's hook slot and
// returns the handle that stops this session. Starting a running engine
// rebinds the hook; the previous handle becomes inert.
func (e *Engine) Start() *Handle {
	if e.filter == nil {
		panic("an event filter must be provided before starting the engine")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.hook = e.rt.Install(e.dispatch)
	e.state = Running

	return &Handle{engine: e, hook: e.hook}
}

// State returns the engine's current state. An engine superseded by
// another install on the same runtime reports Stopped.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Running && (e.hook == nil || !e.hook.Active()) {
		return Stopped
	}

	return e.state
}

// EventsSeen returns the number of occurrences dispatched to the engine.
func (e *Engine) EventsSeen() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.seen
}

// RecordsKept returns the number of occurrences that passed the filter and
// were written.
func (e *Engine) RecordsKept() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.kept
}

// dispatch is the installed TraceFunc. The busy flag makes it re-entrancy
// safe: occurrences generated by the pipeline's own processing are dropped
// instead of recursing.
func (e *Engine) dispatch(frame hooking.Frame, kindName string, arg any) {
	e.mu.Lock()
	if e.busy || e.state != Running {
		e.mu.Unlock()
		return
	}
	e.busy = true
	e.seen++
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.busy = false
		e.mu.Unlock()

		// User-supplied stages may panic. Disable tracing before letting
		// the panic reach the host, so the host is never left with a
		// recursing hook.
		if r := recover(); r != nil {
			e.teardown()
			panic(r)
		}
	}()

	evt, err := Classify(frame, kindName, arg, e.summarizer)
	if err != nil {
		// An unrecognized kind means the runtime surface is incompatible.
		// This is fatal regardless of the failure policy; the deferred
		// recover uninstalls the hook before the panic reaches the host.
		panic(err)
	}

	if !e.filter(evt) {
		return
	}

	rec, err := e.transformer.TransformEvent(evt)
	if err != nil {
		e.fail(&PipelineError{Stage: "transform", Err: err})
		return
	}

	if err := e.writer.Write(rec); err != nil {
		e.fail(&PipelineError{Stage: "write", Err: err})
		return
	}

	e.mu.Lock()
	e.kept++
	e.mu.Unlock()
}

func (e *Engine) fail(perr *PipelineError) {
	if e.policy == LogAndContinue {
		e.logger.Printf("%v", perr)
		return
	}

	panic(perr)
}

func (e *Engine) teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.hook != nil {
		e.hook.Uninstall()
		e.hook = nil
	}

	e.state = Stopped
}

// IsPipelineError reports whether err is a PipelineError.
func IsPipelineError(err error) bool {
	var perr *PipelineError
	return errors.As(err, &perr)
}

// A Handle represents one started tracing session. It must be held to stop
// the session it refers to.
type Handle struct {
	engine *Engine
	hook   *hooking.Hook
}

// Stop uninstalls the session's hook. It is idempotent, takes effect from
// the next occurrence onward, and is a no-op for handles superseded by a
// later Start.
func (h *Handle) Stop() {
	h.hook.Uninstall()

	h.engine.mu.Lock()
	defer h.engine.mu.Unlock()

	if h.engine.hook == h.hook {
		h.engine.hook = nil
		h.engine.state = Stopped
	}
}
