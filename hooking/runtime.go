package hooking

import "sync"

// Names of the event kinds a runtime can emit. These are the raw strings
// handed to the installed hook; the tracing layer is responsible for
// rejecting anything outside this set.
const (
	EventCall       = "call"
	EventLine       = "line"
	EventReturn     = "return"
	EventException  = "exception"
	EventCCall      = "c_call"
	EventCReturn    = "c_return"
	EventCException = "c_exception"
)

// A TraceFunc receives one occurrence: the frame it happened in, the event
// kind name, and the kind-dependent payload.
type TraceFunc func(frame Frame, kind string, arg any)

// A Runtime owns one trace-hook slot. Only one hook can be installed at a
// time; installing a new hook supersedes the previous one (last writer
// wins). Composed or nested tracers on one runtime are not supported.
type Runtime struct {
	mu     sync.Mutex
	active *Hook
}

// Default is the process-wide runtime. Probes in instrumented code normally
// emit through this one.
var Default = NewRuntime()

// NewRuntime creates a Runtime with an empty hook slot.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// Install binds fn to the hook slot and returns a handle for it. Any
// previously installed hook is superseded and its handle becomes inert.
func (r *Runtime) Install(fn TraceFunc) *Hook {
	if fn == nil {
		panic("a trace function must not be nil; use Hook.Uninstall to clear")
	}

	h := &Hook{rt: r, fn: fn}

	r.mu.Lock()
	r.active = h
	r.mu.Unlock()

	return h
}

// Active reports whether a hook is currently installed.
func (r *Runtime) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active != nil
}

// Emit delivers one occurrence to the installed hook, if any. The hook runs
// synchronously on the calling goroutine.
func (r *Runtime) Emit(frame Frame, kind string, arg any) {
	r.mu.Lock()
	h := r.active
	r.mu.Unlock()

	if h == nil {
		return
	}

	h.fn(frame, kind, arg)
}

// A Hook is the handle returned by Install. It must be held to uninstall
// the hook it refers to.
type Hook struct {
	rt *Runtime
	fn TraceFunc
}

// Uninstall clears the hook slot if this hook is still the installed one.
// It is idempotent and a no-op for superseded handles.
func (h *Hook) Uninstall() {
	h.rt.mu.Lock()
	if h.rt.active == h {
		h.rt.active = nil
	}
	h.rt.mu.Unlock()
}

// Active reports whether this handle still refers to the installed hook.
func (h *Hook) Active() bool {
	h.rt.mu.Lock()
	defer h.rt.mu.Unlock()

	return h.rt.active == h
}
