// Package hooking defines the instrumentation surface that traced programs
// talk to.
//
// A Runtime owns the process-global trace-hook slot. Instrumented code calls
// the probe functions (Call, Line, Return, ...) at interesting points; each
// probe captures the current Go stack as a Frame and emits one occurrence
// through the runtime to whichever hook is installed. When no hook is
// installed, probes return immediately.
package hooking
