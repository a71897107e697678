package hooking

// Call reports that the instrumented function has been entered. It is meant
// to be placed at the top of a function body, with the function's arguments
// in declaration order.
func Call(rt *Runtime, args ...Arg) {
	if !rt.Active() {
		return
	}

	rt.Emit(captureStack(probeSkipDepth, args), EventCall, nil)
}

// Line reports that execution reached the probe's source line.
func Line(rt *Runtime) {
	if !rt.Active() {
		return
	}

	rt.Emit(captureStack(probeSkipDepth, nil), EventLine, nil)
}

// Return reports that the instrumented function is about to return value.
func Return(rt *Runtime, value any) {
	if !rt.Active() {
		return
	}

	rt.Emit(captureStack(probeSkipDepth, nil), EventReturn, value)
}

// Exception reports that err is propagating through the instrumented
// function.
func Exception(rt *Runtime, err any) {
	if !rt.Active() {
		return
	}

	rt.Emit(captureStack(probeSkipDepth, nil), EventException, err)
}

// CCall reports that the instrumented function is about to call into
// native code identified by callee.
func CCall(rt *Runtime, callee string) {
	if !rt.Active() {
		return
	}

	rt.Emit(captureStack(probeSkipDepth, nil), EventCCall, callee)
}

// CReturn reports that a native call identified by callee returned.
func CReturn(rt *Runtime, callee string) {
	if !rt.Active() {
		return
	}

	rt.Emit(captureStack(probeSkipDepth, nil), EventCReturn, callee)
}

// CException reports that a native call failed with err.
func CException(rt *Runtime, err any) {
	if !rt.Active() {
		return
	}

	rt.Emit(captureStack(probeSkipDepth, nil), EventCException, err)
}
