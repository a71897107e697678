package hooking

import (
	"runtime"
	"strings"
)

const (
	// probeSkipDepth drops runtime.Callers itself, captureStack, and the
	// probe function, so that the first captured frame is the instrumented
	// function.
	probeSkipDepth = 3

	// maxStackDepth bounds the number of PCs captured per occurrence.
	// Stacks deeper than this are truncated at the far end.
	maxStackDepth = 128
)

// stackFrame is a Frame backed by an eagerly captured slice of Go stack
// frames. The slice never mutates after capture; callers share the same
// backing array at successive offsets.
type stackFrame struct {
	frames []runtime.Frame
	args   []Arg
}

func captureStack(skip int, args []Arg) *stackFrame {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip, pcs)

	frames := make([]runtime.Frame, 0, n)
	iter := runtime.CallersFrames(pcs[:n])

	for {
		f, more := iter.Next()
		frames = append(frames, f)

		if !more {
			break
		}
	}

	return &stackFrame{frames: frames, args: args}
}

func (f *stackFrame) Name() string {
	if len(f.frames) == 0 {
		return ""
	}

	return shortFuncName(f.frames[0].Function)
}

func (f *stackFrame) Line() int {
	if len(f.frames) == 0 {
		return 0
	}

	return f.frames[0].Line
}

func (f *stackFrame) File() string {
	if len(f.frames) == 0 {
		return ""
	}

	return f.frames[0].File
}

func (f *stackFrame) ArgNames() []string {
	names := make([]string, 0, len(f.args))
	for _, a := range f.args {
		names = append(names, a.Name)
	}

	return names
}

func (f *stackFrame) ArgValue(name string) (any, bool) {
	for _, a := range f.args {
		if a.Name == name {
			return a.Value, true
		}
	}

	return nil, false
}

func (f *stackFrame) Caller() (Frame, bool) {
	if len(f.frames) < 2 {
		return nil, false
	}

	return &stackFrame{frames: f.frames[1:]}, true
}

// shortFuncName reduces a fully qualified function name, such as
// "github.com/tracelab/viper/hooking.Call" or "main.a.func1", to its last
// path element.
func shortFuncName(full string) string {
	if i := strings.LastIndexByte(full, '/'); i >= 0 {
		full = full[i+1:]
	}

	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		full = full[i+1:]
	}

	return full
}
