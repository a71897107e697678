package hooking

// An Arg is one named argument of an activation, in declaration order.
type Arg struct {
	Name  string
	Value any
}

// Frame is a handle to one function activation. Implementations must be
// immutable once handed to a hook: the information returned reflects the
// instant of capture.
type Frame interface {
	// Name returns the bare function name, without package qualifier. It
	// may be empty for synthetic frames.
	Name() string

	// Line returns the source line the activation is currently at.
	Line() int

	// File returns the source file path.
	File() string

	// ArgNames returns the declared argument names in declaration order.
	ArgNames() []string

	// ArgValue returns the value of the named argument.
	ArgValue(name string) (any, bool)

	// Caller returns the frame of the immediate caller. The second return
	// value is false at the base of the stack or when the caller reference
	// is unavailable.
	Caller() (Frame, bool)
}

// A StaticFrame is a hand-constructed Frame. It is mainly useful for tests
// and for feeding occurrences from sources other than the Go stack.
type StaticFrame struct {
	FnName   string
	FnLine   int
	FnFile   string
	FnArgs   []Arg
	FnCaller Frame
}

// Name returns the function name.
func (f *StaticFrame) Name() string { return f.FnName }

// Line returns the current line.
func (f *StaticFrame) Line() int { return f.FnLine }

// File returns the source file path.
func (f *StaticFrame) File() string { return f.FnFile }

// ArgNames returns the declared argument names in declaration order.
func (f *StaticFrame) ArgNames() []string {
	names := make([]string, 0, len(f.FnArgs))
	for _, a := range f.FnArgs {
		names = append(names, a.Name)
	}

	return names
}

// ArgValue returns the value of the named argument.
func (f *StaticFrame) ArgValue(name string) (any, bool) {
	for _, a := range f.FnArgs {
		if a.Name == name {
			return a.Value, true
		}
	}

	return nil, false
}

// Caller returns the linked caller frame, if any.
func (f *StaticFrame) Caller() (Frame, bool) {
	if f.FnCaller == nil {
		return nil, false
	}

	return f.FnCaller, true
}
