package trace

import (
	"github.com/tracelab/viper/hooking"
	"github.com/tracelab/viper/record"
	"github.com/tracelab/viper/summarize"
)

// An ArgSummary is one argument of a captured frame, already summarized.
type ArgSummary struct {
	Name  string
	Value string
}

// A FrameSnapshot is the immutable capture of one activation record: its
// identity fields and, for call-style events, its argument mapping. It
// reflects the instant of capture only; the live frame may keep mutating
// afterwards.
type FrameSnapshot struct {
	FnName     string
	FnLine     int
	FnFilename string
	Args       []ArgSummary

	origin hooking.Frame
}

// Snapshot captures the identity of a frame.
func Snapshot(f hooking.Frame) FrameSnapshot {
	return FrameSnapshot{
		FnName:     f.Name(),
		FnLine:     f.Line(),
		FnFilename: f.File(),
		origin:     f,
	}
}

// SnapshotWithArgs captures the identity of a frame together with its
// declared arguments, summarized eagerly in declaration order.
func SnapshotWithArgs(f hooking.Frame, s summarize.Summarizer) FrameSnapshot {
	snap := Snapshot(f)

	names := f.ArgNames()
	snap.Args = make([]ArgSummary, 0, len(names))

	for _, name := range names {
		value, _ := f.ArgValue(name)
		snap.Args = append(snap.Args, ArgSummary{
			Name:  name,
			Value: s.Summarize(value),
		})
	}

	return snap
}

// ArgsRecord returns the argument mapping as an ordered record.
func (s FrameSnapshot) ArgsRecord() *record.Record {
	rec := record.New()
	for _, a := range s.Args {
		rec.Set(a.Name, a.Value)
	}

	return rec
}

// A Walker reconstructs the chain of caller frames above one frame,
// nearest ancestor first.
type Walker struct {
	// Skip is the number of immediate callers dropped before the first
	// ancestor is recorded. Zero means the chain starts at the immediate
	// caller.
	Skip int
}

// DefaultWalker starts the chain at the caller's caller.
var DefaultWalker = Walker{Skip: 1}

// WalkParents snapshots each ancestor of f until the base of the stack.
// A caller reference that is unavailable mid-walk truncates the chain; it
// never fails the occurrence.
func (w Walker) WalkParents(f hooking.Frame) []FrameSnapshot {
	parents := []FrameSnapshot{}

	cur := f
	for i := 0; i <= w.Skip; i++ {
		next, ok := cur.Caller()
		if !ok {
			return parents
		}

		cur = next
	}

	for {
		parents = append(parents, Snapshot(cur))

		next, ok := cur.Caller()
		if !ok {
			return parents
		}

		cur = next
	}
}
