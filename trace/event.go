package trace

import (
	"github.com/tracelab/viper/hooking"
	"github.com/tracelab/viper/summarize"
)

// An Event is the typed record of one occurrence, independent of the live
// frame it was captured from. The kind is set once at classification and
// never changes.
type Event struct {
	Kind  Kind
	Frame FrameSnapshot

	// Arg is the summarized kind-dependent payload: the returned value for
	// return events, the propagating error for exception events, the
	// callee for native-call events, and "nil" otherwise.
	Arg string
}

// Classify converts a raw occurrence into an Event. The frame is
// snapshotted once, eagerly, and the payload is summarized rather than
// retained. Kind names outside the recognized set fail with
// ErrUnsupportedEventKind.
func Classify(
	f hooking.Frame,
	kindName string,
	arg any,
	s summarize.Summarizer,
) (Event, error) {
	kind, err := ParseKind(kindName)
	if err != nil {
		return Event{}, err
	}

	var frame FrameSnapshot
	if kind.callStyle() {
		frame = SnapshotWithArgs(f, s)
	} else {
		frame = Snapshot(f)
	}

	return Event{
		Kind:  kind,
		Frame: frame,
		Arg:   s.Summarize(arg),
	}, nil
}
