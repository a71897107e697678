package trace

import (
	"time"

	"github.com/tracelab/viper/record"
)

// TimeTeller can be used to get the current wall-clock time.
type TimeTeller interface {
	CurrentTime() time.Time
}

type wallClock struct{}

func (wallClock) CurrentTime() time.Time { return time.Now() }

// WallClock is the TimeTeller backed by the system clock.
var WallClock TimeTeller = wallClock{}

// A FrameTransformer shapes one FrameSnapshot into an output record. It
// must be a pure function of its input.
type FrameTransformer interface {
	TransformFrame(f FrameSnapshot) (*record.Record, error)
}

// An EventTransformer shapes one Event into the top-level output record
// handed to the writer. It must be a pure function of its input.
type EventTransformer interface {
	TransformEvent(e Event) (*record.Record, error)
}

// ParentFrameTransformer renders the parent-frame shape: identity fields
// plus capture timestamps.
type ParentFrameTransformer struct {
	timeTeller TimeTeller
}

// NewParentFrameTransformer creates a ParentFrameTransformer.
func NewParentFrameTransformer(timeTeller TimeTeller) *ParentFrameTransformer {
	return &ParentFrameTransformer{timeTeller: timeTeller}
}

// TransformFrame renders f with the parent-frame shape.
func (t *ParentFrameTransformer) TransformFrame(
	f FrameSnapshot,
) (*record.Record, error) {
	now := t.timeTeller.CurrentTime()

	rec := record.New().
		Set("type", "parent-frame").
		Set("fn_name", f.FnName).
		Set("fn_line", f.FnLine).
		Set("fn_filename", f.FnFilename).
		Set("time", now.Format(time.RFC3339Nano)).
		Set("epoch", epochSeconds(now))

	return rec, nil
}

// ChildFrameTransformer renders the child-frame shape: identity fields,
// the fully realized parent chain, the argument mapping when present, and
// capture timestamps.
type ChildFrameTransformer struct {
	timeTeller TimeTeller
	walker     Walker
	parent     FrameTransformer
}

// NewChildFrameTransformer creates a ChildFrameTransformer with the
// default parent-chain walker and parent-frame shape.
func NewChildFrameTransformer(timeTeller TimeTeller) *ChildFrameTransformer {
	return &ChildFrameTransformer{
		timeTeller: timeTeller,
		walker:     DefaultWalker,
		parent:     NewParentFrameTransformer(timeTeller),
	}
}

// WithWalker replaces the parent-chain walker.
func (t *ChildFrameTransformer) WithWalker(w Walker) *ChildFrameTransformer {
	t.walker = w
	return t
}

// WithParentTransformer replaces the transformer applied to each ancestor.
func (t *ChildFrameTransformer) WithParentTransformer(
	ft FrameTransformer,
) *ChildFrameTransformer {
	t.parent = ft
	return t
}

// TransformFrame renders f with the child-frame shape. The chain walk
// recurses as deep as the captured stack; there is no imposed limit beyond
// the capture depth of the instrumentation surface.
func (t *ChildFrameTransformer) TransformFrame(
	f FrameSnapshot,
) (*record.Record, error) {
	parents := []any{}

	if f.origin != nil {
		for _, p := range t.walker.WalkParents(f.origin) {
			rec, err := t.parent.TransformFrame(p)
			if err != nil {
				return nil, err
			}

			parents = append(parents, rec)
		}
	}

	now := t.timeTeller.CurrentTime()

	rec := record.New().
		Set("type", "child-frame").
		Set("parents", parents).
		Set("fn_name", f.FnName).
		Set("fn_line", f.FnLine)

	if f.Args != nil {
		rec.Set("args", []any{f.ArgsRecord()})
	}

	rec.Set("fn_filename", f.FnFilename).
		Set("time", now.Format(time.RFC3339Nano)).
		Set("epoch", epochSeconds(now))

	return rec, nil
}

// StandardEventTransformer renders the top-level event shape: the kind
// tag, the transformed frame, and the summarized payload.
type StandardEventTransformer struct {
	frame FrameTransformer
}

// NewStandardEventTransformer creates a StandardEventTransformer that
// shapes frames with ft.
func NewStandardEventTransformer(ft FrameTransformer) *StandardEventTransformer {
	return &StandardEventTransformer{frame: ft}
}

// TransformEvent renders e as {event, frame, arg}.
func (t *StandardEventTransformer) TransformEvent(
	e Event,
) (*record.Record, error) {
	frameRec, err := t.frame.TransformFrame(e.Frame)
	if err != nil {
		return nil, err
	}

	rec := record.New().
		Set("event", e.Kind.String()).
		Set("frame", frameRec).
		Set("arg", e.Arg)

	return rec, nil
}

// epochSeconds avoids converting the full nanosecond count to float64,
// which would lose sub-microsecond precision for present-day timestamps.
func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}
