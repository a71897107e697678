package trace

import (
	"errors"
	"fmt"

	"github.com/tracelab/viper/hooking"
)

// Kind identifies the type of a traced occurrence. The set is closed: a
// runtime that emits anything else is incompatible with this tracer.
type Kind int

// The seven recognized event kinds.
const (
	KindCall Kind = iota
	KindLine
	KindReturn
	KindException
	KindCCall
	KindCReturn
	KindCException
)

// ErrUnsupportedEventKind reports a kind name outside the recognized set.
// It is fatal: it means the runtime's instrumentation surface has changed
// underneath the tracer.
var ErrUnsupportedEventKind = errors.New("unsupported event kind")

// ParseKind maps a raw kind name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case hooking.EventCall:
		return KindCall, nil
	case hooking.EventLine:
		return KindLine, nil
	case hooking.EventReturn:
		return KindReturn, nil
	case hooking.EventException:
		return KindException, nil
	case hooking.EventCCall:
		return KindCCall, nil
	case hooking.EventCReturn:
		return KindCReturn, nil
	case hooking.EventCException:
		return KindCException, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedEventKind, name)
	}
}

func (k Kind) String() string {
	switch k {
	case KindCall:
		return hooking.EventCall
	case KindLine:
		return hooking.EventLine
	case KindReturn:
		return hooking.EventReturn
	case KindException:
		return hooking.EventException
	case KindCCall:
		return hooking.EventCCall
	case KindCReturn:
		return hooking.EventCReturn
	case KindCException:
		return hooking.EventCException
	default:
		panic(fmt.Sprintf("invalid event kind %d", int(k)))
	}
}

// callStyle reports whether frames of this kind carry an argument mapping.
func (k Kind) callStyle() bool {
	return k == KindCall || k == KindCCall
}
