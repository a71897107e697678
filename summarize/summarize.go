// Package summarize converts arbitrary captured values into short strings.
//
// Summarizers are total: they never panic and never fail, whatever the
// value does in its String, Error, or field accessors, and their output
// length is bounded. The tracing layer records these summaries instead of
// retaining live references, so a record stays valid after the value is
// mutated or freed.
package summarize

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/syifan/goseth"
)

// A Summarizer renders one value as a bounded string.
type Summarizer interface {
	Summarize(v any) string
}

// Default is the summarizer used when nothing else is configured.
var Default = New(120)

// New creates a fmt-based summarizer whose output is capped at limit runes.
func New(limit int) Summarizer {
	return &limitSummarizer{limit: limit}
}

type limitSummarizer struct {
	limit int
}

func (s *limitSummarizer) Summarize(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = truncate(fmt.Sprintf("<unprintable %T>", v), s.limit)
		}
	}()

	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return truncate(strconv.Quote(val), s.limit)
	case error:
		return truncate(val.Error(), s.limit)
	case fmt.Stringer:
		return truncate(val.String(), s.limit)
	default:
		return truncate(fmt.Sprintf("%v", val), s.limit)
	}
}

// NewDeepSummarizer creates a summarizer that serializes the value's
// structure up to maxDepth levels, capped at limit runes. It is slower than
// the default summarizer but keeps field names and nesting visible.
func NewDeepSummarizer(maxDepth, limit int) Summarizer {
	return &deepSummarizer{maxDepth: maxDepth, limit: limit}
}

type deepSummarizer struct {
	maxDepth int
	limit    int
}

func (s *deepSummarizer) Summarize(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = truncate(fmt.Sprintf("<unserializable %T>", v), s.limit)
		}
	}()

	if v == nil {
		return "nil"
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(v)
	serializer.SetMaxDepth(s.maxDepth)

	buf := bytes.NewBuffer(nil)
	if err := serializer.Serialize(buf); err != nil {
		return truncate(fmt.Sprintf("%v", v), s.limit)
	}

	return truncate(buf.String(), s.limit)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit]) + "..."
}
