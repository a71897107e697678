// Package record provides the insertion-ordered key/value mapping that
// trace pipelines emit, together with a JSON codec that preserves key order
// and value types across an encode/decode round trip.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// A Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value any
}

// A Record is a mapping that remembers insertion order. Values are limited
// to strings, booleans, integers, floats, nil, nested Records, and []any
// sequences of the same; Set panics on anything else.
type Record struct {
	fields []Field
	index  map[string]int
}

// New creates an empty Record.
func New() *Record {
	return &Record{index: make(map[string]int)}
}

// Set stores value under key. Setting an existing key replaces the value in
// place and keeps the key's original position.
func (r *Record) Set(key string, value any) *Record {
	v := normalize(value)

	if i, ok := r.index[key]; ok {
		r.fields[i].Value = v
		return r
	}

	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: v})

	return r
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}

	return r.fields[i].Value, true
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for _, f := range r.fields {
		keys = append(keys, f.Key)
	}

	return keys
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// Fields returns a copy of the fields in insertion order.
func (r *Record) Fields() []Field {
	fields := make([]Field, len(r.fields))
	copy(fields, r.fields)

	return fields
}

// MarshalJSON serializes the record as a JSON object with keys in insertion
// order.
func (r *Record) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	buf.WriteByte('{')

	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')

		if err := marshalValue(buf, f.Value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func marshalValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Record:
		b, err := val.MarshalJSON()
		if err != nil {
			return err
		}

		buf.Write(b)
	case []any:
		buf.WriteByte('[')

		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := marshalValue(buf, elem); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case float64:
		// Keep a decimal point so that integral floats stay floats after
		// a round trip.
		s := strconv.FormatFloat(val, 'g', -1, 64)
		buf.WriteString(s)

		if !bytes.ContainsAny([]byte(s), ".eE") {
			buf.WriteString(".0")
		}
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}

		buf.Write(b)
	}

	return nil
}

// normalize widens numeric values so that a Record always compares equal to
// its own decoded round trip.
func normalize(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int64, float64, *Record:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalize(elem)
		}

		return out
	case []*Record:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = elem
		}

		return out
	default:
		panic(fmt.Sprintf("record: unsupported value type %T", v))
	}
}
