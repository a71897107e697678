package record

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// JSONCodec encodes and decodes Records as JSON objects. Decoding restores
// the exact key order and the integer/float distinction of the encoded
// record.
type JSONCodec struct{}

// NewJSONCodec creates a JSONCodec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Encode writes r to the writer as a single JSON object.
func (c JSONCodec) Encode(r *Record, w io.Writer) error {
	b, err := r.MarshalJSON()
	if err != nil {
		return err
	}

	_, err = w.Write(b)

	return err
}

// Decode reads one JSON object from the reader.
func (c JSONCodec) Decode(rd io.Reader) (*Record, error) {
	dec := json.NewDecoder(rd)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("record: expected object, got %v", tok)
	}

	return decodeObject(dec)
}

func decodeObject(dec *json.Decoder) (*Record, error) {
	rec := New()

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("record: expected key, got %v", tok)
		}

		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}

		rec.Set(key, value)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return rec, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	values := []any{}

	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}

		values = append(values, value)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return values, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch val := tok.(type) {
	case json.Delim:
		switch val {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("record: unexpected delimiter %v", val)
		}
	case json.Number:
		if strings.ContainsAny(val.String(), ".eE") {
			return val.Float64()
		}

		return val.Int64()
	default:
		// string, bool, or nil
		return val, nil
	}
}
