package codec

import (
	"bytes"
	"encoding/json"
	"io"
)

// JSON is a Codec backed by encoding/json. The zero value is ready to use.
//
// HTML escaping is disabled so keys such as "<anonymous>:..." stay readable on
// disk. Decode uses json.Number for numbers so integers keep full int64
// precision when V holds interface values.
type JSON[V any] struct {
	// Indent, when non-empty, pretty-prints the output with this indent.
	Indent string
}

var _ Codec[struct{}] = JSON[struct{}]{}

func (c JSON[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	// More reports false on a stray ']' or '}', so read one more token.
	if _, err := dec.Token(); err != io.EOF {
		return v, errTrailingData
	}
	return v, nil
}
