// Package codec holds the two serialization layers of beatbox.
//
// Codec[V] turns a value into bytes and back; the storage layer uses it for
// whole documents (JSON by default, CBOR or msgpack on request).
//
// Encode and Decoder convert between native Go values and the value model.
// Encoding is total: shapes without a dedicated variant degrade to a Record.
package codec

import "errors"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

var errTrailingData = errors.New("codec: trailing data after document")
