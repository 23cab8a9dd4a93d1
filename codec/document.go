package codec

import (
	"fmt"
	"strings"
)

// Document is the generic shape a storage file is encoded from: CallKey to
// tagged tree (see value.ToTagged).
type Document = map[string]any

const (
	FormatJSON    = "json"
	FormatCBOR    = "cbor"
	FormatMsgpack = "msgpack"
)

// Format resolves a document codec by name. The empty name means JSON.
func Format(name string) (Codec[Document], error) {
	switch strings.ToLower(name) {
	case "", FormatJSON:
		return JSON[Document]{Indent: "  "}, nil
	case FormatCBOR:
		return NewCBOR[Document](true)
	case FormatMsgpack, "msgp":
		return Msgpack[Document]{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown format %q", name)
	}
}
