// Package wire converts between a storage file's bytes and its recordings.
//
// A file is one document: a mapping from CallKey to the tagged tree of the
// recorded result (see value.ToTagged), encoded by a document codec.
package wire

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/beatbox/codec"
	"github.com/unkn0wn-root/beatbox/value"
)

// ErrCorrupt is wrapped by every DecodeDocument failure.
var ErrCorrupt = errors.New("beatbox: corrupt recording file")

// EncodeDocument renders recs with c.
func EncodeDocument(c codec.Codec[codec.Document], recs map[string]value.Value) ([]byte, error) {
	doc := make(codec.Document, len(recs))
	for k, v := range recs {
		doc[k] = value.ToTagged(v)
	}
	b, err := c.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

// DecodeDocument parses b with c. Zero bytes decode to an empty set of
// recordings. Anything that does not parse as a document of well-formed
// tagged trees is ErrCorrupt.
func DecodeDocument(c codec.Codec[codec.Document], b []byte) (map[string]value.Value, error) {
	if len(b) == 0 {
		return map[string]value.Value{}, nil
	}
	doc, err := c.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc == nil {
		// "null" and friends parse but carry no mapping
		return nil, fmt.Errorf("%w: document is not a mapping", ErrCorrupt)
	}

	recs := make(map[string]value.Value, len(doc))
	for k, tree := range doc {
		v, err := value.FromTagged(tree)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrCorrupt, k, err)
		}
		recs[k] = v
	}
	return recs, nil
}
