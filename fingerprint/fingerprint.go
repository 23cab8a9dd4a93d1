// Package fingerprint derives the cache key of a call: the identity of the
// callable plus a canonical rendering of its arguments.
//
// Keys are compared as strings. Canonicalization is complete (RFC 8785 JSON
// over the tagged value tree), so no hashing step is involved and equal
// arguments always produce byte-equal keys.
package fingerprint

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/unkn0wn-root/beatbox/codec"
	"github.com/unkn0wn-root/beatbox/value"
)

// CallKey identifies one recorded interaction.
type CallKey string

// Key fingerprints a call. Keyword arguments are placed in key order, so the
// order a caller built kwargs in never affects the key.
func Key(id Identity, args []any, kwargs map[string]any) (CallKey, error) {
	pos := make(value.Sequence, len(args))
	for i, a := range args {
		pos[i] = codec.Encode(a)
	}
	var named value.Mapping
	if len(kwargs) > 0 {
		named = codec.Encode(kwargs).(value.Mapping)
	}
	return KeyOf(id, pos, named)
}

// KeyOf fingerprints already-encoded arguments. kwargs entries are sorted by
// key before rendering.
func KeyOf(id Identity, args value.Sequence, kwargs value.Mapping) (CallKey, error) {
	var tree any = value.ToTagged(args)
	if len(kwargs) > 0 {
		tree = map[string]any{
			"args":   tree,
			"kwargs": value.ToTagged(value.SortMapping(kwargs)),
		}
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal %s args: %w", id, err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("fingerprint: canonicalize %s args: %w", id, err)
	}
	return CallKey(id.String() + ":" + string(canon)), nil
}

// Identity returns the identity part of k.
func (k CallKey) Identity() string {
	s := string(k)
	for i := 0; i+1 < len(s); i++ {
		if s[i] == ':' && (s[i+1] == '[' || s[i+1] == '{') {
			return s[:i]
		}
	}
	return s
}
