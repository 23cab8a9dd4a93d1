package codec

import (
	"reflect"

	"github.com/unkn0wn-root/beatbox/value"
)

// CircularPlaceholder is what a cut back-edge decodes to.
const CircularPlaceholder = "[Circular Reference]"

// Tuple is a fixed-arity sequence. It encodes as value.Tuple rather than
// value.Sequence.
type Tuple []any

// Set is an unordered collection of unique members. Members may be of any
// shape, including ones Go maps cannot key on. Decoded sets hold members in
// canonical order.
type Set []any

// MapEntry is one entry of a Map.
type MapEntry struct {
	Key   any
	Value any
}

// Map is a mapping whose keys are not restricted to strings or to comparable
// Go types (tuples, sets and ranges are all valid keys).
type Map []MapEntry

// Get returns the value under key. Keys are compared by their encoded form.
func (m Map) Get(key any) (any, bool) {
	want := value.Canonical(Encode(key))
	for _, e := range m {
		if string(value.Canonical(Encode(e.Key))) == string(want) {
			return e.Value, true
		}
	}
	return nil, false
}

// Range describes start, start+step, ... up to (excluding) stop.
type Range struct {
	Start, Stop, Step int64
}

// Len returns the number of integers in r.
func (r Range) Len() int {
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		return int((r.Stop - r.Start + r.Step - 1) / r.Step)
	case r.Step < 0 && r.Start > r.Stop:
		return int((r.Start - r.Stop - r.Step - 1) / -r.Step)
	default:
		return 0
	}
}

// Values expands r.
func (r Range) Values() []int64 {
	out := make([]int64, 0, r.Len())
	for i, n := 0, r.Len(); i < n; i++ {
		out = append(out, r.Start+int64(i)*r.Step)
	}
	return out
}

// RemoteError is what a recorded error decodes to when its type is not
// registered. It carries the original type name and message.
type RemoteError struct {
	Type    string
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

var (
	typeTuple  = reflect.TypeOf(Tuple(nil))
	typeSet    = reflect.TypeOf(Set(nil))
	typeMap    = reflect.TypeOf(Map(nil))
	typeRange  = reflect.TypeOf(Range{})
	typeError  = reflect.TypeOf((*error)(nil)).Elem()
	typeEmpty  = reflect.TypeOf(struct{}{})
	typeString = reflect.TypeOf("")
)
