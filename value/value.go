// Package value defines the self-describing model every recorded argument and
// result is projected into before it is persisted.
//
// Value is a sealed union. Only the variants declared here implement it, so a
// type switch over a Value is exhaustive by construction.
package value

import (
	"time"
)

// Value is a persistable shape.
type Value interface {
	isValue()
}

// Null is the absent value.
type Null struct{}

// Bool is a boolean.
type Bool bool

// Int is a signed integer.
type Int int64

// Float is an IEEE-754 double.
type Float float64

// String is a UTF-8 string.
type String string

// Sequence is an ordered list.
type Sequence []Value

// Tuple is a fixed-arity ordered list. It is tagged apart from Sequence.
type Tuple []Value

// Set is an unordered collection of unique members. Encoders keep members in
// canonical order so equal sets have equal encodings.
type Set []Value

// Pair is one key/value entry of a Mapping.
type Pair struct {
	Key   Value
	Value Value
}

// Mapping is an ordered list of entries. Keys are arbitrary Values.
type Mapping []Pair

// DateTime is an instant.
type DateTime struct {
	Time time.Time
}

// Range describes the integers start, start+step, ... up to (excluding) stop.
type Range struct {
	Start, Stop, Step int64
}

// Error is an error flattened to its type name and message.
type Error struct {
	Type    string
	Message string
}

// Circular marks a back-edge that was cut while encoding a cyclic structure.
type Circular struct{}

// Record is an object of a type the codec has no dedicated variant for.
// Fields carries String keys.
type Record struct {
	Type   string
	Fields Mapping
}

func (Null) isValue()     {}
func (Bool) isValue()     {}
func (Int) isValue()      {}
func (Float) isValue()    {}
func (String) isValue()   {}
func (Sequence) isValue() {}
func (Tuple) isValue()    {}
func (Set) isValue()      {}
func (Mapping) isValue()  {}
func (DateTime) isValue() {}
func (Range) isValue()    {}
func (Error) isValue()    {}
func (Circular) isValue() {}
func (Record) isValue()   {}

// Get returns the value stored under key, compared by canonical encoding.
func (m Mapping) Get(key Value) (Value, bool) {
	want := Canonical(key)
	for _, p := range m {
		if string(Canonical(p.Key)) == string(want) {
			return p.Value, true
		}
	}
	return nil, false
}

// Field returns the named field of a record.
func (r Record) Field(name string) (Value, bool) {
	return r.Fields.Get(String(name))
}

// Equal reports whether a and b have the same canonical encoding.
func Equal(a, b Value) bool {
	return string(Canonical(a)) == string(Canonical(b))
}

// Kind names the variant of v, matching its tag in the tagged tree.
func Kind(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return tagFloat
	case String:
		return "string"
	case Sequence:
		return "list"
	case Tuple:
		return tagTuple
	case Set:
		return tagSet
	case Mapping:
		return tagDict
	case DateTime:
		return tagDateTime
	case Range:
		return tagRange
	case Error:
		return tagError
	case Circular:
		return tagCircular
	case Record:
		return tagObject
	default:
		return "unknown"
	}
}
