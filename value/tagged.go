package value

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

// TypeKey is the map key that carries a node's tag in the tagged tree.
const TypeKey = "__type__"

const (
	tagFloat    = "float"
	tagInt      = "int"
	tagTuple    = "tuple"
	tagSet      = "set"
	tagDict     = "dict"
	tagDateTime = "datetime"
	tagRange    = "range"
	tagError    = "error"
	tagCircular = "circular"
	tagObject   = "object"
	tagBytes    = "bytes"
)

// maxSafeInt is the largest integer a float64-based JSON reader keeps exact.
const maxSafeInt = 1<<53 - 1

var ErrMalformed = errors.New("value: malformed tagged node")

// ToTagged projects v onto a generic tree made of nil, bool, int64, string,
// []any and map[string]any. Every map in the result is a tagged node, so the
// tree survives any structured-data format that can carry those shapes.
func ToTagged(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(x)
	case Int:
		if x > maxSafeInt || x < -maxSafeInt {
			return node(tagInt, "value", strconv.FormatInt(int64(x), 10))
		}
		return int64(x)
	case Float:
		return node(tagFloat, "value", strconv.FormatFloat(float64(x), 'g', -1, 64))
	case String:
		return taggedString(string(x))
	case Sequence:
		return taggedList(x)
	case Tuple:
		return node(tagTuple, "items", taggedList(x))
	case Set:
		return node(tagSet, "items", taggedList(x))
	case Mapping:
		items := make([]any, len(x))
		for i, p := range x {
			items[i] = []any{ToTagged(p.Key), ToTagged(p.Value)}
		}
		return node(tagDict, "items", items)
	case DateTime:
		return node(tagDateTime, "value", x.Time.Format(time.RFC3339Nano))
	case Range:
		return map[string]any{TypeKey: tagRange, "start": x.Start, "stop": x.Stop, "step": x.Step}
	case Error:
		return map[string]any{TypeKey: tagError, "type": x.Type, "message": taggedString(x.Message)}
	case Circular:
		return map[string]any{TypeKey: tagCircular}
	case Record:
		fields := make(map[string]any, len(x.Fields))
		for _, p := range x.Fields {
			name, ok := p.Key.(String)
			if !ok {
				name = String(Canonical(p.Key))
			}
			fields[string(name)] = ToTagged(p.Value)
		}
		return map[string]any{TypeKey: tagObject, "class": x.Type, "fields": fields}
	default:
		panic(fmt.Sprintf("value: unknown variant %T", v))
	}
}

// taggedString keeps strings that are not valid UTF-8 as base64 bytes nodes.
// Structured-data encoders would otherwise replace the bad bytes with U+FFFD
// and distinct strings would collapse into one.
func taggedString(s string) any {
	if utf8.ValidString(s) {
		return s
	}
	return node(tagBytes, "value", base64.StdEncoding.EncodeToString([]byte(s)))
}

func node(tag, key string, payload any) map[string]any {
	return map[string]any{TypeKey: tag, key: payload}
}

func taggedList(vs []Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = ToTagged(v)
	}
	return out
}

// FromTagged rebuilds a Value from a tagged tree. It accepts the numeric and
// map shapes the JSON, CBOR and msgpack decoders produce.
func FromTagged(t any) (Value, error) {
	switch x := t.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return Int(x), nil
	case int8:
		return Int(x), nil
	case int16:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return Int(x), nil
	case uint16:
		return Int(x), nil
	case uint32:
		return Int(x), nil
	case uint64:
		return fromUint(x)
	case float32:
		return numberFromFloat(float64(x)), nil
	case float64:
		return numberFromFloat(x), nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrMalformed, x)
		}
		return Float(f), nil
	case []any:
		seq, err := fromTaggedList(x)
		if err != nil {
			return nil, err
		}
		return Sequence(seq), nil
	case map[string]any:
		return fromNode(x)
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string node key %v", ErrMalformed, k)
			}
			m[ks] = v
		}
		return fromNode(m)
	default:
		return nil, fmt.Errorf("%w: unsupported shape %T", ErrMalformed, t)
	}
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("%w: integer %d overflows int64", ErrMalformed, u)
	}
	return Int(u), nil
}

// Raw floats are never written by ToTagged; tolerate them from hand-edited files.
func numberFromFloat(f float64) Value {
	if f == math.Trunc(f) && math.Abs(f) <= maxSafeInt {
		return Int(f)
	}
	return Float(f)
}

func fromTaggedList(xs []any) ([]Value, error) {
	out := make([]Value, len(xs))
	for i, e := range xs {
		v, err := FromTagged(e)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func fromNode(m map[string]any) (Value, error) {
	tag, _ := m[TypeKey].(string)
	switch tag {
	case tagFloat:
		s, ok := m["value"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: float without value", ErrMalformed)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: float %q", ErrMalformed, s)
		}
		return Float(f), nil
	case tagInt:
		s, ok := m["value"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: int without value", ErrMalformed)
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: int %q", ErrMalformed, s)
		}
		return Int(n), nil
	case tagTuple, tagSet:
		items, err := itemsOf(m)
		if err != nil {
			return nil, err
		}
		vs, err := fromTaggedList(items)
		if err != nil {
			return nil, err
		}
		if tag == tagTuple {
			return Tuple(vs), nil
		}
		return Set(vs), nil
	case tagDict:
		items, err := itemsOf(m)
		if err != nil {
			return nil, err
		}
		out := make(Mapping, 0, len(items))
		for i, it := range items {
			kv, ok := it.([]any)
			if !ok || len(kv) != 2 {
				return nil, fmt.Errorf("%w: dict entry %d is not a pair", ErrMalformed, i)
			}
			k, err := FromTagged(kv[0])
			if err != nil {
				return nil, err
			}
			v, err := FromTagged(kv[1])
			if err != nil {
				return nil, err
			}
			out = append(out, Pair{Key: k, Value: v})
		}
		return out, nil
	case tagDateTime:
		s, _ := m["value"].(string)
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("%w: datetime %q", ErrMalformed, s)
		}
		return DateTime{Time: ts}, nil
	case tagRange:
		var r Range
		var err error
		if r.Start, err = intField(m, "start"); err != nil {
			return nil, err
		}
		if r.Stop, err = intField(m, "stop"); err != nil {
			return nil, err
		}
		if r.Step, err = intField(m, "step"); err != nil {
			return nil, err
		}
		return r, nil
	case tagError:
		typ, _ := m["type"].(string)
		var msg string
		if m["message"] != nil {
			v, err := FromTagged(m["message"])
			if err != nil {
				return nil, fmt.Errorf("error message: %w", err)
			}
			s, ok := v.(String)
			if !ok {
				return nil, fmt.Errorf("%w: error message is %s", ErrMalformed, Kind(v))
			}
			msg = string(s)
		}
		return Error{Type: typ, Message: msg}, nil
	case tagBytes:
		s, ok := m["value"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: bytes without value", ErrMalformed)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: bytes %q", ErrMalformed, s)
		}
		return String(b), nil
	case tagCircular:
		return Circular{}, nil
	case tagObject:
		class, _ := m["class"].(string)
		raw, err := asNode(m["fields"])
		if err != nil {
			return nil, fmt.Errorf("object %q fields: %w", class, err)
		}
		fields := make(Mapping, 0, len(raw))
		for _, name := range sortedKeys(raw) {
			v, err := FromTagged(raw[name])
			if err != nil {
				return nil, fmt.Errorf("object %q field %q: %w", class, name, err)
			}
			fields = append(fields, Pair{Key: String(name), Value: v})
		}
		return Record{Type: class, Fields: fields}, nil
	default:
		return nil, fmt.Errorf("%w: unknown tag %q", ErrMalformed, tag)
	}
}

func itemsOf(m map[string]any) ([]any, error) {
	items, ok := m["items"].([]any)
	if !ok && m["items"] != nil {
		return nil, fmt.Errorf("%w: %v items are %T", ErrMalformed, m[TypeKey], m["items"])
	}
	return items, nil
}

func asNode(t any) (map[string]any, error) {
	switch x := t.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return x, nil
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string field name %v", ErrMalformed, k)
			}
			out[ks] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected map, got %T", ErrMalformed, t)
	}
}

func intField(m map[string]any, name string) (int64, error) {
	v, err := FromTagged(m[name])
	if err != nil {
		return 0, err
	}
	n, ok := v.(Int)
	if !ok {
		return 0, fmt.Errorf("%w: range %s is %s", ErrMalformed, name, Kind(v))
	}
	return int64(n), nil
}

// Canonical returns a deterministic byte encoding of v. Equal values always
// produce equal bytes; it is the ordering key for set members and map entries.
func Canonical(v Value) []byte {
	b, err := json.Marshal(ToTagged(v))
	if err != nil {
		// unreachable: tagged trees hold only JSON-safe shapes
		return []byte(fmt.Sprintf("%#v", v))
	}
	return b
}
