package codec

import (
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/unkn0wn-root/beatbox/value"
)

var typeTime = reflect.TypeOf(time.Time{})

// Encode projects a native Go value onto the value model. It never fails:
// shapes without a dedicated variant become a Record named after their type,
// and references back into the value's own ancestor chain become
// value.Circular.
//
// Go maps are emitted in canonical key order, so Encode is deterministic for
// equal inputs.
func Encode(v any) value.Value {
	e := encoder{active: make(map[visitKey]struct{})}
	return e.encode(reflect.ValueOf(v))
}

// visitKey identifies a reference-carrying value on the active chain.
type visitKey struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

type encoder struct {
	active map[visitKey]struct{}
}

// enter marks k as being encoded; false means k is already an ancestor.
func (e *encoder) enter(k visitKey) bool {
	if _, ok := e.active[k]; ok {
		return false
	}
	e.active[k] = struct{}{}
	return true
}

func (e *encoder) leave(k visitKey) { delete(e.active, k) }

func (e *encoder) encode(rv reflect.Value) value.Value {
	if !rv.IsValid() {
		return value.Null{}
	}
	t := rv.Type()

	if t.Kind() != reflect.Interface && rv.CanInterface() && t.Implements(typeError) {
		if nilable(rv.Kind()) && rv.IsNil() {
			return value.Null{}
		}
		return value.Error{Type: TypeName(t), Message: rv.Interface().(error).Error()}
	}

	switch t {
	case typeTime:
		return value.DateTime{Time: rv.Interface().(time.Time)}
	case typeRange:
		r := rv.Interface().(Range)
		return value.Range{Start: r.Start, Stop: r.Stop, Step: r.Step}
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return value.Null{}
		}
		return e.encode(rv.Elem())
	case reflect.Pointer:
		if rv.IsNil() {
			return value.Null{}
		}
		k := visitKey{ptr: rv.Pointer(), typ: t}
		if !e.enter(k) {
			return value.Circular{}
		}
		defer e.leave(k)
		return e.encode(rv.Elem())
	case reflect.Bool:
		return value.Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return value.String(strconv.FormatUint(u, 10))
		}
		return value.Int(int64(u))
	case reflect.Float32, reflect.Float64:
		return value.Float(rv.Float())
	case reflect.Complex64, reflect.Complex128:
		c := rv.Complex()
		return value.Record{Type: TypeName(t), Fields: value.Mapping{
			{Key: value.String("real"), Value: value.Float(real(c))},
			{Key: value.String("imag"), Value: value.Float(imag(c))},
		}}
	case reflect.String:
		return value.String(rv.String())
	case reflect.Slice:
		return e.encodeSlice(rv)
	case reflect.Array:
		return value.Sequence(e.encodeElems(rv))
	case reflect.Map:
		return e.encodeMap(rv)
	case reflect.Struct:
		return e.encodeStruct(rv)
	default:
		// func, chan, unsafe.Pointer: identity only
		if nilable(rv.Kind()) && rv.IsNil() {
			return value.Null{}
		}
		return value.Record{Type: TypeName(t), Fields: value.Mapping{}}
	}
}

func (e *encoder) encodeSlice(rv reflect.Value) value.Value {
	t := rv.Type()
	if rv.Len() > 0 {
		k := visitKey{ptr: rv.Pointer(), typ: t, n: rv.Len()}
		if !e.enter(k) {
			return value.Circular{}
		}
		defer e.leave(k)
	}
	switch t {
	case typeTuple:
		return value.Tuple(e.encodeElems(rv))
	case typeSet:
		return value.SortSet(value.Set(e.encodeElems(rv)))
	case typeMap:
		m := make(value.Mapping, rv.Len())
		for i := range m {
			ent := rv.Index(i)
			m[i] = value.Pair{Key: e.encode(ent.Field(0)), Value: e.encode(ent.Field(1))}
		}
		return m
	}
	return value.Sequence(e.encodeElems(rv))
}

func (e *encoder) encodeElems(rv reflect.Value) []value.Value {
	out := make([]value.Value, rv.Len())
	for i := range out {
		out[i] = e.encode(rv.Index(i))
	}
	return out
}

func (e *encoder) encodeMap(rv reflect.Value) value.Value {
	t := rv.Type()
	if rv.Len() > 0 {
		k := visitKey{ptr: rv.Pointer(), typ: t}
		if !e.enter(k) {
			return value.Circular{}
		}
		defer e.leave(k)
	}

	// map[K]struct{} is the Go spelling of a set
	if t.Elem() == typeEmpty {
		s := make(value.Set, 0, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			s = append(s, e.encode(it.Key()))
		}
		return value.SortSet(s)
	}

	m := make(value.Mapping, 0, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		m = append(m, value.Pair{Key: e.encode(it.Key()), Value: e.encode(it.Value())})
	}
	return value.SortMapping(m)
}

func (e *encoder) encodeStruct(rv reflect.Value) value.Value {
	t := rv.Type()
	fields := make(value.Mapping, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fields = append(fields, value.Pair{Key: value.String(f.Name), Value: e.encode(rv.Field(i))})
	}
	return value.Record{Type: TypeName(t), Fields: fields}
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return true
	}
	return false
}

// TypeName is the declared name a Record or Error carries: the import path
// qualified type name, with a leading '*' per pointer level.
func TypeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + TypeName(t.Elem())
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
