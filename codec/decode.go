package codec

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/unkn0wn-root/beatbox/value"
)

// ErrTypeMismatch is wrapped by every DecodeInto shape error.
var ErrTypeMismatch = errors.New("codec: type mismatch")

// Decoder rebuilds native values from the value model.
type Decoder struct {
	reg *Registry
}

// NewDecoder returns a Decoder resolving names through reg.
// A nil reg means DefaultRegistry().
func NewDecoder(reg *Registry) *Decoder {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Decoder{reg: reg}
}

// Registry returns the registry the decoder resolves names with.
func (d *Decoder) Registry() *Registry { return d.reg }

// Decode produces the best-effort native form of v. It never fails: records
// of unregistered types come back as map[string]any of their fields, and
// unknown errors as *RemoteError.
func (d *Decoder) Decode(v value.Value) any {
	switch x := v.(type) {
	case nil, value.Null:
		return nil
	case value.Bool:
		return bool(x)
	case value.Int:
		return int64(x)
	case value.Float:
		return float64(x)
	case value.String:
		return string(x)
	case value.Sequence:
		return d.decodeList(x)
	case value.Tuple:
		return Tuple(d.decodeList(x))
	case value.Set:
		return Set(d.decodeList(x))
	case value.Mapping:
		return d.decodeMapping(x)
	case value.DateTime:
		return x.Time
	case value.Range:
		return Range{Start: x.Start, Stop: x.Stop, Step: x.Step}
	case value.Error:
		return d.reg.newError(x.Type, x.Message)
	case value.Circular:
		return CircularPlaceholder
	case value.Record:
		if t, ok := d.reg.lookupType(x.Type); ok {
			if rv, err := d.DecodeInto(x, t); err == nil {
				return rv.Interface()
			}
		}
		return d.fields(x.Fields)
	default:
		return nil
	}
}

func (d *Decoder) decodeList(vs []value.Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = d.Decode(v)
	}
	return out
}

func (d *Decoder) decodeMapping(m value.Mapping) any {
	for _, p := range m {
		if _, ok := p.Key.(value.String); !ok {
			out := make(Map, len(m))
			for i, p := range m {
				out[i] = MapEntry{Key: d.Decode(p.Key), Value: d.Decode(p.Value)}
			}
			return out
		}
	}
	return d.fields(m)
}

func (d *Decoder) fields(m value.Mapping) map[string]any {
	out := make(map[string]any, len(m))
	for _, p := range m {
		out[string(p.Key.(value.String))] = d.Decode(p.Value)
	}
	return out
}

// DecodeTo decodes v into the value dst points to.
func (d *Decoder) DecodeTo(v value.Value, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("codec: DecodeTo needs a non-nil pointer, got %T", dst)
	}
	return d.into(v, rv.Elem())
}

// DecodeInto decodes v into a new value of type t.
func (d *Decoder) DecodeInto(v value.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	if err := d.into(v, out); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

func mismatch(v value.Value, t reflect.Type) error {
	return fmt.Errorf("%w: cannot decode %s into %s", ErrTypeMismatch, value.Kind(v), t)
}

func (d *Decoder) into(v value.Value, out reflect.Value) error {
	t := out.Type()

	switch x := v.(type) {
	case nil, value.Null:
		out.Set(reflect.Zero(t))
		return nil
	case value.Circular:
		if t.Kind() == reflect.String || typeString.AssignableTo(t) {
			out.Set(reflect.ValueOf(CircularPlaceholder).Convert(t))
		} else {
			out.Set(reflect.Zero(t))
		}
		return nil
	case value.Error:
		return d.assignNative(v, out)
	case value.DateTime:
		if t == typeTime {
			out.Set(reflect.ValueOf(x.Time))
			return nil
		}
	case value.Range:
		if t == typeRange {
			out.Set(reflect.ValueOf(Range{Start: x.Start, Stop: x.Stop, Step: x.Step}))
			return nil
		}
	}

	switch t.Kind() {
	case reflect.Interface:
		return d.assignNative(v, out)
	case reflect.Pointer:
		p := reflect.New(t.Elem())
		if err := d.into(v, p.Elem()); err != nil {
			return err
		}
		out.Set(p)
		return nil
	case reflect.Bool:
		b, ok := v.(value.Bool)
		if !ok {
			return mismatch(v, t)
		}
		out.SetBool(bool(b))
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.(value.Int)
		if !ok || out.OverflowInt(int64(n)) {
			return mismatch(v, t)
		}
		out.SetInt(int64(n))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return setUint(v, out)
	case reflect.Float32, reflect.Float64:
		switch n := v.(type) {
		case value.Float:
			out.SetFloat(float64(n))
		case value.Int:
			out.SetFloat(float64(n))
		default:
			return mismatch(v, t)
		}
		return nil
	case reflect.String:
		s, ok := v.(value.String)
		if !ok {
			return mismatch(v, t)
		}
		out.SetString(string(s))
		return nil
	case reflect.Slice:
		elems, ok := listOf(v)
		if !ok {
			if m, isMap := v.(value.Mapping); isMap && t == typeMap {
				entries := make(Map, len(m))
				for i, p := range m {
					entries[i] = MapEntry{Key: d.Decode(p.Key), Value: d.Decode(p.Value)}
				}
				out.Set(reflect.ValueOf(entries))
				return nil
			}
			return mismatch(v, t)
		}
		s := reflect.MakeSlice(t, len(elems), len(elems))
		for i, e := range elems {
			if err := d.into(e, s.Index(i)); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		out.Set(s)
		return nil
	case reflect.Array:
		elems, ok := listOf(v)
		if !ok || len(elems) > t.Len() {
			return mismatch(v, t)
		}
		for i, e := range elems {
			if err := d.into(e, out.Index(i)); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	case reflect.Map:
		return d.intoMap(v, out)
	case reflect.Struct:
		return d.intoStruct(v, out)
	case reflect.Complex64, reflect.Complex128:
		r, ok := v.(value.Record)
		if !ok {
			return mismatch(v, t)
		}
		re, _ := r.Field("real")
		im, _ := r.Field("imag")
		rf, _ := re.(value.Float)
		imf, _ := im.(value.Float)
		out.SetComplex(complex(float64(rf), float64(imf)))
		return nil
	default:
		return mismatch(v, t)
	}
}

// assignNative decodes v natively and assigns the result if its type fits.
func (d *Decoder) assignNative(v value.Value, out reflect.Value) error {
	n := d.Decode(v)
	if n == nil {
		out.Set(reflect.Zero(out.Type()))
		return nil
	}
	nv := reflect.ValueOf(n)
	if !nv.Type().AssignableTo(out.Type()) {
		return mismatch(v, out.Type())
	}
	out.Set(nv)
	return nil
}

func setUint(v value.Value, out reflect.Value) error {
	var u uint64
	switch n := v.(type) {
	case value.Int:
		if n < 0 {
			return mismatch(v, out.Type())
		}
		u = uint64(n)
	case value.String:
		// uint64 values above MaxInt64 are recorded as decimal strings
		p, err := strconv.ParseUint(string(n), 10, 64)
		if err != nil {
			return mismatch(v, out.Type())
		}
		u = p
	default:
		return mismatch(v, out.Type())
	}
	if out.OverflowUint(u) {
		return mismatch(v, out.Type())
	}
	out.SetUint(u)
	return nil
}

func listOf(v value.Value) ([]value.Value, bool) {
	switch x := v.(type) {
	case value.Sequence:
		return x, true
	case value.Tuple:
		return x, true
	case value.Set:
		return x, true
	}
	return nil, false
}

func (d *Decoder) intoMap(v value.Value, out reflect.Value) error {
	t := out.Type()
	m := reflect.MakeMap(t)

	setKey := func(kv value.Value, ev reflect.Value) error {
		k := reflect.New(t.Key()).Elem()
		if err := d.into(kv, k); err != nil {
			return fmt.Errorf("map key: %w", err)
		}
		if !k.Comparable() {
			return fmt.Errorf("%w: %s key %s is not comparable in Go", ErrTypeMismatch, value.Kind(kv), k.Type())
		}
		m.SetMapIndex(k, ev)
		return nil
	}

	switch x := v.(type) {
	case value.Set:
		if t.Elem() != typeEmpty {
			return mismatch(v, t)
		}
		for _, member := range x {
			if err := setKey(member, reflect.Zero(typeEmpty)); err != nil {
				return err
			}
		}
	case value.Mapping:
		for _, p := range x {
			ev := reflect.New(t.Elem()).Elem()
			if err := d.into(p.Value, ev); err != nil {
				return err
			}
			if err := setKey(p.Key, ev); err != nil {
				return err
			}
		}
	case value.Record:
		return d.intoMap(x.Fields, out)
	default:
		return mismatch(v, t)
	}
	out.Set(m)
	return nil
}

func (d *Decoder) intoStruct(v value.Value, out reflect.Value) error {
	t := out.Type()
	var fields value.Mapping
	switch x := v.(type) {
	case value.Record:
		fields = x.Fields
	case value.Mapping:
		fields = x
	default:
		return mismatch(v, t)
	}
	for _, p := range fields {
		name, ok := p.Key.(value.String)
		if !ok {
			continue
		}
		sf, ok := t.FieldByName(string(name))
		if !ok || !sf.IsExported() || len(sf.Index) != 1 {
			continue
		}
		if err := d.into(p.Value, out.Field(sf.Index[0])); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}
