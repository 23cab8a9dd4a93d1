package beatbox

import (
	"context"
	"fmt"
	"reflect"

	"github.com/unkn0wn-root/beatbox/codec"
	"github.com/unkn0wn-root/beatbox/fingerprint"
	"github.com/unkn0wn-root/beatbox/value"
)

// WrapOption customizes Wrap.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	id    fingerprint.Identity
	hasID bool
}

// WithName fingerprints the wrapped function under name instead of its
// runtime symbol. Use it to keep recordings stable across renames or to
// give function literals distinct identities.
func WithName(name string) WrapOption {
	return WithIdentity(fingerprint.Named(name))
}

// WithIdentity sets the fingerprint identity explicitly.
func WithIdentity(id fingerprint.Identity) WrapOption {
	return func(c *wrapConfig) {
		c.id = id
		c.hasID = true
	}
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Wrap returns a function with fn's exact signature that routes every call
// through b.
//
//   - A leading context.Context is passed through to fn and is not part of
//     the fingerprint.
//   - A trailing error result carries dispatcher errors (ModeError,
//     NoRecordingError, DecodeError) as well as fn's own errors. If fn has
//     no error result, dispatcher errors panic.
//   - Several non-error results are recorded together as one tuple.
//   - A function returning a single *Future[T] is async: see Future.
//
// The identity is resolved once, here, from fn's runtime symbol unless
// WithName or WithIdentity is given. Wrap panics if fn is not a non-nil func.
func Wrap[F any](b *Beatbox, fn F, opts ...WrapOption) F {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		panic(fmt.Sprintf("beatbox: Wrap needs a non-nil func, got %T", fn))
	}
	var cfg wrapConfig
	for _, o := range opts {
		o(&cfg)
	}
	if !cfg.hasID {
		cfg.id = fingerprint.Of(fn, b.policy)
	}

	ft := fv.Type()
	w := &wrapper{b: b, fn: fv, ft: ft, id: cfg.id}
	w.ctxIn = ft.NumIn() > 0 && ft.In(0) == contextType
	w.errOut = ft.NumOut() > 0 && ft.Out(ft.NumOut()-1) == errorType
	w.nres = ft.NumOut()
	if w.errOut {
		w.nres--
	}
	if ft.NumOut() == 1 && ft.Out(0).Implements(awaitableType) {
		w.async = true
		w.resultT = reflect.New(ft.Out(0).Elem()).Interface().(awaitable).resultType()
	}
	return reflect.MakeFunc(ft, w.call).Interface().(F)
}

type wrapper struct {
	b  *Beatbox
	fn reflect.Value
	ft reflect.Type
	id fingerprint.Identity

	ctxIn   bool
	errOut  bool
	nres    int // results other than the trailing error
	async   bool
	resultT reflect.Type // T of *Future[T] when async
}

func (w *wrapper) call(in []reflect.Value) []reflect.Value {
	ctx := context.Background()
	args := in
	if w.ctxIn {
		if c, ok := in[0].Interface().(context.Context); ok && c != nil {
			ctx = c
		}
		args = in[1:]
	}
	call := Call{Identity: w.id, Args: make([]any, len(args))}
	for i, a := range args {
		call.Args[i] = a.Interface()
	}

	if w.async {
		return w.callAsync(ctx, call, in)
	}

	var (
		outs []reflect.Value
		ran  bool
	)
	res, err := w.b.dispatch(ctx, w.b.Mode(), call, func(context.Context) (any, error) {
		ran = true
		outs = w.invoke(in)
		return w.results(outs)
	}, w.decodeResults)
	if ran {
		// hand back fn's own values, not a codec round-trip
		return outs
	}
	if err != nil {
		return w.fail(err)
	}
	outs = res.([]reflect.Value)
	if w.errOut {
		outs = append(outs, reflect.Zero(errorType))
	}
	return outs
}

func (w *wrapper) invoke(in []reflect.Value) []reflect.Value {
	if w.ft.IsVariadic() {
		return w.fn.CallSlice(in)
	}
	return w.fn.Call(in)
}

// results splits fn's outputs into the recordable result and fn's error.
func (w *wrapper) results(outs []reflect.Value) (any, error) {
	var err error
	if w.errOut {
		err, _ = outs[len(outs)-1].Interface().(error)
	}
	switch w.nres {
	case 0:
		return nil, err
	case 1:
		return outs[0].Interface(), err
	default:
		tup := make(codec.Tuple, w.nres)
		for i := 0; i < w.nres; i++ {
			tup[i] = outs[i].Interface()
		}
		return tup, err
	}
}

func (w *wrapper) decodeResults(v value.Value) (any, error) {
	dec := w.b.dec
	switch w.nres {
	case 0:
		return []reflect.Value{}, nil
	case 1:
		rv, err := dec.DecodeInto(v, w.ft.Out(0))
		if err != nil {
			return nil, err
		}
		return []reflect.Value{rv}, nil
	}
	tup, ok := v.(value.Tuple)
	if !ok || len(tup) != w.nres {
		return nil, fmt.Errorf("%w: want %d results, got %s", codec.ErrTypeMismatch, w.nres, value.Kind(v))
	}
	outs := make([]reflect.Value, w.nres)
	for i, e := range tup {
		rv, err := dec.DecodeInto(e, w.ft.Out(i))
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		outs[i] = rv
	}
	return outs, nil
}

// fail returns zero results with err, or panics when fn has no error result.
func (w *wrapper) fail(err error) []reflect.Value {
	if !w.errOut {
		panic(err)
	}
	outs := make([]reflect.Value, w.ft.NumOut())
	for i := range outs {
		outs[i] = reflect.Zero(w.ft.Out(i))
	}
	outs[len(outs)-1] = reflect.ValueOf(&err).Elem()
	return outs
}

func (w *wrapper) callAsync(ctx context.Context, call Call, in []reflect.Value) []reflect.Value {
	mode := w.b.Mode()
	switch mode {
	case Bypass:
		return w.invoke(in)
	case Record, Playback:
	default:
		return w.settled(nil, &ModeError{Mode: mode})
	}

	key, err := w.b.key(call)
	if err != nil {
		return w.settled(nil, err)
	}
	if mode == Playback {
		return w.settled(w.b.playback(ctx, call.Identity, key, w.b.decodeAs(w.resultT)))
	}

	// start fn now; record once its future settles
	out := w.invoke(in)[0]
	var orig awaitable
	if !out.IsNil() {
		orig = out.Interface().(awaitable)
	}
	next, nv := w.newFuture()
	go func() {
		res, err := w.b.record(context.WithoutCancel(ctx), call.Identity, key, func(ctx context.Context) (any, error) {
			if orig == nil {
				return nil, errNilFuture
			}
			return orig.awaitAny(ctx)
		})
		next.settleAny(res, err)
	}()
	return []reflect.Value{nv}
}

func (w *wrapper) newFuture() (awaitable, reflect.Value) {
	p := reflect.New(w.ft.Out(0).Elem())
	a := p.Interface().(awaitable)
	a.init()
	return a, p
}

func (w *wrapper) settled(res any, err error) []reflect.Value {
	f, v := w.newFuture()
	f.settleAny(res, err)
	return []reflect.Value{v}
}
