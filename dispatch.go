package beatbox

import (
	"context"
	"errors"
	"reflect"

	"github.com/unkn0wn-root/beatbox/codec"
	"github.com/unkn0wn-root/beatbox/fingerprint"
	"github.com/unkn0wn-root/beatbox/internal/util"
	"github.com/unkn0wn-root/beatbox/value"
)

// RaisedType is the record type of a stored error outcome.
const RaisedType = "beatbox.raised"

// Call describes one invocation for fingerprinting.
type Call struct {
	Identity fingerprint.Identity
	Args     []any
	Kwargs   map[string]any
}

type (
	runFunc    func(ctx context.Context) (any, error)
	decodeFunc func(v value.Value) (any, error)
)

// Do routes one call. fn runs in Bypass and Record and never in Playback,
// where the recorded result is rebuilt with Decoder.Decode.
func (b *Beatbox) Do(ctx context.Context, call Call, fn func(context.Context) (any, error)) (any, error) {
	return b.dispatch(ctx, b.Mode(), call, fn, func(v value.Value) (any, error) {
		return b.dec.Decode(v), nil
	})
}

// Invoke is the typed form of Do. In Playback the recording is decoded into R.
func Invoke[R any](ctx context.Context, b *Beatbox, call Call, fn func(context.Context) (R, error)) (R, error) {
	res, err := b.dispatch(ctx, b.Mode(), call,
		func(ctx context.Context) (any, error) { return fn(ctx) },
		b.decodeAs(reflect.TypeOf((*R)(nil)).Elem()),
	)
	r, _ := res.(R)
	return r, err
}

func (b *Beatbox) dispatch(ctx context.Context, mode Mode, call Call, run runFunc, decode decodeFunc) (any, error) {
	switch mode {
	case Bypass:
		return run(ctx)
	case Record, Playback:
	default:
		return nil, &ModeError{Mode: mode}
	}

	key, err := b.key(call)
	if err != nil {
		return nil, err
	}
	if mode == Record {
		return b.record(ctx, call.Identity, key, run)
	}
	return b.playback(ctx, call.Identity, key, decode)
}

func (b *Beatbox) key(call Call) (fingerprint.CallKey, error) {
	return fingerprint.Key(call.Identity, call.Args, call.Kwargs)
}

// record runs the callable and stores its outcome. The caller always gets
// the callable's own result and error back, even if storing fails.
func (b *Beatbox) record(ctx context.Context, id fingerprint.Identity, key fingerprint.CallKey, run runFunc) (any, error) {
	res, err := run(ctx)
	if err != nil {
		if b.recordErrors {
			b.put(ctx, id, key, raised(err), true)
		}
		return res, err
	}
	b.put(ctx, id, key, codec.Encode(res), false)
	return res, nil
}

func (b *Beatbox) put(ctx context.Context, id fingerprint.Identity, key fingerprint.CallKey, v value.Value, isErr bool) {
	if err := b.store.Put(ctx, string(key), v); err != nil {
		b.log.Error("store recording failed", Fields{"fn": id.String(), "key": util.ShortKey(string(key)), "err": err})
		b.hooks.PersistFailed(b.path, err)
		return
	}
	b.log.Debug("recorded", Fields{"fn": id.String(), "key": util.ShortKey(string(key)), "raised": isErr})
	b.hooks.Recorded(id.String(), string(key), isErr)
}

func (b *Beatbox) playback(ctx context.Context, id fingerprint.Identity, key fingerprint.CallKey, decode decodeFunc) (any, error) {
	v, ok, err := b.store.Get(ctx, string(key))
	if err != nil {
		return nil, err
	}
	if !ok {
		b.log.Debug("playback miss", Fields{"fn": id.String(), "key": util.ShortKey(string(key))})
		b.hooks.PlaybackMiss(id.String(), string(key))
		return nil, &NoRecordingError{Identity: id.String(), Key: string(key)}
	}
	if ev, ok := raisedValue(v); ok {
		return nil, b.raisedError(ev)
	}
	res, err := decode(v)
	if err != nil {
		derr := &DecodeError{Key: string(key), Err: err}
		b.log.Warn("decode recording failed", Fields{"fn": id.String(), "key": util.ShortKey(string(key)), "err": err})
		b.hooks.DecodeFailed(string(key), derr)
		return nil, derr
	}
	return res, nil
}

// decodeAs decodes recordings into t. Interface types get the native form.
func (b *Beatbox) decodeAs(t reflect.Type) decodeFunc {
	return func(v value.Value) (any, error) {
		rv, err := b.dec.DecodeInto(v, t)
		if err != nil {
			return nil, err
		}
		return rv.Interface(), nil
	}
}

// raisedError rebuilds a stored error. A registered constructor that yields
// no error falls back to RemoteError.
func (b *Beatbox) raisedError(ev value.Error) error {
	if err, ok := b.dec.Decode(ev).(error); ok && err != nil {
		return err
	}
	return &codec.RemoteError{Type: ev.Type, Message: ev.Message}
}

func raised(err error) value.Value {
	return value.Record{Type: RaisedType, Fields: value.Mapping{
		{Key: value.String("error"), Value: codec.Encode(err)},
	}}
}

func raisedValue(v value.Value) (value.Error, bool) {
	r, ok := v.(value.Record)
	if !ok || r.Type != RaisedType {
		return value.Error{}, false
	}
	f, _ := r.Field("error")
	ev, ok := f.(value.Error)
	return ev, ok
}

// errNilFuture is returned when a wrapped async callable hands back nil.
var errNilFuture = errors.New("beatbox: wrapped function returned a nil future")
