package beatbox

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/unkn0wn-root/beatbox/codec"
	"github.com/unkn0wn-root/beatbox/fingerprint"
	"github.com/unkn0wn-root/beatbox/storage"
)

type ctxKey struct{}

func TestWrapPassesContextAndExcludesItFromKey(t *testing.T) {
	spy := newSpyStore()
	bb := newTestBeatbox(t, func(o *Options) { o.Store = spy })

	var seen []string
	lookup := func(ctx context.Context, id int) (string, error) {
		v, _ := ctx.Value(ctxKey{}).(string)
		seen = append(seen, v)
		return "user-" + strconv.Itoa(id), nil
	}
	wrapped := Wrap(bb, lookup, WithName("lookup"))

	bb.SetMode(Record)
	got, err := wrapped(context.WithValue(context.Background(), ctxKey{}, "a"), 7)
	if err != nil || got != "user-7" {
		t.Fatalf("record = %q, %v", got, err)
	}
	if len(seen) != 1 || seen[0] != "a" {
		t.Fatalf("context not passed through: %v", seen)
	}
	keys, _ := spy.Keys(context.Background())
	if len(keys) != 1 || keys[0] != "lookup:[7]" {
		t.Fatalf("keys = %v", keys)
	}

	bb.SetMode(Playback)
	got, err = wrapped(context.WithValue(context.Background(), ctxKey{}, "b"), 7)
	if err != nil || got != "user-7" {
		t.Fatalf("playback with another context = %q, %v", got, err)
	}

	// a nil context is tolerated
	//nolint:staticcheck // exercising nil ctx on purpose
	if _, err := wrapped(nil, 7); err != nil {
		t.Fatalf("nil ctx: %v", err)
	}
}

func TestWrapMultipleResults(t *testing.T) {
	bb := newTestBeatbox(t, nil)
	divmod := func(a, b int) (int, int, error) {
		if b == 0 {
			return 0, 0, errors.New("division by zero")
		}
		return a / b, a % b, nil
	}
	wrapped := Wrap(bb, divmod, WithName("divmod"))

	bb.SetMode(Record)
	q, r, err := wrapped(7, 2)
	if err != nil || q != 3 || r != 1 {
		t.Fatalf("record = %d %d %v", q, r, err)
	}

	bb.SetMode(Playback)
	q, r, err = wrapped(7, 2)
	if err != nil || q != 3 || r != 1 {
		t.Fatalf("playback = %d %d %v", q, r, err)
	}
	if _, _, err := wrapped(1, 0); !errors.Is(err, ErrNoRecording) {
		t.Fatalf("miss = %v", err)
	}
}

func TestWrapNoResults(t *testing.T) {
	bb := newTestBeatbox(t, nil)
	calls := 0
	notify := Wrap(bb, func(msg string) { calls++ }, WithName("notify"))

	bb.SetMode(Record)
	notify("hi")
	bb.SetMode(Playback)
	notify("hi")
	if calls != 1 {
		t.Fatalf("callable ran %d times", calls)
	}
}

func TestWrapNoResultsBypass(t *testing.T) {
	bb := newTestBeatbox(t, nil)
	calls := 0
	notify := Wrap(bb, func(msg string) { calls++ }, WithName("notify"))
	flush := Wrap(bb, func(ctx context.Context) error { calls++; return nil }, WithName("flush"))

	bb.SetMode(Bypass)
	notify("hi")
	notify("hi")
	if err := flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if calls != 3 {
		t.Fatalf("callable ran %d times, want 3", calls)
	}

	bb.SetMode(Playback)
	expectPanic(t, func() { notify("never recorded") })
	if err := flush(context.Background()); !errors.Is(err, ErrNoRecording) {
		t.Fatalf("playback miss = %v", err)
	}
}

func TestWrapVariadic(t *testing.T) {
	bb := newTestBeatbox(t, nil)
	sum := func(base int, xs ...int) int {
		for _, x := range xs {
			base += x
		}
		return base
	}
	wrapped := Wrap(bb, sum, WithName("sum"))

	bb.SetMode(Record)
	if got := wrapped(1, 2, 3); got != 6 {
		t.Fatalf("got %d", got)
	}
	bb.SetMode(Playback)
	if got := wrapped(1, 2, 3); got != 6 {
		t.Fatalf("got %d", got)
	}
	expectPanic(t, func() { wrapped(1, 2) })
}

type point struct{ X, Y int }

func TestWrapStructResults(t *testing.T) {
	bb := newTestBeatbox(t, nil)
	mid := func(a, b point) (*point, error) {
		return &point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}, nil
	}
	wrapped := Wrap(bb, mid, WithName("mid"))

	bb.SetMode(Record)
	if _, err := wrapped(point{0, 0}, point{4, 6}); err != nil {
		t.Fatal(err)
	}
	bb.SetMode(Playback)
	got, err := wrapped(point{0, 0}, point{4, 6})
	if err != nil || got == nil || *got != (point{2, 3}) {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestWrapNamedFuncType(t *testing.T) {
	type adder func(a, b int) int
	bb := newTestBeatbox(t, nil)
	var f adder = syncAdd
	wrapped := Wrap(bb, f)

	bb.SetMode(Record)
	if wrapped(1, 2) != 3 {
		t.Fatalf("record result wrong")
	}
	bb.SetMode(Playback)
	if wrapped(1, 2) != 3 {
		t.Fatalf("playback result wrong")
	}
}

func TestWrapPanicsOnNonFunc(t *testing.T) {
	bb := newTestBeatbox(t, nil)
	expectPanic(t, func() { Wrap(bb, 42) })
	var nilFn func()
	expectPanic(t, func() { Wrap(bb, nilFn) })
}

func TestClosurePolicyByLiteral(t *testing.T) {
	bb := newTestBeatbox(t, func(o *Options) { o.ClosurePolicy = fingerprint.ClosuresByLiteral })
	first := Wrap(bb, func(x int) int { return x * 10 })
	second := Wrap(bb, func(x int) int { return x * 100 })

	bb.SetMode(Record)
	first(1)
	bb.SetMode(Playback)
	expectPanic(t, func() { second(1) })
	if first(1) != 10 {
		t.Fatalf("literal identity not stable")
	}
}

func TestWithIdentity(t *testing.T) {
	bb := newTestBeatbox(t, nil)
	a := Wrap(bb, func1, WithIdentity(fingerprint.Anonymous))
	b := Wrap(bb, func2, WithIdentity(fingerprint.Anonymous))

	bb.SetMode(Record)
	a(1)
	bb.SetMode(Playback)
	if got := b(1); got != 2 {
		t.Fatalf("shared identity should replay func1's result, got %d", got)
	}
}

func TestDoAndInvoke(t *testing.T) {
	ctx := context.Background()
	bb, err := New(Options{Store: storage.NewMemoryStore()})
	if err != nil {
		t.Fatal(err)
	}

	call := Call{
		Identity: fingerprint.Named("search"),
		Args:     []any{"go"},
		Kwargs:   map[string]any{"limit": 10, "lang": "en"},
	}
	calls := 0
	fn := func(context.Context) (any, error) {
		calls++
		return map[string]any{"Hits": []string{"a", "b"}}, nil
	}

	bb.SetMode(Record)
	if _, err := bb.Do(ctx, call, fn); err != nil {
		t.Fatal(err)
	}

	bb.SetMode(Playback)
	reordered := Call{
		Identity: fingerprint.Named("search"),
		Args:     []any{"go"},
		Kwargs:   map[string]any{"lang": "en", "limit": 10},
	}
	got, err := bb.Do(ctx, reordered, fn)
	if err != nil {
		t.Fatalf("playback: %v", err)
	}
	hits := got.(map[string]any)["Hits"].([]any)
	if len(hits) != 2 || hits[0] != "a" {
		t.Fatalf("hits = %#v", hits)
	}

	typed, err := Invoke(ctx, bb, reordered, func(context.Context) (struct{ Hits []string }, error) {
		calls++
		return struct{ Hits []string }{}, nil
	})
	if err != nil || len(typed.Hits) != 2 || typed.Hits[1] != "b" {
		t.Fatalf("Invoke = %#v, %v", typed, err)
	}
	if calls != 1 {
		t.Fatalf("callable ran %d times", calls)
	}

	bb.SetMode("nope")
	if _, err := Invoke(ctx, bb, call, func(context.Context) (int, error) { return 1, nil }); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("Invoke invalid mode = %v", err)
	}
}

func TestInvokeReturnsOriginalInRecord(t *testing.T) {
	ctx := context.Background()
	bb, _ := New(Options{Store: storage.NewMemoryStore(), Mode: Record})
	orig := &point{1, 2}
	got, err := Invoke(ctx, bb, Call{Identity: fingerprint.Named("p")}, func(context.Context) (*point, error) {
		return orig, nil
	})
	if err != nil || got != orig {
		t.Fatalf("record must return the callable's own value")
	}
}

func TestFutureHelpers(t *testing.T) {
	ctx := context.Background()
	f := Resolved(3, nil)
	select {
	case <-f.Done():
	default:
		t.Fatalf("Resolved must be settled")
	}
	if v, err := f.Await(ctx); v != 3 || err != nil {
		t.Fatalf("Await = %d %v", v, err)
	}

	block := make(chan struct{})
	slow := Go(func() (int, error) { <-block; return 1, nil })
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := slow.Await(cctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Await on canceled ctx = %v", err)
	}
	close(block)
	if v, err := slow.Await(ctx); v != 1 || err != nil {
		t.Fatalf("Await = %d %v", v, err)
	}
}

func TestAsyncRecordSettlesAfterStore(t *testing.T) {
	ctx := context.Background()
	spy := newSpyStore()
	bb := newTestBeatbox(t, func(o *Options) { o.Store = spy; o.Mode = Record })
	release := make(chan struct{})
	slow := Wrap(bb, func(x int) *Future[codec.Tuple] {
		return Go(func() (codec.Tuple, error) {
			<-release
			return codec.Tuple{x, "done"}, nil
		})
	}, WithName("slow"))

	f := slow(1)
	if _, p := spy.counts(); p != 0 {
		t.Fatalf("recorded before the callable settled")
	}
	close(release)
	got, err := f.Await(ctx)
	if err != nil || len(got) != 2 {
		t.Fatalf("Await = %v %v", got, err)
	}
	if _, p := spy.counts(); p != 1 {
		t.Fatalf("future settled before the recording was stored")
	}

	bb.SetMode(Playback)
	got, err = slow(1).Await(ctx)
	if err != nil || len(got) != 2 || got[1] != "done" {
		t.Fatalf("playback = %#v %v", got, err)
	}
}

func TestAsyncNilFuture(t *testing.T) {
	bb := newTestBeatbox(t, func(o *Options) { o.Mode = Record })
	wrapped := Wrap(bb, func() *Future[int] { return nil }, WithName("nil"))
	if _, err := wrapped().Await(context.Background()); err == nil {
		t.Fatalf("expected error for nil future")
	}
}
