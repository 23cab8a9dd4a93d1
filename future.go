package beatbox

import (
	"context"
	"reflect"
	"sync"
)

// Future is the result of an asynchronous callable. A function returning a
// single *Future[T] is wrapped as async: Record stores the result once the
// future settles and Playback hands back an already settled future.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// Go runs fn in a new goroutine and returns its future.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		v, err := fn()
		f.settle(v, err)
	}()
	return f
}

// Resolved returns a future that is already settled.
func Resolved[T any](v T, err error) *Future[T] {
	f := newFuture[T]()
	f.settle(v, err)
	return f
}

func newFuture[T any]() *Future[T] {
	f := &Future[T]{}
	f.init()
	return f
}

// Await blocks until the future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

func (f *Future[T]) settle(v T, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}

// awaitable lets the reflective wrapper drive a *Future[T] without knowing T.
type awaitable interface {
	init()
	awaitAny(ctx context.Context) (any, error)
	settleAny(v any, err error)
	resultType() reflect.Type
}

var awaitableType = reflect.TypeOf((*awaitable)(nil)).Elem()

func (f *Future[T]) init() { f.done = make(chan struct{}) }

func (f *Future[T]) awaitAny(ctx context.Context) (any, error) { return f.Await(ctx) }

func (f *Future[T]) settleAny(v any, err error) {
	t, _ := v.(T)
	f.settle(t, err)
}

func (f *Future[T]) resultType() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }
