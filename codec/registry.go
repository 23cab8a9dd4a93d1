package codec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"sync"
)

// Registry resolves declared type names back to Go types at decode time.
//
// Records whose type is registered decode into that type; others decode into
// map[string]any. Errors resolve to a registered sentinel (matched on type
// and message), then to a registered constructor, then to *RemoteError.
// Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	types     map[string]reflect.Type
	errTypes  map[string]func(msg string) error
	sentinels map[sentinelKey]error
}

type sentinelKey struct{ typ, msg string }

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:     make(map[string]reflect.Type),
		errTypes:  make(map[string]func(string) error),
		sentinels: make(map[sentinelKey]error),
	}
}

// DefaultRegistry returns a registry that already knows the standard library
// sentinels (io.EOF, context.Canceled, fs.ErrNotExist, ...) and the error
// types behind errors.New and fmt.Errorf.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterError(
		io.EOF, io.ErrUnexpectedEOF, io.ErrShortWrite, io.ErrShortBuffer, io.ErrClosedPipe, io.ErrNoProgress,
		context.Canceled, context.DeadlineExceeded,
		fs.ErrInvalid, fs.ErrPermission, fs.ErrExist, fs.ErrNotExist, fs.ErrClosed,
	)
	plain := func(msg string) error { return errors.New(msg) }
	r.RegisterErrorType(TypeName(reflect.TypeOf(errors.New(""))), plain)
	r.RegisterErrorType(TypeName(reflect.TypeOf(fmt.Errorf("%w", io.EOF))), plain)
	r.RegisterErrorType(TypeName(reflect.TypeOf(fmt.Errorf("%w %w", io.EOF, io.EOF))), plain)
	return r
}

// Register makes the types of the given samples constructible at decode
// time. Pointer samples register their element type.
func (r *Registry) Register(samples ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		t := reflect.TypeOf(s)
		if t == nil {
			continue
		}
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		r.types[TypeName(t)] = t
	}
}

// RegisterError registers sentinel errors. A recorded error whose type name
// and message match a sentinel decodes to that exact value, so errors.Is keeps
// working across a playback.
func (r *Registry) RegisterError(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, err := range errs {
		if err == nil {
			continue
		}
		r.sentinels[sentinelKey{TypeName(reflect.TypeOf(err)), err.Error()}] = err
	}
}

// RegisterErrorType registers a constructor for errors recorded under name.
func (r *Registry) RegisterErrorType(name string, ctor func(msg string) error) {
	r.mu.Lock()
	r.errTypes[name] = ctor
	r.mu.Unlock()
}

func (r *Registry) lookupType(name string) (reflect.Type, bool) {
	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()
	return t, ok
}

func (r *Registry) newError(typ, msg string) error {
	r.mu.RLock()
	sentinel, ok := r.sentinels[sentinelKey{typ, msg}]
	ctor := r.errTypes[typ]
	r.mu.RUnlock()
	switch {
	case ok:
		return sentinel
	case ctor != nil:
		return ctor(msg)
	default:
		return &RemoteError{Type: typ, Message: msg}
	}
}
