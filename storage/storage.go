// Package storage persists recordings.
//
// A Store owns one isolated mapping from call key to recorded Value. The
// dispatcher reads and writes it only through these methods, so two stores
// never observe each other's writes.
package storage

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/beatbox/value"
)

// ErrClosed is returned by Put after Close.
var ErrClosed = errors.New("beatbox: store closed")

// Store is a recording store.
// Must be safe for concurrent use.
type Store interface {
	// Get returns (v, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) (value.Value, bool, error)

	// Put upserts a recording. Last write wins per key.
	Put(ctx context.Context, key string, v value.Value) error

	// Flush blocks until every Put that returned before the call is durable.
	Flush(ctx context.Context) error

	// Close flushes and releases resources.
	Close(ctx context.Context) error
}
