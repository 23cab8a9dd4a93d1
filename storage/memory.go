package storage

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/beatbox/internal/util"
	"github.com/unkn0wn-root/beatbox/value"
)

// MemoryStore keeps recordings in process only. Useful for tests and for
// sessions that never need to outlive the process.
type MemoryStore struct {
	mu     sync.RWMutex
	recs   map[string]value.Value
	closed bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]value.Value)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (value.Value, bool, error) {
	s.mu.RLock()
	v, ok := s.recs[key]
	s.mu.RUnlock()
	return v, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.recs[key] = v
	return nil
}

// Keys returns the recorded call keys in ascending order.
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return util.SortedKeys(s.recs), nil
}

func (s *MemoryStore) Flush(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
