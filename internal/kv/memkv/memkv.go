// Package memkv is an in-memory kv.Store for tests and single-process development.
package memkv

import (
	"context"
	"sync"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/kv"
)

type item struct {
	value     []byte
	expiresAt time.Time
}

// Store is a mutex-guarded map with optional expiry.
type Store struct {
	mu    sync.Mutex
	items map[string]item
	now   func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{items: make(map[string]item), now: time.Now}
}

// NewWithClock creates an empty store whose expiry uses now.
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

// Get implements kv.Store.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	if !it.expiresAt.IsZero() && !s.now().Before(it.expiresAt) {
		delete(s.items, key)
		return nil, kv.ErrNotFound
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Set implements kv.Store.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := item{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = s.now().Add(ttl)
	}
	s.items[key] = it
	return nil
}

// Clear implements kv.Store.
func (s *Store) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len reports the number of stored keys, including expired ones not yet read.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Failing is a kv.Store whose every operation returns Err.
// It stands in for unavailable storage in tests.
type Failing struct {
	Err error
}

// Get implements kv.Store.
func (f Failing) Get(context.Context, string) ([]byte, error) { return nil, f.Err }

// Set implements kv.Store.
func (f Failing) Set(context.Context, string, []byte, time.Duration) error { return f.Err }

// Clear implements kv.Store.
func (f Failing) Clear(context.Context, string) error { return f.Err }

var (
	_ kv.Store = (*Store)(nil)
	_ kv.Store = Failing{}
)
