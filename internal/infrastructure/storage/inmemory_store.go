package storage

import (
	"context"
	"sync"

	"github.com/storefront/backend/internal/domain/cart"
)

// InMemoryStore implements cart.KeyValueStore using an in-memory map.
// This is suitable for single-instance deployments and testing; contents do
// not survive a restart.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	closed  bool
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string][]byte),
	}
}

// Get returns a copy of the value stored under key
func (s *InMemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	value, ok := s.entries[key]
	if !ok {
		return nil, cart.ErrKeyNotFound
	}
	return cloneBytes(value), nil
}

// Set stores a copy of value under key
func (s *InMemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.entries[key] = cloneBytes(value)
	return nil
}

// Delete removes key
func (s *InMemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	delete(s.entries, key)
	return nil
}

// Close drops all entries. Safe to call multiple times.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.entries = make(map[string][]byte)
	return nil
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Ensure InMemoryStore implements cart.KeyValueStore
var _ cart.KeyValueStore = (*InMemoryStore)(nil)
