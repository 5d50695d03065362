package cart

import (
	"context"

	"github.com/storefront/backend/internal/domain/cart"
)

// SessionStorage is a view of a shared KeyValueStore in which every key is
// prefixed with a session id. Closing it leaves the shared store open.
type SessionStorage struct {
	kv     cart.KeyValueStore
	prefix string
}

// NewSessionStorage scopes kv to sessionID
func NewSessionStorage(kv cart.KeyValueStore, sessionID string) *SessionStorage {
	return &SessionStorage{
		kv:     kv,
		prefix: sessionID + ":",
	}
}

// Key returns the key that key maps to in the shared store
func (s *SessionStorage) Key(key string) string {
	return s.prefix + key
}

// Get implements cart.KeyValueStore
func (s *SessionStorage) Get(ctx context.Context, key string) ([]byte, error) {
	return s.kv.Get(ctx, s.Key(key))
}

// Set implements cart.KeyValueStore
func (s *SessionStorage) Set(ctx context.Context, key string, value []byte) error {
	return s.kv.Set(ctx, s.Key(key), value)
}

// Delete implements cart.KeyValueStore
func (s *SessionStorage) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, s.Key(key))
}

// Close implements cart.KeyValueStore. The shared store is owned by whoever
// created it.
func (s *SessionStorage) Close() error {
	return nil
}

var _ cart.KeyValueStore = (*SessionStorage)(nil)
