package cart

import (
	"context"

	"github.com/storefront/backend/internal/domain/shared"
)

// ErrKeyNotFound is returned by KeyValueStore.Get when nothing is stored
// under the requested key.
var ErrKeyNotFound = shared.NewDomainError("STORAGE_KEY_NOT_FOUND", "No value stored for key")

// KeyValueStore is the durable slot the cart is persisted in.
// Implementations: in-memory (tests, single instance), Redis, and a SQL table
// through GORM (PostgreSQL or SQLite).
type KeyValueStore interface {
	// Get returns the value stored under key, or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources
	Close() error
}
