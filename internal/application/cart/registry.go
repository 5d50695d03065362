package cart

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MaxSessionIDLength bounds session identifiers accepted by the registry
const MaxSessionIDLength = 128

// Registry defaults
const (
	DefaultMaxSessions = 10000
	DefaultSessionTTL  = 30 * time.Minute
)

// ErrInvalidSession is returned for empty or oversized session identifiers
var ErrInvalidSession = shared.NewDomainError("INVALID_SESSION", "Cart session identifier is invalid")

// Registry owns one Store per shopper session. It is built once at the
// application root and handed to whatever needs cart access.
//
// Every session's store persists under the same fixed key, scoped to the
// session through a namespaced view of the shared key-value store.
//
// Stores are held for at most maxSessions sessions and dropped after ttl
// without an Acquire. A dropped session is released: its persisted cart is
// kept and loaded again on the next Acquire. Because each store caches its
// cart after loading, a session must be served by a single registry at a
// time.
type Registry struct {
	mu     sync.Mutex
	stores *expirable.LRU[string, *Store]
	loads  singleflight.Group

	kv          cart.KeyValueStore
	key         string
	logger      *zap.Logger
	hooks       []SessionHook
	metrics     *Metrics
	maxSessions int
	ttl         time.Duration
}

// SessionHook is a ChangeHook that also receives the session the store
// belongs to
type SessionHook func(ctx context.Context, sessionID string, state State)

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger handed to every store
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithRegistryStorageKey overrides the per-session storage key
func WithRegistryStorageKey(key string) RegistryOption {
	return func(r *Registry) {
		r.key = key
	}
}

// WithSessionHook registers a change hook on every store the registry creates
func WithSessionHook(hook SessionHook) RegistryOption {
	return func(r *Registry) {
		r.hooks = append(r.hooks, hook)
	}
}

// WithRegistryMetrics records mutations and the live session count on m
func WithRegistryMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithSessionLimits bounds the number of live stores and how long an idle one
// is kept. Zero keeps the default.
func WithSessionLimits(maxSessions int, ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if maxSessions > 0 {
			r.maxSessions = maxSessions
		}
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// NewRegistry creates a registry over the shared key-value store
func NewRegistry(kv cart.KeyValueStore, opts ...RegistryOption) *Registry {
	r := &Registry{
		kv:          kv,
		key:         cart.DefaultStorageKey,
		logger:      zap.NewNop(),
		maxSessions: DefaultMaxSessions,
		ttl:         DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.stores = expirable.NewLRU[string, *Store](r.maxSessions, func(sessionID string, _ *Store) {
		r.logger.Debug("cart session released", zap.String("session_id", sessionID))
	}, r.ttl)

	if r.metrics != nil {
		if err := r.metrics.observeSessions(r); err != nil {
			r.logger.Warn("cart session gauge unavailable", zap.Error(err))
		}
	}
	return r
}

// Acquire returns the store for sessionID, creating and loading it on first
// use. Concurrent first calls for one session share a single load. A store
// whose load failed is returned but not kept, so the next Acquire reads
// storage again.
func (r *Registry) Acquire(ctx context.Context, sessionID string) (*Store, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	if s, ok := r.lookup(sessionID); ok {
		return s, nil
	}

	v, _, _ := r.loads.Do(sessionID, func() (any, error) {
		if s, ok := r.lookup(sessionID); ok {
			return s, nil
		}

		s := NewStore(ctx, NewSessionStorage(r.kv, sessionID), r.storeOptions(sessionID)...)
		if s.Loaded() {
			r.mu.Lock()
			r.stores.Add(sessionID, s)
			r.mu.Unlock()
		}
		return s, nil
	})
	return v.(*Store), nil
}

// lookup returns the live store for sessionID and restarts its idle timer
func (r *Registry) lookup(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores.Get(sessionID)
	if ok {
		r.stores.Add(sessionID, s)
	}
	return s, ok
}

func (r *Registry) storeOptions(sessionID string) []StoreOption {
	opts := []StoreOption{
		WithStorageKey(r.key),
		WithLogger(r.logger.With(zap.String("session_id", sessionID))),
		WithMetrics(r.metrics),
	}
	for _, hook := range r.hooks {
		opts = append(opts, WithChangeHook(func(ctx context.Context, state State) {
			hook(ctx, sessionID, state)
		}))
	}
	return opts
}

// Release tears down the store for sessionID. Persisted contents are kept and
// are loaded again by the next Acquire.
func (r *Registry) Release(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores.Remove(sessionID)
}

// Len returns the number of live stores
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores.Len()
}

// ValidateSessionID checks that id is usable as a session identifier
func ValidateSessionID(id string) error {
	if id == "" || len(id) > MaxSessionIDLength {
		return ErrInvalidSession
	}
	return nil
}
