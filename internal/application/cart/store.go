package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// State is an immutable snapshot of a cart store.
type State struct {
	Items    cart.Items
	IsOpen   bool
	Quantity int
}

// ChangeHook is invoked after every state transition with the new snapshot.
// Hooks run on the mutating goroutine while the store is locked and must not
// call back into the store.
type ChangeHook func(ctx context.Context, state State)

// Mutation operations, as reported to Metrics
const (
	opIncrease = "increase"
	opDecrease = "decrease"
	opRemove   = "remove"
	opClear    = "clear"
)

// Store is the single source of truth for one shopper's cart contents and
// cart panel visibility. Contents are loaded once on construction and written
// through to storage on every change; visibility is transient.
//
// If the initial read fails for any reason other than a missing or malformed
// entry, the store starts empty but unloaded: the next mutation reads storage
// again before writing, so the persisted cart is never overwritten by one the
// store never saw.
type Store struct {
	mu     sync.Mutex
	items  cart.Items
	isOpen bool
	loaded bool

	kv      cart.KeyValueStore
	key     string
	logger  *zap.Logger
	hooks   []ChangeHook
	metrics *Metrics
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithStorageKey overrides the key the cart is persisted under
func WithStorageKey(key string) StoreOption {
	return func(s *Store) {
		s.key = key
	}
}

// WithLogger sets the logger used for load diagnostics
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// WithMetrics records mutation outcomes on m
func WithMetrics(m *Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithChangeHook registers a hook called after each state transition
func WithChangeHook(hook ChangeHook) StoreOption {
	return func(s *Store) {
		s.hooks = append(s.hooks, hook)
	}
}

// NewStore creates a store backed by kv and loads the persisted cart.
// Construction never fails: a missing key, unreadable storage, or malformed
// data all start the store with an empty cart. The read is not cut short by
// cancellation of ctx.
func NewStore(ctx context.Context, kv cart.KeyValueStore, opts ...StoreOption) *Store {
	s := &Store{
		kv:     kv,
		key:    cart.DefaultStorageKey,
		logger: zap.NewNop(),
		items:  cart.Items{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if items, err := s.load(context.WithoutCancel(ctx)); err == nil {
		s.items = items
		s.loaded = true
	}
	return s
}

// load reads the persisted cart. Only a failed read is returned as an error;
// a missing or malformed entry yields an empty cart.
func (s *Store) load(ctx context.Context) (cart.Items, error) {
	log := logger.WithLogger(ctx, s.logger).With(zap.String("storage_key", s.key))

	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, cart.ErrKeyNotFound) {
			log.Debug("no persisted cart, starting empty")
			return cart.Items{}, nil
		}
		log.Error("failed to read persisted cart, starting empty", zap.Error(err))
		return nil, err
	}

	items, err := cart.Decode(data)
	if err != nil {
		log.Warn("discarding malformed persisted cart", zap.Error(err), zap.Int("bytes", len(data)))
		return cart.Items{}, nil
	}

	log.Debug("loaded persisted cart",
		zap.Int("items", len(items)),
		zap.Int("quantity", items.TotalQuantity()),
	)
	return items, nil
}

// Loaded reports whether the persisted cart has been read successfully
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// GetItemQuantity returns the quantity of item id, or 0 if absent
func (s *Store) GetItemQuantity(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Quantity(id)
}

// CartItems returns a copy of the current cart contents
func (s *Store) CartItems() cart.Items {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

// CartQuantity returns the total number of units in the cart.
// It is derived from the contents on every call.
func (s *Store) CartQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.TotalQuantity()
}

// IsOpen reports whether the cart panel is shown
func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// IncreaseCartQuantity adds one unit of item id
func (s *Store) IncreaseCartQuantity(ctx context.Context, id int) error {
	return s.update(ctx, opIncrease, func(items cart.Items) (cart.Items, bool) {
		next := items.Increase(id)
		return next, next.Quantity(id) != items.Quantity(id)
	})
}

// DecreaseCartQuantity removes one unit of item id; absent ids are ignored
func (s *Store) DecreaseCartQuantity(ctx context.Context, id int) error {
	return s.update(ctx, opDecrease, func(items cart.Items) (cart.Items, bool) {
		if !items.Contains(id) {
			return items, false
		}
		return items.Decrease(id), true
	})
}

// RemoveFromCart drops item id entirely; absent ids are ignored
func (s *Store) RemoveFromCart(ctx context.Context, id int) error {
	return s.update(ctx, opRemove, func(items cart.Items) (cart.Items, bool) {
		if !items.Contains(id) {
			return items, false
		}
		return items.Remove(id), true
	})
}

// Clear empties the cart and deletes the persisted entry
func (s *Store) Clear(ctx context.Context) error {
	return s.update(ctx, opClear, func(cart.Items) (cart.Items, bool) {
		return cart.Items{}, true
	})
}

// OpenCart shows the cart panel
func (s *Store) OpenCart(ctx context.Context) {
	s.setOpen(ctx, true)
}

// CloseCart hides the cart panel
func (s *Store) CloseCart(ctx context.Context) {
	s.setOpen(ctx, false)
}

// update applies fn to the current contents and writes the result through to
// storage. A transition fn reports as unchanged is a no-op and writes nothing.
// On a failed write the new contents are kept in memory and the error is
// returned. An unloaded store reads storage first and fails without writing
// if that read fails again.
func (s *Store) update(ctx context.Context, op string, fn func(cart.Items) (cart.Items, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadLocked(ctx); err != nil {
		s.metrics.recordMutation(ctx, op, OutcomeFailed)
		return err
	}

	next, changed := fn(s.items)
	if !changed {
		s.metrics.recordMutation(ctx, op, OutcomeUnchanged)
		return nil
	}
	s.items = next

	err := s.persistLocked(ctx, op)
	if err != nil {
		s.metrics.recordMutation(ctx, op, OutcomeFailed)
	} else {
		s.metrics.recordMutation(ctx, op, OutcomeChanged)
	}
	s.notify(ctx, s.snapshotLocked())
	return err
}

func (s *Store) reloadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	items, err := s.load(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	s.items = items
	s.loaded = true
	return nil
}

func (s *Store) persistLocked(ctx context.Context, op string) error {
	var err error
	if op == opClear {
		err = s.kv.Delete(ctx, s.key)
	} else {
		var data []byte
		if data, err = cart.Encode(s.items); err != nil {
			return err
		}
		err = s.kv.Set(ctx, s.key, data)
	}
	if err != nil {
		logger.WithLogger(ctx, s.logger).Error("failed to persist cart",
			zap.String("storage_key", s.key),
			zap.String("operation", op),
			zap.Error(err),
		)
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}

func (s *Store) setOpen(ctx context.Context, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isOpen == open {
		return
	}
	s.isOpen = open
	s.notify(ctx, s.snapshotLocked())
}

func (s *Store) snapshotLocked() State {
	return State{
		Items:    s.items.Clone(),
		IsOpen:   s.isOpen,
		Quantity: s.items.TotalQuantity(),
	}
}

func (s *Store) notify(ctx context.Context, state State) {
	for _, hook := range s.hooks {
		hook(ctx, state)
	}
}
