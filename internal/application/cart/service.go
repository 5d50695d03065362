package cart

import (
	"context"
)

// CartService exposes the cart operations for one session at a time.
// It resolves the session's store through the registry it was built with.
type CartService struct {
	registry *Registry
}

// NewCartService creates a new CartService
func NewCartService(registry *Registry) *CartService {
	return &CartService{
		registry: registry,
	}
}

// Get returns the session's cart
func (s *CartService) Get(ctx context.Context, sessionID string) (*CartResponse, error) {
	store, err := s.registry.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return respond(store), nil
}

// ItemQuantity returns the quantity of one item in the session's cart
func (s *CartService) ItemQuantity(ctx context.Context, sessionID string, id int) (*ItemQuantityResponse, error) {
	store, err := s.registry.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &ItemQuantityResponse{
		ID:       id,
		Quantity: store.GetItemQuantity(id),
	}, nil
}

// Increase adds one unit of item id
func (s *CartService) Increase(ctx context.Context, sessionID string, id int) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(store *Store) error {
		return store.IncreaseCartQuantity(ctx, id)
	})
}

// Decrease removes one unit of item id
func (s *CartService) Decrease(ctx context.Context, sessionID string, id int) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(store *Store) error {
		return store.DecreaseCartQuantity(ctx, id)
	})
}

// Remove drops item id from the cart
func (s *CartService) Remove(ctx context.Context, sessionID string, id int) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(store *Store) error {
		return store.RemoveFromCart(ctx, id)
	})
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, sessionID string) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(store *Store) error {
		return store.Clear(ctx)
	})
}

// Open shows the cart panel
func (s *CartService) Open(ctx context.Context, sessionID string) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(store *Store) error {
		store.OpenCart(ctx)
		return nil
	})
}

// Close hides the cart panel
func (s *CartService) Close(ctx context.Context, sessionID string) (*CartResponse, error) {
	return s.mutate(ctx, sessionID, func(store *Store) error {
		store.CloseCart(ctx)
		return nil
	})
}

// EndSession releases the session's store. Persisted contents survive.
func (s *CartService) EndSession(sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	s.registry.Release(sessionID)
	return nil
}

func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(*Store) error) (*CartResponse, error) {
	store, err := s.registry.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(store); err != nil {
		return nil, err
	}
	return respond(store), nil
}

func respond(store *Store) *CartResponse {
	resp := ToCartResponse(store.Snapshot())
	return &resp
}
