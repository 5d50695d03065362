package cart

import "github.com/storefront/backend/internal/domain/cart"

// CartItemResponse is one line of the cart
type CartItemResponse struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

// CartResponse is the cart as seen by a consumer
type CartResponse struct {
	Items        []CartItemResponse `json:"items"`
	CartQuantity int                `json:"cart_quantity"`
	IsOpen       bool               `json:"is_open"`
}

// ItemQuantityResponse answers a single-item quantity lookup
type ItemQuantityResponse struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

// ItemRequest identifies a cart item by its product id in the route
type ItemRequest struct {
	ID int `uri:"id" binding:"gte=0"`
}

// ToCartResponse converts a store snapshot to a response
func ToCartResponse(state State) CartResponse {
	return CartResponse{
		Items:        ToCartItemResponses(state.Items),
		CartQuantity: state.Quantity,
		IsOpen:       state.IsOpen,
	}
}

// ToCartItemResponses converts cart items to responses.
// An empty cart yields an empty slice so it serializes as [].
func ToCartItemResponses(items cart.Items) []CartItemResponse {
	responses := make([]CartItemResponse, len(items))
	for i, item := range items {
		responses[i] = CartItemResponse{
			ID:       item.ID,
			Quantity: item.Quantity,
		}
	}
	return responses
}
