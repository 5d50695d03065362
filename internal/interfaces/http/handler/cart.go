package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CartHandler handles the cart API for the session resolved by the Session
// middleware
type CartHandler struct {
	BaseHandler
	cartService *cartapp.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// Get returns the session's cart
// GET /cart
func (h *CartHandler) Get(c *gin.Context) {
	resp, err := h.cartService.Get(c.Request.Context(), middleware.GetSessionID(c))
	h.respond(c, resp, err)
}

// ItemQuantity returns the quantity of one item
// GET /cart/items/:id
func (h *CartHandler) ItemQuantity(c *gin.Context) {
	id, ok := h.bindItem(c)
	if !ok {
		return
	}

	resp, err := h.cartService.ItemQuantity(c.Request.Context(), middleware.GetSessionID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Increase adds one unit of an item
// POST /cart/items/:id/increase
func (h *CartHandler) Increase(c *gin.Context) {
	h.itemAction(c, h.cartService.Increase)
}

// Decrease removes one unit of an item
// POST /cart/items/:id/decrease
func (h *CartHandler) Decrease(c *gin.Context) {
	h.itemAction(c, h.cartService.Decrease)
}

// Remove drops an item from the cart
// DELETE /cart/items/:id
func (h *CartHandler) Remove(c *gin.Context) {
	h.itemAction(c, h.cartService.Remove)
}

// Open shows the cart panel
// POST /cart/open
func (h *CartHandler) Open(c *gin.Context) {
	resp, err := h.cartService.Open(c.Request.Context(), middleware.GetSessionID(c))
	h.respond(c, resp, err)
}

// Close hides the cart panel
// POST /cart/close
func (h *CartHandler) Close(c *gin.Context) {
	resp, err := h.cartService.Close(c.Request.Context(), middleware.GetSessionID(c))
	h.respond(c, resp, err)
}

// Clear empties the cart
// DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	resp, err := h.cartService.Clear(c.Request.Context(), middleware.GetSessionID(c))
	h.respond(c, resp, err)
}

// EndSession releases the session's in-memory store. The persisted cart is
// kept and reloaded by the session's next request.
// DELETE /cart/session
func (h *CartHandler) EndSession(c *gin.Context) {
	if err := h.cartService.EndSession(middleware.GetSessionID(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"released": true})
}

type itemFunc func(ctx context.Context, sessionID string, id int) (*cartapp.CartResponse, error)

func (h *CartHandler) itemAction(c *gin.Context, fn itemFunc) {
	id, ok := h.bindItem(c)
	if !ok {
		return
	}

	resp, err := fn(c.Request.Context(), middleware.GetSessionID(c), id)
	h.respond(c, resp, err)
}

// bindItem parses the :id route parameter. It writes the 400 response itself
// and reports false when the parameter is unusable.
func (h *CartHandler) bindItem(c *gin.Context) (int, bool) {
	var req cartapp.ItemRequest
	if err := c.ShouldBindUri(&req); err != nil {
		details := middleware.ValidationDetails(err)
		if details == nil {
			details = []dto.ValidationDetail{{Field: "id", Message: "Must be an integer"}}
		}
		h.ValidationError(c, details)
		return 0, false
	}
	return req.ID, true
}

func (h *CartHandler) respond(c *gin.Context, resp *cartapp.CartResponse, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
