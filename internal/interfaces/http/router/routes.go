package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/handler"
)

// CartRoutes builds the /cart group. session resolves the cart session and
// must run before any cart handler.
func CartRoutes(h *handler.CartHandler, session gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("cart", "/cart").
		Use(session).
		GET("", h.Get).
		DELETE("", h.Clear).
		POST("/open", h.Open).
		POST("/close", h.Close).
		DELETE("/session", h.EndSession).
		GET("/items/:id", h.ItemQuantity).
		POST("/items/:id/increase", h.Increase).
		POST("/items/:id/decrease", h.Decrease).
		DELETE("/items/:id", h.Remove)
}

// SystemRoutes builds the /system group
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/ping", h.Ping).
		GET("/info", h.GetSystemInfo)
}
