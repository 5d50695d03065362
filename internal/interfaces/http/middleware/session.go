package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultSessionHeader carries the cart session ID
const DefaultSessionHeader = "X-Cart-Session"

// SessionIDKey is the gin context key for the cart session ID
const SessionIDKey = "cart_session_id"

// Session resolves the cart session for each request. A request without the
// header starts a new session; its ID is returned in the same header so the
// client can send it back. Header values are passed on unchecked and the cart
// service rejects unusable ones.
func Session(header string) gin.HandlerFunc {
	if header == "" {
		header = DefaultSessionHeader
	}
	return func(c *gin.Context) {
		sessionID := c.GetHeader(header)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		c.Set(SessionIDKey, sessionID)
		c.Writer.Header().Set(header, sessionID)
		c.Next()
	}
}

// GetSessionID returns the session ID resolved by Session
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
