package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORSWithConfig(t *testing.T) {
	newRouter := func(cfg CORSConfig) *gin.Engine {
		router := gin.New()
		router.Use(CORSWithConfig(cfg))
		router.GET("/api/v1/cart", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		return router
	}

	t.Run("default config rejects cross-origin requests", func(t *testing.T) {
		w := serve(newRouter(DefaultCORSConfig()), http.MethodGet, "/api/v1/cart",
			map[string]string{"Origin": "http://malicious.example"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allows listed origin and exposes session header", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"http://shop.example"}
		cfg.AllowCredentials = true

		w := serve(newRouter(cfg), http.MethodGet, "/api/v1/cart",
			map[string]string{"Origin": "http://shop.example"})

		assert.Equal(t, "http://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), DefaultSessionHeader)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("wildcard never sends credentials", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"*"}
		cfg.AllowCredentials = true

		w := serve(newRouter(cfg), http.MethodGet, "/api/v1/cart",
			map[string]string{"Origin": "http://any.example"})

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight answers 204", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"http://shop.example"}

		w := serve(newRouter(cfg), http.MethodOptions, "/api/v1/cart",
			map[string]string{"Origin": "http://shop.example"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), DefaultSessionHeader)
	})

	t.Run("preflight from unknown origin still answers 204 without headers", func(t *testing.T) {
		w := serve(newRouter(DefaultCORSConfig()), http.MethodOptions, "/api/v1/cart",
			map[string]string{"Origin": "http://other.example"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestID(t *testing.T) {
	var seenGin, seenCtx string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) {
		seenGin = GetRequestID(c)
		seenCtx = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("generates an ID", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/x", nil)

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, seenGin)
		assert.Equal(t, id, seenCtx)
	})

	t.Run("reuses the client ID", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/x", map[string]string{RequestIDHeader: "client-req-1"})

		assert.Equal(t, "client-req-1", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "client-req-1", seenGin)
	})

	t.Run("replaces an oversized client ID", func(t *testing.T) {
		long := strings.Repeat("x", MaxRequestIDLength+1)
		w := serve(router, http.MethodGet, "/x", map[string]string{RequestIDHeader: long})

		assert.NotEqual(t, long, w.Header().Get(RequestIDHeader))
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})
}

func TestSecure(t *testing.T) {
	router := gin.New()
	router.Use(Secure())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, http.MethodGet, "/x", nil)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
