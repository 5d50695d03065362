package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter int

func (f fixedCounter) Len() int { return int(f) }

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("storefront-cart", "1.0.0", "memory", nil)
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
}

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("storefront-cart", "1.0.0", "redis", fixedCounter(3))
	c, w := newTestContext()

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "redis", data["storage"])
	assert.Equal(t, float64(3), data["active_sessions"])
}

func TestSystemHandler_HealthWithoutCounter(t *testing.T) {
	h := NewSystemHandler("storefront-cart", "1.0.0", "memory", nil)
	c, w := newTestContext()

	h.Health(c)

	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, float64(0), data["active_sessions"])
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("storefront-cart", "1.2.3", "memory", nil)
	c, w := newTestContext()

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "storefront-cart", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ping(t *testing.T) {
	h := NewSystemHandler("storefront-cart", "1.0.0", "memory", nil)
	c, w := newTestContext()

	h.Ping(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "pong", data["message"])

	_, err := time.Parse(time.RFC3339, data["timestamp"].(string))
	require.NoError(t, err)
}
