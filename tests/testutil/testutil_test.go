package testutil

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	assert.NotNil(t, mockDB.SqlDB)
}

func TestMockDB_ExpectationsWereMet(t *testing.T) {
	mockDB := NewMockDB(t)

	mockDB.ExpectationsWereMet(t)
}

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewSessionID())
}

func TestDo_SendsSession(t *testing.T) {
	router := gin.New()
	router.GET("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetHeader(middleware.DefaultSessionHeader))
	})

	w := Do(router, http.MethodGet, "/echo", "abc")
	assert.Equal(t, "abc", w.Body.String())

	w = Do(router, http.MethodGet, "/echo", "")
	assert.Empty(t, w.Body.String())
}

func TestDecodeResponse(t *testing.T) {
	router := gin.New()
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"cart_quantity": 3}})
	})

	w := Do(router, http.MethodGet, "/ok", "")
	env := DecodeResponse[struct {
		CartQuantity int `json:"cart_quantity"`
	}](t, w)

	assert.True(t, env.Success)
	assert.Equal(t, 3, env.Data.CartQuantity)
	assert.Nil(t, env.Error)
}

func TestAssertErrorResponse(t *testing.T) {
	router := gin.New()
	router.GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "ERR_VALIDATION", "message": "bad"},
		})
	})

	AssertErrorResponse(t, Do(router, http.MethodGet, "/fail", ""), http.StatusBadRequest, "ERR_VALIDATION")
}
