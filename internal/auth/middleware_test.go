package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(hash string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/books", RequireToken(hash), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, header string) int {
	req := httptest.NewRequest(http.MethodPost, "/books", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireToken(t *testing.T) {
	hash, err := HashToken("s3cret")
	require.NoError(t, err)
	r := newEngine(hash)

	assert.Equal(t, http.StatusUnauthorized, do(r, ""))
	assert.Equal(t, http.StatusUnauthorized, do(r, "Basic s3cret"))
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer wrong"))
	assert.Equal(t, http.StatusNoContent, do(r, "Bearer s3cret"))
	// served from the verified-token memo
	assert.Equal(t, http.StatusNoContent, do(r, "Bearer s3cret"))
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer s3cret2"))
}

func TestRequireTokenDisabled(t *testing.T) {
	assert.Equal(t, http.StatusNoContent, do(newEngine(""), ""))
}
