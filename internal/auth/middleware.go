package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const bearerPrefix = "Bearer "

// tokenCheck compares presented tokens against a bcrypt hash. The last token
// that matched is remembered so bcrypt runs once per token, not per request.
type tokenCheck struct {
	hash []byte

	mu       sync.Mutex
	verified []byte
}

func (t *tokenCheck) ok(token string) bool {
	t.mu.Lock()
	known := t.verified
	t.mu.Unlock()
	if known != nil && subtle.ConstantTimeCompare(known, []byte(token)) == 1 {
		return true
	}
	if bcrypt.CompareHashAndPassword(t.hash, []byte(token)) != nil {
		return false
	}
	t.mu.Lock()
	t.verified = []byte(token)
	t.mu.Unlock()
	return true
}

// RequireToken returns a middleware that checks the Authorization bearer token
// against a bcrypt hash. If missing or invalid, responds with 401.
// An empty hash disables the check.
func RequireToken(hash string) gin.HandlerFunc {
	if hash == "" {
		return func(c *gin.Context) { c.Next() }
	}
	check := &tokenCheck{hash: []byte(hash)}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if token == "" || !check.ok(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		c.Next()
	}
}

// HashToken returns the bcrypt hash to put in API_TOKEN_HASH.
func HashToken(token string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), 10)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
