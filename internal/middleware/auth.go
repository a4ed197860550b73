// Package middleware provides the gin middleware for the API: JWT
// authentication and per-identity rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mvicentini/dispensa/internal/auth"
)

const claimsKey = "auth_claims"

// JWT returns a middleware that requires a valid bearer token and stores its
// claims on the request context. Handlers read the identity back via
// GetClaims and pass it explicitly into the engine; nothing downstream
// touches ambient auth state.
func JWT(mgr *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			// Browsers cannot set headers on websocket upgrades; accept the
			// token as a query parameter there.
			header = "Bearer " + c.Query("token")
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			return
		}

		claims, err := mgr.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// GetClaims returns the verified claims stored by the JWT middleware.
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
