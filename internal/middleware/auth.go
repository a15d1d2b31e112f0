package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

// ClientIDKey is the gin context key holding the authenticated client id
const ClientIDKey = "client_id"

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// AuthMiddleware creates a middleware that validates bearer tokens and,
// when scope is non-empty, requires the token to grant it.
func AuthMiddleware(validator TokenValidator, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if scope != "" && !claims.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token does not grant " + scope})
			return
		}

		c.Set(ClientIDKey, claims.ClientID)
		c.Next()
	}
}

// ClientID returns the authenticated client id, or "" when auth is disabled
func ClientID(c *gin.Context) string {
	return c.GetString(ClientIDKey)
}
