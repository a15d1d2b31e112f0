package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims carried by service access tokens
type TokenClaims struct {
	jwt.RegisteredClaims
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes,omitempty"`
}

// HasScope reports whether the token grants scope. Tokens without scopes
// grant everything.
func (c *TokenClaims) HasScope(scope string) bool {
	if len(c.Scopes) == 0 {
		return true
	}
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
