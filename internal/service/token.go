package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

const tokenIssuer = "alchemorsel-gateway"

// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and validates HS256 service tokens
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// GenerateToken signs a token for clientID valid for ttl
func (s *TokenService) GenerateToken(clientID string, scopes []string, ttl time.Duration) (string, error) {
	if clientID == "" {
		return "", errors.New("client id is required")
	}
	now := s.now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ClientID: clientID,
		Scopes:   scopes,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token
func (s *TokenService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client id", ErrInvalidToken)
	}
	return claims, nil
}
