// Package auth verifies the bearer tokens issued by the external auth
// service. Tokens are HS256 JWTs whose subject is the user's UUID.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService validates and, for tooling and tests, issues access tokens.
type JWTService interface {
	// ValidateToken verifies the signature and time claims of a token and
	// returns its claims.
	//
	// Returns ErrInvalidToken, ErrExpiredToken or ErrTokenNotYetValid.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateToken issues a token for userID valid for lifetime.
	GenerateToken(ctx context.Context, userID uuid.UUID, lifetime time.Duration) (string, error)
}

// Claims are the verified contents of a token.
type Claims struct {
	UserID    uuid.UUID `json:"sub"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
