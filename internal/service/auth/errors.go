package auth

import "errors"

// Common authentication errors
var (
	// ErrInvalidToken indicates a malformed token, a bad signature or a
	// subject that is not a user ID.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates that the token's exp is in the past.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates that the token's nbf or iat is in the future.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")
)
