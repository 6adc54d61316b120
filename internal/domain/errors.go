// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidStage is returned when a stage value is not one of the known stages.
	ErrInvalidStage = errors.New("invalid stage")

	// ErrInvalidLevel is returned when a difficulty or importance is not high, medium or low.
	ErrInvalidLevel = errors.New("invalid level")

	// ErrInvalidGem is returned when a gem name is not one of the four currencies.
	ErrInvalidGem = errors.New("invalid gem")

	// ErrNegativeBalance is returned when an operation would drive a wallet balance below zero.
	ErrNegativeBalance = errors.New("balance cannot be negative")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrValidation
	}
	return e.Err
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}
