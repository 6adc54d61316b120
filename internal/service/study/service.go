// Package study records study sessions and board moves, the user actions
// that feed topics into the review pipeline and earn gems.
package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/domain/srs"
)

// Service handles the user-driven side of the topic lifecycle.
type Service interface {
	// CompleteSession records a finished study session scored 1..5. In one
	// transaction it schedules the topic for review, advances the user's XP
	// and streak and credits the wallet in the topic's discount currency.
	//
	// Returns:
	//   - ErrInvalidScore: score is outside 1..5
	//   - ErrTopicNotFound: the topic does not exist or belongs to another user
	//   - ErrNotStudyable: the topic is mastered or purchased
	CompleteSession(ctx context.Context, userID, topicID uuid.UUID, score int) (*SessionResult, error)

	// MoveTopic moves a topic between board columns. Moving out of
	// reviewing clears the scheduled review.
	//
	// Returns:
	//   - ErrTopicNotFound: the topic does not exist or belongs to another user
	//   - ErrStageNotAllowed: the target is reviewing, or the topic is purchased
	MoveTopic(ctx context.Context, userID, topicID uuid.UUID, stage domain.Stage) (*domain.Topic, error)
}

// SessionResult describes the effects of a completed session.
type SessionResult struct {
	Topic        *domain.Topic     `json:"topic"`
	IntervalDays int               `json:"interval_days"`
	Stats        *domain.UserStats `json:"stats"`
	Earned       domain.Gems       `json:"earned"`
	Wallet       *domain.Wallet    `json:"wallet"`
}

// Settings holds the session rewards and the day boundary used for streaks.
type Settings struct {
	XPPerSession   int
	GemsPerSession int
	Location       *time.Location
}

// Common error types for the study service
var (
	// ErrTopicNotFound indicates that the topic does not exist or is not the user's.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrNotStudyable indicates that the topic is mastered or purchased.
	ErrNotStudyable = errors.New("topic cannot be studied: it is mastered or purchased")

	// ErrStageNotAllowed indicates a board move the user may not make.
	ErrStageNotAllowed = errors.New("stage change not allowed")

	// ErrInvalidScore indicates a session score outside 1..5.
	ErrInvalidScore = srs.ErrInvalidScore
)

// ServiceError wraps errors from the study service with additional context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "complete_session")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError for the given operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
