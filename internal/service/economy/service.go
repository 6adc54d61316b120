// Package economy implements the gem economy: pricing topics against a
// user's wallet and discount profile, purchasing mastered topics, and
// awarding nobles.
package economy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
	econ "github.com/phrazzld/studyquest/internal/domain/economy"
)

// Service provides the economy operations.
type Service interface {
	// Wallet returns the user's balances, prestige, discount profile and
	// most recent transactions. A user who never earned gems gets an empty wallet.
	Wallet(ctx context.Context, userID uuid.UUID) (*WalletView, error)

	// Discounts returns the user's discount profile: the number of purchased
	// topics per discount currency.
	Discounts(ctx context.Context, userID uuid.UUID) (domain.Gems, error)

	// EffectiveCost prices a topic for the user without changing anything.
	//
	// Returns:
	//   - (nil, ErrTopicNotFound): the topic does not exist or belongs to another user
	EffectiveCost(ctx context.Context, userID, topicID uuid.UUID) (*CostQuote, error)

	// CanAfford reports whether the user's current balance covers cost.
	CanAfford(ctx context.Context, userID uuid.UUID, cost domain.Gems) (bool, error)

	// Purchase buys a mastered topic. In one transaction it debits the
	// effective cost, marks the topic purchased, credits prestige, records
	// the transaction and claims any noble the new discount completes.
	//
	// Returns:
	//   - ErrTopicNotFound: the topic does not exist or belongs to another user
	//   - ErrAlreadyPurchased: the topic was purchased before
	//   - ErrNotEligible: the topic is not mastered
	//   - *InsufficientFundsError (matches ErrInsufficientFunds): the wallet is short
	//
	// On any error nothing is changed.
	Purchase(ctx context.Context, userID, topicID uuid.UUID) (*PurchaseResult, error)

	// NobleProgress evaluates every noble against the user's discount
	// profile and claims, exactly once per user, each completed noble.
	NobleProgress(ctx context.Context, userID uuid.UUID) (*NobleReport, error)
}

// WalletView is a wallet together with the derived discount profile.
type WalletView struct {
	Wallet       *domain.Wallet        `json:"wallet"`
	Discounts    domain.Gems           `json:"discounts"`
	Transactions []*domain.Transaction `json:"transactions"`
}

// CostQuote is the price of one topic for one user.
type CostQuote struct {
	TopicID uuid.UUID `json:"topic_id"`
	econ.Quote
}

// PurchaseResult describes a completed purchase.
type PurchaseResult struct {
	Topic        *domain.Topic       `json:"topic"`
	Wallet       *domain.Wallet      `json:"wallet"`
	Transaction  *domain.Transaction `json:"transaction"`
	NoblesEarned []domain.Noble      `json:"nobles_earned"`
}

// NobleReport is the noble progress of one user.
type NobleReport struct {
	Discounts    domain.Gems          `json:"discounts"`
	Nobles       []econ.NobleProgress `json:"nobles"`
	NoblesEarned []domain.Noble       `json:"nobles_earned"`
	Prestige     int                  `json:"prestige"`
}

// Common error types for the economy service
var (
	// ErrTopicNotFound indicates that the topic does not exist or is not the user's.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrAlreadyPurchased indicates that the topic has been purchased before.
	ErrAlreadyPurchased = errors.New("topic already purchased")

	// ErrNotEligible indicates that the topic is not mastered.
	ErrNotEligible = errors.New("topic is not eligible for purchase: it must be mastered")

	// ErrInsufficientFunds indicates that the wallet does not cover the effective cost.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// InsufficientFundsError reports which currencies fall short of a price.
type InsufficientFundsError struct {
	Short   []domain.Gem
	Cost    domain.Gems
	Balance domain.Gems
}

// Error implements the error interface.
func (e *InsufficientFundsError) Error() string {
	names := make([]string, len(e.Short))
	for i, g := range e.Short {
		names[i] = string(g)
	}
	return fmt.Sprintf("%s: short of %s", ErrInsufficientFunds, strings.Join(names, ", "))
}

// Is makes errors.Is(err, ErrInsufficientFunds) match.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// ServiceError wraps errors from the economy service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "purchase", "noble_progress")
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
