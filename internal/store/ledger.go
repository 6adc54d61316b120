package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/domain"
)

// TransactionStore is the append-only log of wallet transactions.
type TransactionStore interface {
	// Append records a transaction. Existing records are never modified.
	Append(ctx context.Context, txn *domain.Transaction) error

	// ListByUser returns the user's most recent transactions, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error)

	// WithTx returns a new TransactionStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) TransactionStore
}

// ReviewLogStore is the append-only log of topic stage transitions.
type ReviewLogStore interface {
	// Append records a review entry. Existing entries are never modified.
	Append(ctx context.Context, entry *domain.ReviewEntry) error

	// ListByTopic returns the entries for a topic, oldest first.
	ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.ReviewEntry, error)

	// WithTx returns a new ReviewLogStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) ReviewLogStore
}

// NobleClaimStore records which nobles each user has been awarded.
type NobleClaimStore interface {
	// Claim records the award of a noble to a user. It returns true only
	// when this call created the claim; a repeat claim returns false and
	// changes nothing.
	Claim(ctx context.Context, userID uuid.UUID, nobleID string) (bool, error)

	// ListClaimed returns the user's claims.
	ListClaimed(ctx context.Context, userID uuid.UUID) ([]domain.NobleClaim, error)

	// WithTx returns a new NobleClaimStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) NobleClaimStore
}
