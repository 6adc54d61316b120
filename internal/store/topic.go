package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/domain"
)

// TopicStore defines the interface for topic data persistence.
type TopicStore interface {
	// Create saves a new topic. The topic's subject must already exist.
	// Returns validation errors from the domain Topic if data is invalid.
	Create(ctx context.Context, topic *domain.Topic) error

	// GetByID retrieves a topic without locking it.
	// Returns ErrTopicNotFound if the topic does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error)

	// GetForUpdate retrieves a topic with a row-level lock using SELECT FOR UPDATE.
	// This should be used within a transaction when the topic will be modified.
	// Returns ErrTopicNotFound if the topic does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Topic, error)

	// UpdateStage moves a topic to a new stage and sets its review time.
	// nextReviewAt must be non-nil exactly when stage is reviewing.
	// Returns ErrTopicNotFound if the topic does not exist.
	UpdateStage(ctx context.Context, id uuid.UUID, stage domain.Stage, nextReviewAt *time.Time, now time.Time) error

	// MarkPurchased sets the purchased flag on a topic.
	// Returns ErrTopicNotFound if the topic does not exist.
	MarkPurchased(ctx context.Context, id uuid.UUID, now time.Time) error

	// PurchasedDiscountGems returns the discount currency of every topic the
	// user has purchased. It is the authoritative source of the discount profile.
	PurchasedDiscountGems(ctx context.Context, userID uuid.UUID) ([]domain.Gem, error)

	// CountInStage counts topics currently in the given stage across all users.
	CountInStage(ctx context.Context, stage domain.Stage) (int, error)

	// LockAdmission serialises admission cycles for the rest of the
	// enclosing transaction. Must be called inside a transaction.
	LockAdmission(ctx context.Context) error

	// ListDueForReview returns up to limit reviewing topics whose review time
	// is at or before now, oldest first. Rows are locked for update and rows
	// locked by other transactions are skipped.
	ListDueForReview(ctx context.Context, now time.Time, limit int) ([]*domain.Topic, error)

	// WithTx returns a new TopicStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) TopicStore
}
