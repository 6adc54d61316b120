package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/domain"
)

// UserStatsStore defines the interface for user stats persistence.
type UserStatsStore interface {
	// Get returns the user's stats, or zeroed stats if none are stored yet.
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)

	// GetForUpdate returns the user's stats locked for the rest of the
	// enclosing transaction, creating a zeroed row if needed.
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)

	// Save writes XP, streaks and the last study date.
	// Returns ErrUserStatsNotFound if the row does not exist.
	Save(ctx context.Context, stats *domain.UserStats) error

	// ResetStaleStreaks sets current_streak to zero for every user whose last
	// study date is before cutoff (or unset). longest_streak is not touched.
	// Returns the number of users reset.
	ResetStaleStreaks(ctx context.Context, cutoff time.Time, now time.Time) (int, error)

	// WithTx returns a new UserStatsStore instance that uses the provided transaction.
	WithTx(tx *sqlx.Tx) UserStatsStore
}
