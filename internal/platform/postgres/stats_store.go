package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/store"
)

const statsColumns = `user_id, xp, current_streak, longest_streak, last_study_date, updated_at`

type statsRow struct {
	UserID        uuid.UUID  `db:"user_id"`
	XP            int        `db:"xp"`
	CurrentStreak int        `db:"current_streak"`
	LongestStreak int        `db:"longest_streak"`
	LastStudyDate *time.Time `db:"last_study_date"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r statsRow) toDomain() *domain.UserStats {
	stats := &domain.UserStats{
		UserID:        r.UserID,
		XP:            r.XP,
		CurrentStreak: r.CurrentStreak,
		LongestStreak: r.LongestStreak,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.LastStudyDate != nil {
		// DATE columns carry no zone; normalise to midnight UTC.
		y, m, d := r.LastStudyDate.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		stats.LastStudyDate = &date
	}
	return stats
}

// PostgresUserStatsStore implements the store.UserStatsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStatsStore creates a new PostgreSQL implementation of the UserStatsStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserStatsStore(db store.DBTX, logger *slog.Logger) *PostgresUserStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_stats_store")),
	}
}

// Ensure PostgresUserStatsStore implements store.UserStatsStore interface
var _ store.UserStatsStore = (*PostgresUserStatsStore)(nil)

// Get implements store.UserStatsStore.Get
func (s *PostgresUserStatsStore) Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	var row statsRow
	query := `SELECT ` + statsColumns + ` FROM user_stats WHERE user_id = $1`
	if err := sqlx.GetContext(ctx, s.db, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewUserStats(userID), nil
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return row.toDomain(), nil
}

// GetForUpdate implements store.UserStatsStore.GetForUpdate
func (s *PostgresUserStatsStore) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ensure := `
		INSERT INTO user_stats (user_id, updated_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, ensure, userID, time.Now().UTC()); err != nil {
		log.Error("failed to ensure user stats exist",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	var row statsRow
	query := `SELECT ` + statsColumns + ` FROM user_stats WHERE user_id = $1 FOR UPDATE`
	if err := sqlx.GetContext(ctx, s.db, &row, query, userID); err != nil {
		log.Error("failed to lock user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return row.toDomain(), nil
}

// Save implements store.UserStatsStore.Save
func (s *PostgresUserStatsStore) Save(ctx context.Context, stats *domain.UserStats) error {
	query := `
		UPDATE user_stats
		SET xp = $1, current_streak = $2, longest_streak = $3, last_study_date = $4, updated_at = $5
		WHERE user_id = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		stats.XP,
		stats.CurrentStreak,
		stats.LongestStreak,
		stats.LastStudyDate,
		stats.UpdatedAt.UTC(),
		stats.UserID,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrUserStatsNotFound)
}

// ResetStaleStreaks implements store.UserStatsStore.ResetStaleStreaks
func (s *PostgresUserStatsStore) ResetStaleStreaks(ctx context.Context, cutoff time.Time, now time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE user_stats
		SET current_streak = 0, updated_at = $2
		WHERE current_streak > 0
		  AND (last_study_date IS NULL OR last_study_date < $1)
	`
	result, err := s.db.ExecContext(ctx, query, cutoff.Format(time.DateOnly), now.UTC())
	if err != nil {
		log.Error("failed to reset stale streaks",
			slog.String("error", err.Error()),
			slog.String("cutoff", cutoff.Format(time.DateOnly)))
		return 0, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// WithTx implements store.UserStatsStore.WithTx
func (s *PostgresUserStatsStore) WithTx(tx *sqlx.Tx) store.UserStatsStore {
	return &PostgresUserStatsStore{db: tx, logger: s.logger}
}
