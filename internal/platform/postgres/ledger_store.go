package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/store"
)

type transactionRow struct {
	ID        string     `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	Kind      string     `db:"kind"`
	TopicID   *uuid.UUID `db:"topic_id"`
	NobleID   string     `db:"noble_id"`
	Ruby      int        `db:"spent_ruby"`
	Sapphire  int        `db:"spent_sapphire"`
	Emerald   int        `db:"spent_emerald"`
	Diamond   int        `db:"spent_diamond"`
	Prestige  int        `db:"prestige"`
	CreatedAt time.Time  `db:"created_at"`
}

func (r transactionRow) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:      r.ID,
		UserID:  r.UserID,
		Kind:    domain.TransactionKind(r.Kind),
		TopicID: r.TopicID,
		NobleID: r.NobleID,
		Spent: domain.Gems{
			Ruby:     r.Ruby,
			Sapphire: r.Sapphire,
			Emerald:  r.Emerald,
			Diamond:  r.Diamond,
		},
		Prestige:  r.Prestige,
		CreatedAt: r.CreatedAt,
	}
}

// PostgresTransactionStore implements store.TransactionStore.
type PostgresTransactionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTransactionStore creates a new PostgreSQL implementation of the TransactionStore interface.
func NewPostgresTransactionStore(db store.DBTX, logger *slog.Logger) *PostgresTransactionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTransactionStore{
		db:     db,
		logger: logger.With(slog.String("component", "transaction_store")),
	}
}

var _ store.TransactionStore = (*PostgresTransactionStore)(nil)

// Append implements store.TransactionStore.Append
func (s *PostgresTransactionStore) Append(ctx context.Context, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, kind, topic_id, noble_id,
			spent_ruby, spent_sapphire, spent_emerald, spent_diamond, prestige, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		txn.ID,
		txn.UserID,
		txn.Kind,
		txn.TopicID,
		txn.NobleID,
		txn.Spent.Ruby,
		txn.Spent.Sapphire,
		txn.Spent.Emerald,
		txn.Spent.Diamond,
		txn.Prestige,
		txn.CreatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append transaction",
			slog.String("error", err.Error()),
			slog.String("transaction_id", txn.ID),
			slog.String("kind", string(txn.Kind)))
		return MapError(err)
	}
	return nil
}

// ListByUser implements store.TransactionStore.ListByUser
func (s *PostgresTransactionStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, kind, topic_id, noble_id,
			spent_ruby, spent_sapphire, spent_emerald, spent_diamond, prestige, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	var rows []transactionRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, userID, limit); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list transactions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	txns := make([]*domain.Transaction, 0, len(rows))
	for _, r := range rows {
		txns = append(txns, r.toDomain())
	}
	return txns, nil
}

// WithTx implements store.TransactionStore.WithTx
func (s *PostgresTransactionStore) WithTx(tx *sqlx.Tx) store.TransactionStore {
	return &PostgresTransactionStore{db: tx, logger: s.logger}
}

type reviewEntryRow struct {
	ID        string    `db:"id"`
	TopicID   uuid.UUID `db:"topic_id"`
	UserID    uuid.UUID `db:"user_id"`
	FromStage string    `db:"from_stage"`
	ToStage   string    `db:"to_stage"`
	CreatedAt time.Time `db:"created_at"`
}

// PostgresReviewLogStore implements store.ReviewLogStore.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLogStore creates a new PostgreSQL implementation of the ReviewLogStore interface.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// Append implements store.ReviewLogStore.Append
func (s *PostgresReviewLogStore) Append(ctx context.Context, entry *domain.ReviewEntry) error {
	query := `
		INSERT INTO review_entries (id, topic_id, user_id, from_stage, to_stage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.TopicID,
		entry.UserID,
		entry.FromStage,
		entry.ToStage,
		entry.CreatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append review entry",
			slog.String("error", err.Error()),
			slog.String("topic_id", entry.TopicID.String()))
		return MapError(err)
	}
	return nil
}

// ListByTopic implements store.ReviewLogStore.ListByTopic
func (s *PostgresReviewLogStore) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.ReviewEntry, error) {
	query := `
		SELECT id, topic_id, user_id, from_stage, to_stage, created_at
		FROM review_entries
		WHERE topic_id = $1
		ORDER BY id
	`
	var rows []reviewEntryRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, topicID); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list review entries",
			slog.String("error", err.Error()),
			slog.String("topic_id", topicID.String()))
		return nil, MapError(err)
	}

	entries := make([]*domain.ReviewEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, &domain.ReviewEntry{
			ID:        r.ID,
			TopicID:   r.TopicID,
			UserID:    r.UserID,
			FromStage: domain.Stage(r.FromStage),
			ToStage:   domain.Stage(r.ToStage),
			CreatedAt: r.CreatedAt,
		})
	}
	return entries, nil
}

// WithTx implements store.ReviewLogStore.WithTx
func (s *PostgresReviewLogStore) WithTx(tx *sqlx.Tx) store.ReviewLogStore {
	return &PostgresReviewLogStore{db: tx, logger: s.logger}
}

// PostgresNobleClaimStore implements store.NobleClaimStore.
type PostgresNobleClaimStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNobleClaimStore creates a new PostgreSQL implementation of the NobleClaimStore interface.
func NewPostgresNobleClaimStore(db store.DBTX, logger *slog.Logger) *PostgresNobleClaimStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNobleClaimStore{
		db:     db,
		logger: logger.With(slog.String("component", "noble_claim_store")),
	}
}

var _ store.NobleClaimStore = (*PostgresNobleClaimStore)(nil)

// Claim implements store.NobleClaimStore.Claim
// The (user_id, noble_id) primary key makes the insert the idempotency check.
func (s *PostgresNobleClaimStore) Claim(ctx context.Context, userID uuid.UUID, nobleID string) (bool, error) {
	query := `
		INSERT INTO noble_claims (user_id, noble_id, claimed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, noble_id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, userID, nobleID, time.Now().UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to claim noble",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("noble_id", nobleID))
		return false, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListClaimed implements store.NobleClaimStore.ListClaimed
func (s *PostgresNobleClaimStore) ListClaimed(ctx context.Context, userID uuid.UUID) ([]domain.NobleClaim, error) {
	query := `
		SELECT noble_id, claimed_at
		FROM noble_claims
		WHERE user_id = $1
		ORDER BY claimed_at, noble_id
	`
	var rows []struct {
		NobleID   string    `db:"noble_id"`
		ClaimedAt time.Time `db:"claimed_at"`
	}
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, userID); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list noble claims",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	claims := make([]domain.NobleClaim, 0, len(rows))
	for _, r := range rows {
		claims = append(claims, domain.NobleClaim{NobleID: r.NobleID, ClaimedAt: r.ClaimedAt})
	}
	return claims, nil
}

// WithTx implements store.NobleClaimStore.WithTx
func (s *PostgresNobleClaimStore) WithTx(tx *sqlx.Tx) store.NobleClaimStore {
	return &PostgresNobleClaimStore{db: tx, logger: s.logger}
}
