package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/store"
)

// admissionLockKey identifies the transaction-scoped advisory lock taken by
// every admission cycle.
const admissionLockKey int64 = 0x5354_5544_5941_444d

// topicColumns selects a topic together with its subject's discount gem.
const topicColumns = `
	t.id, t.user_id, t.subject_id, t.title, t.difficulty, t.importance,
	t.stage, t.next_review_at, t.purchased, s.gem AS discount_gem,
	t.created_at, t.updated_at`

const topicFrom = `
	FROM topics t
	JOIN subjects s ON s.id = t.subject_id`

// topicRow is the database shape of a topic.
type topicRow struct {
	ID           uuid.UUID  `db:"id"`
	UserID       uuid.UUID  `db:"user_id"`
	SubjectID    uuid.UUID  `db:"subject_id"`
	Title        string     `db:"title"`
	Difficulty   string     `db:"difficulty"`
	Importance   string     `db:"importance"`
	Stage        string     `db:"stage"`
	NextReviewAt *time.Time `db:"next_review_at"`
	Purchased    bool       `db:"purchased"`
	DiscountGem  string     `db:"discount_gem"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (r topicRow) toDomain() *domain.Topic {
	return &domain.Topic{
		ID:           r.ID,
		UserID:       r.UserID,
		SubjectID:    r.SubjectID,
		Title:        r.Title,
		Difficulty:   domain.Level(r.Difficulty),
		Importance:   domain.Level(r.Importance),
		Stage:        domain.Stage(r.Stage),
		NextReviewAt: r.NextReviewAt,
		Purchased:    r.Purchased,
		DiscountGem:  domain.Gem(r.DiscountGem),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// PostgresTopicStore implements the store.TopicStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTopicStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTopicStore creates a new PostgreSQL implementation of the TopicStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTopicStore(db store.DBTX, logger *slog.Logger) *PostgresTopicStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTopicStore{
		db:     db,
		logger: logger.With(slog.String("component", "topic_store")),
	}
}

// Ensure PostgresTopicStore implements store.TopicStore interface
var _ store.TopicStore = (*PostgresTopicStore)(nil)

// Create implements store.TopicStore.Create
// Returns store.ErrInvalidEntity if the subject does not exist.
func (s *PostgresTopicStore) Create(ctx context.Context, topic *domain.Topic) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := topic.Validate(); err != nil {
		log.Warn("topic validation failed during create",
			slog.String("error", err.Error()),
			slog.String("topic_id", topic.ID.String()))
		return err
	}

	query := `
		INSERT INTO topics (id, user_id, subject_id, title, difficulty, importance,
			stage, next_review_at, purchased, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		topic.ID,
		topic.UserID,
		topic.SubjectID,
		topic.Title,
		topic.Difficulty,
		topic.Importance,
		topic.Stage,
		topic.NextReviewAt,
		topic.Purchased,
		topic.CreatedAt,
		topic.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("subject not found during topic creation",
				slog.String("topic_id", topic.ID.String()),
				slog.String("subject_id", topic.SubjectID.String()))
			return fmt.Errorf("%w: subject with ID %s not found",
				store.ErrInvalidEntity, topic.SubjectID)
		}
		if IsUniqueViolation(err) {
			return fmt.Errorf("topic %s already exists: %w", topic.ID, MapError(err))
		}
		log.Error("failed to create topic",
			slog.String("error", err.Error()),
			slog.String("topic_id", topic.ID.String()))
		return MapError(err)
	}

	log.Debug("topic created",
		slog.String("topic_id", topic.ID.String()),
		slog.String("user_id", topic.UserID.String()))
	return nil
}

// GetByID implements store.TopicStore.GetByID
func (s *PostgresTopicStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	return s.get(ctx, id, "")
}

// GetForUpdate implements store.TopicStore.GetForUpdate
// The lock is held on the topic row only, not on its subject.
func (s *PostgresTopicStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	return s.get(ctx, id, " FOR UPDATE OF t")
}

func (s *PostgresTopicStore) get(ctx context.Context, id uuid.UUID, lock string) (*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := "SELECT" + topicColumns + topicFrom + " WHERE t.id = $1" + lock

	var row topicRow
	if err := sqlx.GetContext(ctx, s.db, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("topic not found", slog.String("topic_id", id.String()))
			return nil, store.ErrTopicNotFound
		}
		log.Error("failed to get topic",
			slog.String("error", err.Error()),
			slog.String("topic_id", id.String()))
		return nil, MapError(err)
	}

	return row.toDomain(), nil
}

// UpdateStage implements store.TopicStore.UpdateStage
func (s *PostgresTopicStore) UpdateStage(
	ctx context.Context,
	id uuid.UUID,
	stage domain.Stage,
	nextReviewAt *time.Time,
	now time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !stage.Valid() {
		return domain.NewValidationError("stage", "is not a known stage", domain.ErrInvalidStage)
	}
	if (stage == domain.StageReviewing) != (nextReviewAt != nil) {
		return domain.ErrNextReviewOutsideReviewing
	}

	query := `
		UPDATE topics
		SET stage = $1, next_review_at = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, stage, nextReviewAt, now.UTC(), id)
	if err != nil {
		log.Error("failed to update topic stage",
			slog.String("error", err.Error()),
			slog.String("topic_id", id.String()),
			slog.String("stage", string(stage)))
		return MapError(err)
	}

	return topicRowsAffected(result)
}

// MarkPurchased implements store.TopicStore.MarkPurchased
func (s *PostgresTopicStore) MarkPurchased(ctx context.Context, id uuid.UUID, now time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE topics
		SET purchased = TRUE, updated_at = $1
		WHERE id = $2
	`
	result, err := s.db.ExecContext(ctx, query, now.UTC(), id)
	if err != nil {
		log.Error("failed to mark topic purchased",
			slog.String("error", err.Error()),
			slog.String("topic_id", id.String()))
		return MapError(err)
	}

	return topicRowsAffected(result)
}

// PurchasedDiscountGems implements store.TopicStore.PurchasedDiscountGems
func (s *PostgresTopicStore) PurchasedDiscountGems(ctx context.Context, userID uuid.UUID) ([]domain.Gem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT s.gem
		FROM topics t
		JOIN subjects s ON s.id = t.subject_id
		WHERE t.user_id = $1 AND t.purchased
	`
	var names []string
	if err := sqlx.SelectContext(ctx, s.db, &names, query, userID); err != nil {
		log.Error("failed to list purchased discount gems",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	gems := make([]domain.Gem, 0, len(names))
	for _, name := range names {
		g, err := domain.ParseGem(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		gems = append(gems, g)
	}
	return gems, nil
}

// CountInStage implements store.TopicStore.CountInStage
func (s *PostgresTopicStore) CountInStage(ctx context.Context, stage domain.Stage) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM topics WHERE stage = $1`
	if err := sqlx.GetContext(ctx, s.db, &count, query, stage); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count topics in stage",
			slog.String("error", err.Error()),
			slog.String("stage", string(stage)))
		return 0, MapError(err)
	}
	return count, nil
}

// LockAdmission implements store.TopicStore.LockAdmission
// It takes a transaction-scoped advisory lock released on commit or rollback.
func (s *PostgresTopicStore) LockAdmission(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, admissionLockKey); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to take admission lock",
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// ListDueForReview implements store.TopicStore.ListDueForReview
func (s *PostgresTopicStore) ListDueForReview(ctx context.Context, now time.Time, limit int) ([]*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		return []*domain.Topic{}, nil
	}

	query := "SELECT" + topicColumns + topicFrom + `
		WHERE t.stage = 'reviewing' AND t.next_review_at <= $1
		ORDER BY t.created_at, t.id
		LIMIT $2
		FOR UPDATE OF t SKIP LOCKED`

	var rows []topicRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, now.UTC(), limit); err != nil {
		log.Error("failed to list topics due for review",
			slog.String("error", err.Error()),
			slog.Int("limit", limit))
		return nil, MapError(err)
	}

	topics := make([]*domain.Topic, 0, len(rows))
	for _, r := range rows {
		topics = append(topics, r.toDomain())
	}

	log.Debug("found topics due for review", slog.Int("count", len(topics)))
	return topics, nil
}

// WithTx implements store.TopicStore.WithTx
func (s *PostgresTopicStore) WithTx(tx *sqlx.Tx) store.TopicStore {
	return &PostgresTopicStore{
		db:     tx,
		logger: s.logger,
	}
}

func topicRowsAffected(result sql.Result) error {
	return CheckRowsAffected(result, store.ErrTopicNotFound)
}
