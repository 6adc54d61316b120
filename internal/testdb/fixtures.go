//go:build integration

package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/store"
	"github.com/stretchr/testify/require"
)

// MustInsertSubject inserts a subject granting gem and returns its ID.
func MustInsertSubject(ctx context.Context, t *testing.T, db store.DBTX, userID uuid.UUID, gem domain.Gem) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.ExecContext(ctx,
		`INSERT INTO subjects (id, user_id, name, gem) VALUES ($1, $2, $3, $4)`,
		id, userID, "subject-"+id.String()[:8], gem)
	require.NoError(t, err, "Failed to insert subject")
	return id
}

// MustInsertTopic inserts a topic under subjectID in the given stage. Topics
// in reviewing get nextReviewAt as their review time.
func MustInsertTopic(
	ctx context.Context,
	t *testing.T,
	db store.DBTX,
	userID, subjectID uuid.UUID,
	stage domain.Stage,
	nextReviewAt *time.Time,
	createdAt time.Time,
) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.ExecContext(ctx, `
		INSERT INTO topics (id, user_id, subject_id, title, difficulty, importance,
			stage, next_review_at, purchased, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'medium', 'medium', $5, $6, FALSE, $7, $7)`,
		id, userID, subjectID, "topic-"+id.String()[:8], stage, nextReviewAt, createdAt)
	require.NoError(t, err, "Failed to insert topic")
	return id
}
