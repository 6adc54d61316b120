//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/platform/postgres"
	"github.com/phrazzld/studyquest/internal/store"
	"github.com/phrazzld/studyquest/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresTopicStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		topics := postgres.NewPostgresTopicStore(tx, nil)
		userID := uuid.New()
		subjectID := testdb.MustInsertSubject(ctx, t, tx, userID, domain.GemSapphire)

		topic, err := domain.NewTopic(userID, subjectID, "Eigenvalues", domain.LevelHigh, domain.LevelLow, domain.GemSapphire)
		require.NoError(t, err)
		require.NoError(t, topics.Create(ctx, topic))

		got, err := topics.GetForUpdate(ctx, topic.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StageBacklog, got.Stage)
		assert.Equal(t, domain.GemSapphire, got.DiscountGem)

		due := time.Now().UTC().Add(-time.Minute).Truncate(time.Microsecond)
		require.NoError(t, topics.UpdateStage(ctx, topic.ID, domain.StageReviewing, &due, time.Now()))

		listed, err := topics.ListDueForReview(ctx, time.Now(), 10)
		require.NoError(t, err)
		found := false
		for _, l := range listed {
			if l.ID == topic.ID {
				found = true
				require.NotNil(t, l.NextReviewAt)
				assert.True(t, l.NextReviewAt.Equal(due))
			}
		}
		assert.True(t, found, "due topic should be listed")

		// The CHECK constraint rejects a purchased topic outside mastered.
		_, err = tx.ExecContext(ctx, `UPDATE topics SET purchased = TRUE WHERE id = $1`, topic.ID)
		assert.Error(t, err)
	})
}

func TestPostgresTopicStore_PurchaseFlow_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
		ctx := context.Background()
		topics := postgres.NewPostgresTopicStore(tx, nil)
		userID := uuid.New()
		ruby := testdb.MustInsertSubject(ctx, t, tx, userID, domain.GemRuby)
		diamond := testdb.MustInsertSubject(ctx, t, tx, userID, domain.GemDiamond)

		now := time.Now().UTC()
		a := testdb.MustInsertTopic(ctx, t, tx, userID, ruby, domain.StageMastered, nil, now)
		b := testdb.MustInsertTopic(ctx, t, tx, userID, diamond, domain.StageMastered, nil, now)
		testdb.MustInsertTopic(ctx, t, tx, userID, ruby, domain.StageMastered, nil, now)

		require.NoError(t, topics.MarkPurchased(ctx, a, now))
		require.NoError(t, topics.MarkPurchased(ctx, b, now))
		assert.ErrorIs(t, topics.MarkPurchased(ctx, uuid.New(), now), store.ErrTopicNotFound)

		gems, err := topics.PurchasedDiscountGems(ctx, userID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []domain.Gem{domain.GemRuby, domain.GemDiamond}, gems)
	})
}

func TestPostgresWalletAndLedger_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
		ctx := context.Background()
		wallets := postgres.NewPostgresWalletStore(tx, nil)
		txns := postgres.NewPostgresTransactionStore(tx, nil)
		claims := postgres.NewPostgresNobleClaimStore(tx, nil)
		userID := uuid.New()

		w, err := wallets.GetForUpdate(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, domain.Gems{}, w.Balance)

		w.Credit(domain.Gems{Ruby: 5, Sapphire: 3, Emerald: 1})
		require.NoError(t, wallets.Save(ctx, w))

		got, err := wallets.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, domain.Gems{Ruby: 5, Sapphire: 3, Emerald: 1}, got.Balance)

		require.NoError(t, txns.Append(ctx, domain.NewNobleTransaction(userID, "scholar", 3, time.Now())))
		list, err := txns.ListByUser(ctx, userID, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, domain.TransactionNoble, list[0].Kind)

		first, err := claims.Claim(ctx, userID, "scholar")
		require.NoError(t, err)
		assert.True(t, first)
		again, err := claims.Claim(ctx, userID, "scholar")
		require.NoError(t, err)
		assert.False(t, again)

		claimed, err := claims.ListClaimed(ctx, userID)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, "scholar", claimed[0].NobleID)
	})
}

func TestPostgresUserStatsStore_Integration(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
		ctx := context.Background()
		stats := postgres.NewPostgresUserStatsStore(tx, nil)
		now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

		stale, fresh := uuid.New(), uuid.New()
		for id, daysAgo := range map[uuid.UUID]int{stale: 2, fresh: 1} {
			s, err := stats.GetForUpdate(ctx, id)
			require.NoError(t, err)
			s.RecordStudy(10, now.AddDate(0, 0, -daysAgo-1), time.UTC)
			s.RecordStudy(10, now.AddDate(0, 0, -daysAgo), time.UTC)
			require.NoError(t, stats.Save(ctx, s))
		}

		_, err := stats.ResetStaleStreaks(ctx, domain.StreakCutoff(now, time.UTC), now)
		require.NoError(t, err)

		s, err := stats.Get(ctx, stale)
		require.NoError(t, err)
		assert.Equal(t, 0, s.CurrentStreak)
		assert.Equal(t, 2, s.LongestStreak)

		f, err := stats.Get(ctx, fresh)
		require.NoError(t, err)
		assert.Equal(t, 2, f.CurrentStreak)
	})
}
