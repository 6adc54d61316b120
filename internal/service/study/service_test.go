package study

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/domain/srs"
	"github.com/phrazzld/studyquest/internal/mocks"
	"github.com/phrazzld/studyquest/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	mem    *mocks.MemStore
	svc    *studyServiceImpl
	userID uuid.UUID
}

func newFixture(t *testing.T, settings Settings) *fixture {
	t.Helper()

	srsService, err := srs.NewDefaultService()
	require.NoError(t, err)

	mem := mocks.NewMemStore()
	svc, err := NewService(mem, srsService, settings, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	impl := svc.(*studyServiceImpl)
	impl.now = func() time.Time { return testNow }

	return &fixture{mem: mem, svc: impl, userID: uuid.New()}
}

func defaultSettings() Settings {
	return Settings{XPPerSession: 10, GemsPerSession: 1, Location: time.UTC}
}

func (f *fixture) addTopic(stage domain.Stage, gem domain.Gem) *domain.Topic {
	topic := &domain.Topic{
		ID:          uuid.New(),
		UserID:      f.userID,
		SubjectID:   f.mem.AddSubject(gem),
		Title:       "Linear algebra",
		Difficulty:  domain.LevelMedium,
		Importance:  domain.LevelMedium,
		Stage:       stage,
		DiscountGem: gem,
		CreatedAt:   testNow.Add(-time.Hour),
		UpdatedAt:   testNow.Add(-time.Hour),
	}
	if stage == domain.StageReviewing {
		due := testNow.Add(24 * time.Hour)
		topic.NextReviewAt = &due
	}
	f.mem.PutTopic(topic)
	return topic
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestNewService(t *testing.T) {
	srsService, err := srs.NewDefaultService()
	require.NoError(t, err)
	mem := mocks.NewMemStore()
	log := slog.Default()

	tests := []struct {
		name     string
		tx       store.Transactor
		srs      srs.Service
		settings Settings
		log      *slog.Logger
	}{
		{name: "nil transactor", srs: srsService, settings: defaultSettings(), log: log},
		{name: "nil srs", tx: mem, settings: defaultSettings(), log: log},
		{name: "nil logger", tx: mem, srs: srsService, settings: defaultSettings()},
		{name: "negative xp", tx: mem, srs: srsService, settings: Settings{XPPerSession: -1}, log: log},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewService(tc.tx, tc.srs, tc.settings, tc.log)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	t.Run("nil location defaults to UTC", func(t *testing.T) {
		svc, err := NewService(mem, srsService, Settings{}, log)
		require.NoError(t, err)
		assert.Equal(t, time.UTC, svc.(*studyServiceImpl).settings.Location)
	})
}

func TestCompleteSession(t *testing.T) {
	ctx := context.Background()

	t.Run("schedules review and rewards the user", func(t *testing.T) {
		f := newFixture(t, defaultSettings())
		topic := f.addTopic(domain.StageLearning, domain.GemSapphire)

		result, err := f.svc.CompleteSession(ctx, f.userID, topic.ID, 3)
		require.NoError(t, err)

		want := testNow.AddDate(0, 0, 4)
		assert.Equal(t, 4, result.IntervalDays)
		assert.Equal(t, domain.StageReviewing, result.Topic.Stage)
		require.NotNil(t, result.Topic.NextReviewAt)
		assert.True(t, want.Equal(*result.Topic.NextReviewAt))

		stored := f.mem.Topic(topic.ID)
		assert.Equal(t, domain.StageReviewing, stored.Stage)
		require.NotNil(t, stored.NextReviewAt)
		assert.True(t, want.Equal(*stored.NextReviewAt))

		assert.Equal(t, 10, result.Stats.XP)
		assert.Equal(t, 1, result.Stats.CurrentStreak)
		assert.Equal(t, domain.Gems{Sapphire: 1}, result.Earned)
		assert.Equal(t, domain.Gems{Sapphire: 1}, f.mem.Wallet(f.userID).Balance)

		entries := f.mem.ReviewEntries()
		require.Len(t, entries, 1)
		assert.Equal(t, domain.StageLearning, entries[0].FromStage)
		assert.Equal(t, domain.StageReviewing, entries[0].ToStage)
	})

	t.Run("streak follows the study date", func(t *testing.T) {
		tests := []struct {
			name        string
			lastStudy   *time.Time
			streak      int
			longest     int
			wantStreak  int
			wantLongest int
		}{
			{name: "first session", wantStreak: 1, wantLongest: 1},
			{name: "studied yesterday", lastStudy: date(2024, 3, 9), streak: 2, longest: 2, wantStreak: 3, wantLongest: 3},
			{name: "studied today", lastStudy: date(2024, 3, 10), streak: 2, longest: 5, wantStreak: 2, wantLongest: 5},
			{name: "gap resets", lastStudy: date(2024, 3, 7), streak: 4, longest: 4, wantStreak: 1, wantLongest: 4},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				f := newFixture(t, defaultSettings())
				topic := f.addTopic(domain.StageToday, domain.GemRuby)
				if tc.lastStudy != nil {
					f.mem.PutStats(&domain.UserStats{
						UserID:        f.userID,
						XP:            50,
						CurrentStreak: tc.streak,
						LongestStreak: tc.longest,
						LastStudyDate: tc.lastStudy,
					})
				}

				result, err := f.svc.CompleteSession(ctx, f.userID, topic.ID, 5)
				require.NoError(t, err)
				assert.Equal(t, tc.wantStreak, result.Stats.CurrentStreak)
				assert.Equal(t, tc.wantLongest, result.Stats.LongestStreak)
				assert.Equal(t, tc.wantStreak, f.mem.Stats(f.userID).CurrentStreak)
			})
		}
	})

	t.Run("day boundary uses the configured timezone", func(t *testing.T) {
		settings := defaultSettings()
		settings.Location = time.FixedZone("UTC+10", 10*60*60)
		f := newFixture(t, settings)
		f.svc.now = func() time.Time { return time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC) }
		topic := f.addTopic(domain.StageToday, domain.GemRuby)
		f.mem.PutStats(&domain.UserStats{
			UserID:        f.userID,
			CurrentStreak: 1,
			LongestStreak: 1,
			LastStudyDate: date(2024, 3, 10),
		})

		result, err := f.svc.CompleteSession(ctx, f.userID, topic.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Stats.CurrentStreak, "20:00 UTC is already the next day at UTC+10")
	})

	t.Run("reviewing topics can be restudied", func(t *testing.T) {
		f := newFixture(t, defaultSettings())
		topic := f.addTopic(domain.StageReviewing, domain.GemEmerald)

		result, err := f.svc.CompleteSession(ctx, f.userID, topic.ID, 1)
		require.NoError(t, err)
		require.NotNil(t, result.Topic.NextReviewAt)
		assert.True(t, testNow.AddDate(0, 0, 1).Equal(*result.Topic.NextReviewAt))
	})

	t.Run("rejections change nothing", func(t *testing.T) {
		f := newFixture(t, defaultSettings())
		learning := f.addTopic(domain.StageLearning, domain.GemRuby)
		mastered := f.addTopic(domain.StageMastered, domain.GemRuby)

		tests := []struct {
			name    string
			userID  uuid.UUID
			topicID uuid.UUID
			score   int
			wantErr error
		}{
			{name: "score too low", userID: f.userID, topicID: learning.ID, score: 0, wantErr: ErrInvalidScore},
			{name: "score too high", userID: f.userID, topicID: learning.ID, score: 6, wantErr: ErrInvalidScore},
			{name: "mastered", userID: f.userID, topicID: mastered.ID, score: 3, wantErr: ErrNotStudyable},
			{name: "foreign topic", userID: uuid.New(), topicID: learning.ID, score: 3, wantErr: ErrTopicNotFound},
			{name: "missing topic", userID: f.userID, topicID: uuid.New(), score: 3, wantErr: ErrTopicNotFound},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.svc.CompleteSession(ctx, tc.userID, tc.topicID, tc.score)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}

		assert.Equal(t, domain.StageLearning, f.mem.Topic(learning.ID).Stage)
		assert.Nil(t, f.mem.Wallet(f.userID))
		assert.Nil(t, f.mem.Stats(f.userID))
		assert.Empty(t, f.mem.ReviewEntries())
	})

	t.Run("failed commit leaves no trace", func(t *testing.T) {
		f := newFixture(t, defaultSettings())
		topic := f.addTopic(domain.StageLearning, domain.GemRuby)
		f.mem.FailNextCommit(errors.New("connection reset"))

		_, err := f.svc.CompleteSession(ctx, f.userID, topic.ID, 2)
		assert.ErrorIs(t, err, store.ErrTransactionFailed)

		stored := f.mem.Topic(topic.ID)
		assert.Equal(t, domain.StageLearning, stored.Stage)
		assert.Nil(t, stored.NextReviewAt)
		assert.Nil(t, f.mem.Wallet(f.userID))
	})
}

func TestMoveTopic(t *testing.T) {
	ctx := context.Background()

	t.Run("moves between board columns", func(t *testing.T) {
		f := newFixture(t, defaultSettings())
		topic := f.addTopic(domain.StageBacklog, domain.GemRuby)

		moved, err := f.svc.MoveTopic(ctx, f.userID, topic.ID, domain.StageToday)
		require.NoError(t, err)
		assert.Equal(t, domain.StageToday, moved.Stage)
		assert.Equal(t, domain.StageToday, f.mem.Topic(topic.ID).Stage)
		require.Len(t, f.mem.ReviewEntries(), 1)
	})

	t.Run("leaving reviewing clears the review time", func(t *testing.T) {
		f := newFixture(t, defaultSettings())
		topic := f.addTopic(domain.StageReviewing, domain.GemRuby)

		moved, err := f.svc.MoveTopic(ctx, f.userID, topic.ID, domain.StageMastered)
		require.NoError(t, err)
		assert.Nil(t, moved.NextReviewAt)
		stored := f.mem.Topic(topic.ID)
		assert.Equal(t, domain.StageMastered, stored.Stage)
		assert.Nil(t, stored.NextReviewAt)
	})

	t.Run("same stage is a no-op", func(t *testing.T) {
		f := newFixture(t, defaultSettings())
		topic := f.addTopic(domain.StageLearning, domain.GemRuby)

		moved, err := f.svc.MoveTopic(ctx, f.userID, topic.ID, domain.StageLearning)
		require.NoError(t, err)
		assert.Equal(t, domain.StageLearning, moved.Stage)
		assert.Empty(t, f.mem.ReviewEntries())
	})

	t.Run("reviewing is entered only by studying", func(t *testing.T) {
		f := newFixture(t, defaultSettings())
		topic := f.addTopic(domain.StageLearning, domain.GemRuby)

		_, err := f.svc.MoveTopic(ctx, f.userID, topic.ID, domain.StageReviewing)
		assert.ErrorIs(t, err, ErrStageNotAllowed)
		assert.Equal(t, domain.StageLearning, f.mem.Topic(topic.ID).Stage)
	})

	t.Run("purchased topics stay mastered", func(t *testing.T) {
		f := newFixture(t, defaultSettings())
		topic := f.addTopic(domain.StageMastered, domain.GemRuby)
		topic.Purchased = true
		f.mem.PutTopic(topic)

		_, err := f.svc.MoveTopic(ctx, f.userID, topic.ID, domain.StageLearning)
		assert.ErrorIs(t, err, ErrStageNotAllowed)
	})

	t.Run("foreign topics are not found", func(t *testing.T) {
		f := newFixture(t, defaultSettings())
		topic := f.addTopic(domain.StageBacklog, domain.GemRuby)

		_, err := f.svc.MoveTopic(ctx, uuid.New(), topic.ID, domain.StageToday)
		assert.ErrorIs(t, err, ErrTopicNotFound)
	})
}
