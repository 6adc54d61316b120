package study

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/domain/srs"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/store"
)

// studyServiceImpl implements the Service interface
type studyServiceImpl struct {
	tx       store.Transactor
	srs      srs.Service
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new study service.
// It returns an error if any of the required dependencies are nil or the
// rewards are negative.
func NewService(tx store.Transactor, srsService srs.Service, settings Settings, logger *slog.Logger) (Service, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if srsService == nil {
		return nil, domain.NewValidationError("srsService", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		return nil, domain.NewValidationError("logger", "cannot be nil", domain.ErrValidation)
	}
	if settings.XPPerSession < 0 || settings.GemsPerSession < 0 {
		return nil, domain.NewValidationError("settings", "rewards must not be negative", domain.ErrValidation)
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}

	return &studyServiceImpl{
		tx:       tx,
		srs:      srsService,
		settings: settings,
		logger:   logger.With(slog.String("component", "study_service")),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// CompleteSession implements Service.CompleteSession
func (s *studyServiceImpl) CompleteSession(ctx context.Context, userID, topicID uuid.UUID, score int) (*SessionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("topic_id", topicID.String()),
		slog.Int("score", score),
	)
	now := s.now()

	days, err := s.srs.IntervalDays(score)
	if err != nil {
		return nil, err
	}
	nextReviewAt, err := s.srs.NextReviewAt(score, now)
	if err != nil {
		return nil, err
	}

	var result *SessionResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		topic, err := s.ownedTopic(ctx, st, "complete_session", userID, topicID)
		if err != nil {
			return err
		}
		if topic.Purchased || topic.Stage == domain.StageMastered {
			return ErrNotStudyable
		}

		entry := domain.NewReviewEntry(topic, domain.StageReviewing, now)
		if err := st.Topics.UpdateStage(ctx, topic.ID, domain.StageReviewing, &nextReviewAt, now); err != nil {
			return NewServiceError("complete_session", "failed to schedule review", err)
		}
		if err := st.ReviewLog.Append(ctx, entry); err != nil {
			return NewServiceError("complete_session", "failed to record stage change", err)
		}
		topic.Stage = domain.StageReviewing
		topic.NextReviewAt = &nextReviewAt
		topic.UpdatedAt = now

		stats, err := st.Stats.GetForUpdate(ctx, userID)
		if err != nil {
			return NewServiceError("complete_session", "failed to lock stats", err)
		}
		stats.RecordStudy(s.settings.XPPerSession, now, s.settings.Location)
		if err := st.Stats.Save(ctx, stats); err != nil {
			return NewServiceError("complete_session", "failed to save stats", err)
		}

		wallet, err := st.Wallets.GetForUpdate(ctx, userID)
		if err != nil {
			return NewServiceError("complete_session", "failed to lock wallet", err)
		}
		earned := domain.Gems{}.With(topic.DiscountGem, s.settings.GemsPerSession)
		wallet.Credit(earned)
		wallet.UpdatedAt = now
		if err := st.Wallets.Save(ctx, wallet); err != nil {
			return NewServiceError("complete_session", "failed to save wallet", err)
		}

		result = &SessionResult{
			Topic:        topic,
			IntervalDays: days,
			Stats:        stats,
			Earned:       earned,
			Wallet:       wallet,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTopicNotFound) || errors.Is(err, ErrNotStudyable) {
			log.DebugContext(ctx, "study session rejected", slog.String("reason", err.Error()))
		} else {
			log.ErrorContext(ctx, "failed to complete study session", slog.String("error", err.Error()))
		}
		return nil, err
	}

	log.InfoContext(ctx, "study session completed",
		slog.Time("next_review_at", nextReviewAt),
		slog.Int("streak", result.Stats.CurrentStreak),
	)
	return result, nil
}

// MoveTopic implements Service.MoveTopic
func (s *studyServiceImpl) MoveTopic(ctx context.Context, userID, topicID uuid.UUID, stage domain.Stage) (*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("topic_id", topicID.String()),
		slog.String("stage", string(stage)),
	)
	if !stage.IsBoardStage() {
		return nil, ErrStageNotAllowed
	}
	now := s.now()

	var moved *domain.Topic
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		topic, err := s.ownedTopic(ctx, st, "move_topic", userID, topicID)
		if err != nil {
			return err
		}
		if topic.Stage == stage {
			moved = topic
			return nil
		}
		if topic.Purchased {
			return ErrStageNotAllowed
		}

		entry := domain.NewReviewEntry(topic, stage, now)
		if err := st.Topics.UpdateStage(ctx, topic.ID, stage, nil, now); err != nil {
			return NewServiceError("move_topic", "failed to update stage", err)
		}
		if err := st.ReviewLog.Append(ctx, entry); err != nil {
			return NewServiceError("move_topic", "failed to record stage change", err)
		}

		topic.Stage = stage
		topic.NextReviewAt = nil
		topic.UpdatedAt = now
		moved = topic
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTopicNotFound) || errors.Is(err, ErrStageNotAllowed) {
			log.DebugContext(ctx, "board move rejected", slog.String("reason", err.Error()))
		} else {
			log.ErrorContext(ctx, "failed to move topic", slog.String("error", err.Error()))
		}
		return nil, err
	}

	log.DebugContext(ctx, "topic moved")
	return moved, nil
}

func (s *studyServiceImpl) ownedTopic(
	ctx context.Context,
	st store.Stores,
	operation string,
	userID, topicID uuid.UUID,
) (*domain.Topic, error) {
	topic, err := st.Topics.GetForUpdate(ctx, topicID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, NewServiceError(operation, "failed to load topic", err)
	}
	if topic.UserID != userID {
		return nil, ErrTopicNotFound
	}
	return topic, nil
}
