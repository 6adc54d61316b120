// Package scheduler runs the periodic jobs of the review pipeline: admitting
// overdue reviewing topics into today's column under a global daily cap, and
// resetting the streaks of users who missed a day.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/events"
	"github.com/phrazzld/studyquest/internal/store"
)

const (
	jobAdvance = "advance"
	jobDecay   = "decay"
)

// ErrAlreadyStarted is returned by Start on a running scheduler.
var ErrAlreadyStarted = errors.New("scheduler already started")

// Config holds the job timings and the admission cap.
type Config struct {
	// AdvanceInterval is the period of the admission cycle.
	AdvanceInterval time.Duration

	// DecayAt is the local wall-clock time, as HH:MM, of the daily streak decay.
	DecayAt string

	// Location defines both the decay time and where a day begins.
	Location *time.Location

	// DailyCap bounds the number of topics in today across all users.
	DailyCap int
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		AdvanceInterval: 5 * time.Minute,
		DecayAt:         "00:05",
		Location:        time.UTC,
		DailyCap:        10,
	}
}

// AdvanceResult describes one admission cycle.
type AdvanceResult struct {
	// Today is the number of topics in today before the cycle.
	Today int
	// Available is how many topics the cap allowed the cycle to admit.
	Available int
	// Admitted lists the topics moved from reviewing to today, oldest first.
	Admitted []*domain.Topic
}

// Scheduler owns the gocron jobs of the review pipeline.
type Scheduler struct {
	tx      store.Transactor
	emitter events.EventEmitter
	config  Config
	cron    *gocron.Scheduler
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	started bool
}

// New creates a Scheduler. The emitter may be nil.
func New(tx store.Transactor, config Config, emitter events.EventEmitter, logger *slog.Logger) (*Scheduler, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if config.AdvanceInterval <= 0 {
		return nil, domain.NewValidationError("advance_interval", "must be positive", domain.ErrValidation)
	}
	if config.DailyCap < 0 {
		return nil, domain.NewValidationError("daily_cap", "must not be negative", domain.ErrValidation)
	}
	if _, err := time.Parse("15:04", config.DecayAt); err != nil {
		return nil, domain.NewValidationError("decay_at", "must be HH:MM", domain.ErrValidation)
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		tx:      tx,
		emitter: emitter,
		config:  config,
		cron:    gocron.NewScheduler(config.Location),
		logger:  logger.With(slog.String("component", "scheduler")),
		now:     time.Now,
	}, nil
}

// Start runs a catch-up streak decay, so a process that was down at the
// decay time still resets stale streaks, then schedules both jobs.
// A failed catch-up is returned and nothing is scheduled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}

	reset, err := s.RunStreakDecay(ctx, s.now())
	if err != nil {
		return fmt.Errorf("startup streak decay failed: %w", err)
	}
	s.logger.InfoContext(ctx, "startup streak decay complete", slog.Int("reset", reset))

	// Jobs outlive the caller's context; they stop with Stop.
	jobCtx := context.WithoutCancel(ctx)

	if _, err := s.cron.Every(s.config.AdvanceInterval).
		Tag(jobAdvance).
		SingletonMode().
		Do(func() { s.advanceJob(jobCtx) }); err != nil {
		return fmt.Errorf("failed to schedule %s job: %w", jobAdvance, err)
	}
	if _, err := s.cron.Every(1).Day().At(s.config.DecayAt).
		Tag(jobDecay).
		SingletonMode().
		Do(func() { s.decayJob(jobCtx) }); err != nil {
		s.cron.Clear()
		return fmt.Errorf("failed to schedule %s job: %w", jobDecay, err)
	}

	s.cron.StartAsync()
	s.started = true

	s.logger.InfoContext(ctx, "scheduler started",
		slog.Duration("advance_interval", s.config.AdvanceInterval),
		slog.String("decay_at", s.config.DecayAt),
		slog.String("timezone", s.config.Location.String()),
		slog.Int("daily_cap", s.config.DailyCap),
	)
	return nil
}

// Stop stops scheduling new runs and waits for running jobs to finish.
// The jobs are dropped, so a later Start registers each job once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cron.Stop()
	s.cron = gocron.NewScheduler(s.config.Location)
	s.started = false
	s.logger.Info("scheduler stopped")
}

// RunAdvancementCycle admits overdue reviewing topics into today, oldest
// first, until the global daily cap is reached. The whole cycle is one
// transaction; on failure no topic moves and the next cycle retries.
func (s *Scheduler) RunAdvancementCycle(ctx context.Context, now time.Time) (AdvanceResult, error) {
	now = now.UTC()

	var result AdvanceResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		result = AdvanceResult{}

		if err := st.Topics.LockAdmission(ctx); err != nil {
			return fmt.Errorf("failed to acquire admission lock: %w", err)
		}

		today, err := st.Topics.CountInStage(ctx, domain.StageToday)
		if err != nil {
			return fmt.Errorf("failed to count today topics: %w", err)
		}
		result.Today = today
		result.Available = max(0, s.config.DailyCap-today)
		if result.Available == 0 {
			return nil
		}

		due, err := st.Topics.ListDueForReview(ctx, now, result.Available)
		if err != nil {
			return fmt.Errorf("failed to list overdue topics: %w", err)
		}

		for _, topic := range due {
			entry := domain.NewReviewEntry(topic, domain.StageToday, now)
			if err := st.Topics.UpdateStage(ctx, topic.ID, domain.StageToday, nil, now); err != nil {
				return fmt.Errorf("failed to admit topic %s: %w", topic.ID, err)
			}
			if err := st.ReviewLog.Append(ctx, entry); err != nil {
				return fmt.Errorf("failed to record admission of topic %s: %w", topic.ID, err)
			}
			topic.Stage = domain.StageToday
			topic.NextReviewAt = nil
			topic.UpdatedAt = now
			result.Admitted = append(result.Admitted, topic)
		}
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}

	s.emitAdmissions(ctx, result)
	return result, nil
}

// RunStreakDecay resets the current streak of every user whose last study
// day is before yesterday in the scheduler's timezone. Longest streaks are
// kept. It returns the number of users reset.
func (s *Scheduler) RunStreakDecay(ctx context.Context, now time.Time) (int, error) {
	cutoff := domain.StreakCutoff(now, s.config.Location)

	var reset int
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		n, err := st.Stats.ResetStaleStreaks(ctx, cutoff, now.UTC())
		if err != nil {
			return fmt.Errorf("failed to reset stale streaks: %w", err)
		}
		reset = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reset, nil
}

func (s *Scheduler) advanceJob(ctx context.Context) {
	log := s.logger.With(slog.String("job", jobAdvance))
	start := time.Now()

	result, err := s.RunAdvancementCycle(ctx, s.now())
	if err != nil {
		log.ErrorContext(ctx, "scheduled job failed", slog.String("error", err.Error()))
		return
	}
	if len(result.Admitted) == 0 {
		log.DebugContext(ctx, "no topics admitted",
			slog.Int("today", result.Today),
			slog.Int("available", result.Available),
		)
		return
	}
	log.InfoContext(ctx, "topics admitted",
		slog.Int("admitted", len(result.Admitted)),
		slog.Int("today", result.Today+len(result.Admitted)),
		slog.Int("daily_cap", s.config.DailyCap),
		slog.Duration("duration", time.Since(start)),
	)
}

func (s *Scheduler) decayJob(ctx context.Context) {
	log := s.logger.With(slog.String("job", jobDecay))

	reset, err := s.RunStreakDecay(ctx, s.now())
	if err != nil {
		log.ErrorContext(ctx, "scheduled job failed", slog.String("error", err.Error()))
		return
	}
	log.InfoContext(ctx, "streaks decayed", slog.Int("reset", reset))
}

// emitAdmissions publishes one event per user whose topics were admitted.
func (s *Scheduler) emitAdmissions(ctx context.Context, result AdvanceResult) {
	if len(result.Admitted) == 0 {
		return
	}
	byUser := make(map[uuid.UUID][]uuid.UUID)
	var order []uuid.UUID
	for _, t := range result.Admitted {
		if _, ok := byUser[t.UserID]; !ok {
			order = append(order, t.UserID)
		}
		byUser[t.UserID] = append(byUser[t.UserID], t.ID)
	}
	for _, userID := range order {
		events.Emit(ctx, s.emitter, s.logger, events.TypeTopicsAdmitted, userID, events.TopicsAdmitted{
			TopicIDs: byUser[userID],
			Today:    result.Today + len(result.Admitted),
			Cap:      s.config.DailyCap,
		})
	}
}
