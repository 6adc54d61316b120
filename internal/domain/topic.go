package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Topic-specific validation errors
var (
	// ErrTopicIDEmpty is returned when a topic ID is empty or nil.
	ErrTopicIDEmpty = errors.New("topic ID cannot be empty")

	// ErrTopicUserIDEmpty is returned when a topic's user ID is empty or nil.
	ErrTopicUserIDEmpty = errors.New("topic user ID cannot be empty")

	// ErrTopicSubjectIDEmpty is returned when a topic's subject ID is empty or nil.
	ErrTopicSubjectIDEmpty = errors.New("topic subject ID cannot be empty")

	// ErrTopicTitleEmpty is returned when a topic has no title.
	ErrTopicTitleEmpty = errors.New("topic title cannot be empty")

	// ErrNextReviewOutsideReviewing is returned when next_review_at is set on a
	// topic that is not in the reviewing stage, or missing on one that is.
	ErrNextReviewOutsideReviewing = errors.New("next review time is only valid while reviewing")

	// ErrPurchasedNotMastered is returned when a purchased topic is not mastered.
	ErrPurchasedNotMastered = errors.New("purchased topic must be mastered")
)

// Level is a three-step rating used for both difficulty and importance.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Valid reports whether l is one of the three known levels.
func (l Level) Valid() bool {
	return l == LevelHigh || l == LevelMedium || l == LevelLow
}

// Stage is a topic's position in the study pipeline.
type Stage string

const (
	StageBacklog   Stage = "backlog"
	StageToday     Stage = "today"
	StageLearning  Stage = "learning"
	StageReviewing Stage = "reviewing"
	StageMastered  Stage = "mastered"
)

// BoardStages are the columns a user moves topics between directly.
// Reviewing is entered only by completing a study session and left only
// through scheduler admission.
var BoardStages = []Stage{StageBacklog, StageToday, StageLearning, StageMastered}

// Valid reports whether s is a known stage, including reviewing.
func (s Stage) Valid() bool {
	switch s {
	case StageBacklog, StageToday, StageLearning, StageReviewing, StageMastered:
		return true
	}
	return false
}

// IsBoardStage reports whether users may move a topic into s directly.
func (s Stage) IsBoardStage() bool {
	for _, b := range BoardStages {
		if s == b {
			return true
		}
	}
	return false
}

// ParseStage converts user input into a Stage.
func ParseStage(s string) (Stage, error) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", NewValidationError("stage", "is not a known stage", ErrInvalidStage)
	}
	return st, nil
}

// Topic is a unit of study that moves through the pipeline and, once
// mastered, can be purchased with gems.
type Topic struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	SubjectID    uuid.UUID  `json:"subject_id"`
	Title        string     `json:"title"`
	Difficulty   Level      `json:"difficulty"`
	Importance   Level      `json:"importance"`
	Stage        Stage      `json:"stage"`
	NextReviewAt *time.Time `json:"next_review_at,omitempty"`
	Purchased    bool       `json:"purchased"`
	// DiscountGem is the currency granted as a permanent discount once the
	// topic is purchased. It comes from the owning subject.
	DiscountGem Gem       `json:"discount_gem"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTopic creates a backlog topic with a fresh ID and timestamps.
func NewTopic(userID, subjectID uuid.UUID, title string, difficulty, importance Level, gem Gem) (*Topic, error) {
	now := time.Now().UTC()
	t := &Topic{
		ID:          uuid.New(),
		UserID:      userID,
		SubjectID:   subjectID,
		Title:       title,
		Difficulty:  difficulty,
		Importance:  importance,
		Stage:       StageBacklog,
		DiscountGem: gem,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the topic's fields and lifecycle invariants.
func (t *Topic) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTopicIDEmpty
	}
	if t.UserID == uuid.Nil {
		return ErrTopicUserIDEmpty
	}
	if t.SubjectID == uuid.Nil {
		return ErrTopicSubjectIDEmpty
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrTopicTitleEmpty
	}
	if !t.Difficulty.Valid() {
		return NewValidationError("difficulty", "must be high, medium or low", ErrInvalidLevel)
	}
	if !t.Importance.Valid() {
		return NewValidationError("importance", "must be high, medium or low", ErrInvalidLevel)
	}
	if !t.Stage.Valid() {
		return NewValidationError("stage", "is not a known stage", ErrInvalidStage)
	}
	if !t.DiscountGem.Valid() {
		return NewValidationError("discount_gem", "is not a known gem", ErrInvalidGem)
	}
	if (t.Stage == StageReviewing) != (t.NextReviewAt != nil) {
		return ErrNextReviewOutsideReviewing
	}
	if t.Purchased && t.Stage != StageMastered {
		return ErrPurchasedNotMastered
	}
	return nil
}

// IsDue reports whether a reviewing topic's review time has passed.
func (t *Topic) IsDue(now time.Time) bool {
	return t.Stage == StageReviewing && t.NextReviewAt != nil && !t.NextReviewAt.After(now)
}
