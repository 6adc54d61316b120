package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserStats tracks experience and study streaks for a user.
type UserStats struct {
	UserID        uuid.UUID  `json:"user_id"`
	XP            int        `json:"xp"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastStudyDate *time.Time `json:"last_study_date,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewUserStats returns zeroed stats for the user.
func NewUserStats(userID uuid.UUID) *UserStats {
	return &UserStats{UserID: userID, UpdatedAt: time.Now().UTC()}
}

// DateOf returns the calendar date of t in loc, as midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StreakCutoff is the oldest last-study date that keeps a streak alive
// when evaluated at now: yesterday's date in loc.
func StreakCutoff(now time.Time, loc *time.Location) time.Time {
	return DateOf(now, loc).AddDate(0, 0, -1)
}

// RecordStudy credits xp and advances the streak for a session at now.
// Studying twice on the same day keeps the streak; studying on the day after
// the last session extends it; any longer gap restarts it at one.
func (s *UserStats) RecordStudy(xp int, now time.Time, loc *time.Location) {
	today := DateOf(now, loc)
	switch {
	case s.LastStudyDate != nil && s.LastStudyDate.Equal(today):
		if s.CurrentStreak == 0 {
			s.CurrentStreak = 1
		}
	case s.LastStudyDate != nil && s.LastStudyDate.Equal(today.AddDate(0, 0, -1)):
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.XP += xp
	s.LastStudyDate = &today
	s.UpdatedAt = now.UTC()
}

// StreakExpired reports whether the streak should be reset when evaluated at now.
func (s *UserStats) StreakExpired(now time.Time, loc *time.Location) bool {
	if s.CurrentStreak == 0 {
		return false
	}
	return s.LastStudyDate == nil || s.LastStudyDate.Before(StreakCutoff(now, loc))
}
