package srs

import (
	"fmt"
	"sort"
)

const (
	// MinScore and MaxScore bound the self-assessed session score.
	MinScore = 1
	MaxScore = 5
)

// Params defines the score to interval mapping used when a topic enters review.
// The mapping is independent of the topic's difficulty.
type Params struct {
	// IntervalDays maps each score to the number of days until the next review.
	IntervalDays map[int]int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		IntervalDays: map[int]int{
			1: 1,
			2: 2,
			3: 4,
			4: 7,
			5: 14,
		},
	}
}

// NewParams builds Params from a configured table. Scores missing from the
// table keep their default interval.
func NewParams(intervals map[int]int) (*Params, error) {
	params := NewDefaultParams()
	for score, days := range intervals {
		params.IntervalDays[score] = days
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks that every score has a positive interval and that a
// better score never schedules an earlier review.
func (p *Params) Validate() error {
	scores := make([]int, 0, len(p.IntervalDays))
	for score := range p.IntervalDays {
		if score < MinScore || score > MaxScore {
			return fmt.Errorf("%w: score %d outside %d-%d", ErrInvalidScore, score, MinScore, MaxScore)
		}
		scores = append(scores, score)
	}
	sort.Ints(scores)
	for i, score := range scores {
		days := p.IntervalDays[score]
		if days < 1 {
			return fmt.Errorf("%w: interval for score %d must be at least one day", ErrInvalidInterval, score)
		}
		if i > 0 && days < p.IntervalDays[scores[i-1]] {
			return fmt.Errorf("%w: interval for score %d is shorter than for score %d",
				ErrInvalidInterval, score, scores[i-1])
		}
	}
	for s := MinScore; s <= MaxScore; s++ {
		if _, ok := p.IntervalDays[s]; !ok {
			return fmt.Errorf("%w: no interval for score %d", ErrInvalidInterval, s)
		}
	}
	return nil
}
