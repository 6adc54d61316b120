// Package srs computes when a studied topic should come back for review.
package srs

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidScore    = errors.New("invalid session score")
	ErrInvalidInterval = errors.New("invalid review interval")
)

// Service defines the interface for review scheduling calculations
type Service interface {
	// NextReviewAt returns when a topic studied at now with the given score is due again.
	NextReviewAt(score int, now time.Time) (time.Time, error)

	// IntervalDays returns the configured interval for a score.
	IntervalDays(score int) (int, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() (Service, error) {
	return NewServiceWithParams(NewDefaultParams())
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{params: params}, nil
}

// IntervalDays implements Service.
func (s *defaultService) IntervalDays(score int) (int, error) {
	days, ok := s.params.IntervalDays[score]
	if !ok {
		return 0, ErrInvalidScore
	}
	return days, nil
}

// NextReviewAt implements Service.
func (s *defaultService) NextReviewAt(score int, now time.Time) (time.Time, error) {
	days, err := s.IntervalDays(score)
	if err != nil {
		return time.Time{}, err
	}
	return now.UTC().AddDate(0, 0, days), nil
}
