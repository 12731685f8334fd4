package coursegen

import (
	"fmt"
	"strings"
)

const (
	DefaultLessons      = 5
	DefaultDurationDays = 30

	MaxLessons      = 20
	MaxDurationDays = 365
)

// Request asks for one generated course.
type Request struct {
	Prompt       string `json:"prompt"`
	Lessons      int    `json:"lessons"`
	DurationDays int    `json:"duration_days"`
	RequestedBy  string `json:"-"`
}

// withDefaults fills zero counts with the defaults.
func (r Request) withDefaults() Request {
	if r.Lessons == 0 {
		r.Lessons = DefaultLessons
	}
	if r.DurationDays == 0 {
		r.DurationDays = DefaultDurationDays
	}
	r.Prompt = strings.TrimSpace(r.Prompt)
	return r
}

// Validate checks the request bounds.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt is required")
	}
	if r.Lessons < 1 || r.Lessons > MaxLessons {
		return fmt.Errorf("lessons must be between 1 and %d, got %d", MaxLessons, r.Lessons)
	}
	if r.DurationDays < 1 || r.DurationDays > MaxDurationDays {
		return fmt.Errorf("duration_days must be between 1 and %d, got %d", MaxDurationDays, r.DurationDays)
	}
	return nil
}
