// Package brief loads course briefs: YAML files that describe courses to
// generate in bulk, each optionally paired with a free-form notes file.
package brief

import (
	"strings"

	"github.com/KartikyaSokhal/CourseCraft/internal/coursegen"
)

// Brief describes one course to generate.
type Brief struct {
	ID           string `yaml:"id"`
	Prompt       string `yaml:"prompt"`
	Lessons      int    `yaml:"lessons"`
	DurationDays int    `yaml:"duration_days"`
	RequestedBy  string `yaml:"requested_by"`

	// Notes comes from <name>.notes.md next to the brief.
	Notes string `yaml:"-"`
}

// Request converts the brief to a pipeline request. Notes are appended to the
// prompt as extra guidance.
func (b Brief) Request() coursegen.Request {
	prompt := strings.TrimSpace(b.Prompt)
	if notes := strings.TrimSpace(b.Notes); notes != "" {
		prompt += "\n\nAdditional guidance:\n" + notes
	}
	return coursegen.Request{
		Prompt:       prompt,
		Lessons:      b.Lessons,
		DurationDays: b.DurationDays,
		RequestedBy:  b.RequestedBy,
	}
}
