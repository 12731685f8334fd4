// Package coursegen turns a natural-language prompt into a validated course
// outline with one verified video per lesson.
package coursegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KartikyaSokhal/CourseCraft/internal/ai"
	"github.com/KartikyaSokhal/CourseCraft/internal/outline"
	"github.com/KartikyaSokhal/CourseCraft/internal/platform/artifact"
	"github.com/KartikyaSokhal/CourseCraft/internal/video"
)

const (
	defaultTemperature     = 0.7
	defaultProviderTimeout = 60 * time.Second

	rawArtifactPrefix = "openai_raw"
	anonymous         = "anonymous"
)

// Completer sends a chat completion to a generative-text provider.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// VideoResolver picks a video for a lesson's search query.
type VideoResolver interface {
	Resolve(ctx context.Context, query string, exclude map[string]struct{}) video.Resolution
}

// Config holds dependencies for the pipeline.
type Config struct {
	Provider        Completer
	Resolver        VideoResolver    // default: a resolver that always falls back
	Artifacts       artifact.Store   // nil disables raw response archiving
	Events          EventLogger      // default: NopEventLogger
	Budget          ai.BudgetChecker // nil means unlimited
	Validator       outline.Validator
	Model           string        // provider default when empty
	Temperature     float64       // default 0.7
	ProviderTimeout time.Duration // default 60s
	JSONMode        bool
}

// Pipeline generates courses. It holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	provider        Completer
	resolver        VideoResolver
	artifacts       artifact.Store
	events          EventLogger
	budget          ai.BudgetChecker
	validator       outline.Validator
	model           string
	temperature     float64
	providerTimeout time.Duration
	jsonMode        bool
}

// LessonFallback records a lesson whose video resolution fell back.
type LessonFallback struct {
	Lesson int    `json:"lesson" yaml:"lesson"` // 1-based
	Query  string `json:"query" yaml:"query"`
	Reason string `json:"reason" yaml:"reason"`
}

// Result is a successfully generated course plus run metadata.
type Result struct {
	RunID          string           `json:"run_id" yaml:"run_id"`
	Course         outline.Course   `json:"course" yaml:"course"`
	RawArtifactRef string           `json:"raw_artifact_ref,omitempty" yaml:"raw_artifact_ref,omitempty"`
	UsedFallback   bool             `json:"used_fallback" yaml:"used_fallback"`
	Fallbacks      []LessonFallback `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
	Model          string           `json:"model,omitempty" yaml:"model,omitempty"`
}

// New creates a pipeline, filling unset config with defaults.
func New(cfg Config) *Pipeline {
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = video.NewResolver(video.ResolverConfig{})
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	timeout := cfg.ProviderTimeout
	if timeout == 0 {
		timeout = defaultProviderTimeout
	}
	return &Pipeline{
		provider:        cfg.Provider,
		resolver:        resolver,
		artifacts:       cfg.Artifacts,
		events:          events,
		budget:          cfg.Budget,
		validator:       cfg.Validator,
		model:           cfg.Model,
		temperature:     temperature,
		providerTimeout: timeout,
		jsonMode:        cfg.JSONMode,
	}
}

// run carries the identity of one Generate call.
type run struct {
	id          string
	requestedBy string
	log         *slog.Logger
}

// Generate runs one course generation. Every failure is a *GenerationError;
// video lookups never fail the run.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	req = req.withDefaults()
	requestedBy := req.RequestedBy
	if requestedBy == "" {
		requestedBy = anonymous
	}
	r := run{id: uuid.NewString(), requestedBy: requestedBy}
	r.log = slog.With("run_id", r.id, "requested_by", requestedBy)

	if err := req.Validate(); err != nil {
		return nil, p.fail(r, KindInvalidRequest, err.Error(), "", err)
	}

	r.log.Info("course generation started",
		"lessons", req.Lessons,
		"duration_days", req.DurationDays,
		"prompt_len", len(req.Prompt),
	)
	p.logEvent(r, EventStarted, map[string]any{
		"lessons":       req.Lessons,
		"duration_days": req.DurationDays,
		"prompt_len":    len(req.Prompt),
	})

	if p.provider == nil {
		return nil, p.fail(r, KindProvider, "AI provider not configured.", "", ai.ErrNoProvider)
	}
	if err := p.checkBudget(r); err != nil {
		return nil, err
	}

	resp, err := p.complete(ctx, req)
	if err != nil {
		return nil, p.fail(r, KindProvider, fmt.Sprintf("AI provider error: %v", err), "", err)
	}
	p.recordUsage(r, resp)

	ref := p.saveRaw(ctx, r, resp.Content)

	v, err := outline.Parse(resp.Content)
	if err != nil {
		return nil, p.fail(r, KindParse, "Could not parse JSON from AI response.", ref, err)
	}
	if err := p.validator.Validate(v, req.Lessons); err != nil {
		msg := err.Error()
		var se *outline.SchemaError
		if errors.As(err, &se) {
			msg = se.Message
		}
		return nil, p.fail(r, KindSchema, "Schema validation failed: "+msg, ref, err)
	}
	course, err := outline.Decode(v)
	if err != nil {
		return nil, p.fail(r, KindSchema, "Schema validation failed: "+err.Error(), ref, err)
	}

	result := &Result{
		RunID:          r.id,
		RawArtifactRef: ref,
		Model:          resp.Model,
	}
	p.resolveVideos(ctx, r, &course, result)
	result.Course = course

	r.log.Info("course generation completed",
		"lessons", len(course.Lessons),
		"used_fallback", result.UsedFallback,
		"fallbacks", len(result.Fallbacks),
	)
	p.logEvent(r, EventCompleted, map[string]any{
		"lessons":          len(course.Lessons),
		"used_fallback":    result.UsedFallback,
		"fallbacks":        len(result.Fallbacks),
		"raw_artifact_ref": ref,
		"model":            resp.Model,
	})
	return result, nil
}

func (p *Pipeline) complete(ctx context.Context, req Request) (ai.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.providerTimeout)
	defer cancel()

	return p.provider.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: systemInstruction(req.Lessons, req.DurationDays)},
			{Role: "user", Content: req.Prompt},
		},
		Model:       p.model,
		Temperature: p.temperature,
		JSONMode:    p.jsonMode,
	})
}

// resolveVideos assigns a video to every lesson in order. Each resolved ID is
// excluded from the lessons after it.
func (p *Pipeline) resolveVideos(ctx context.Context, r run, course *outline.Course, result *Result) {
	used := make(map[string]struct{}, len(course.Lessons))
	for i := range course.Lessons {
		lesson := &course.Lessons[i]

		res := p.resolver.Resolve(ctx, lesson.YouTubeSearchQuery, used)
		lesson.VideoURL = res.EmbedURL

		if res.UsedFallback() {
			result.UsedFallback = true
			result.Fallbacks = append(result.Fallbacks, LessonFallback{
				Lesson: i + 1,
				Query:  lesson.YouTubeSearchQuery,
				Reason: string(res.Reason),
			})
			r.log.Warn("lesson video fell back",
				"lesson", i+1,
				"query", lesson.YouTubeSearchQuery,
				"reason", string(res.Reason),
			)
		}

		if id := video.IDFromEmbedURL(res.EmbedURL); id != "" {
			used[id] = struct{}{}
		}
	}
}

func (p *Pipeline) saveRaw(ctx context.Context, r run, text string) string {
	if p.artifacts == nil {
		return ""
	}
	ref, err := p.artifacts.Save(ctx, rawArtifactPrefix, text)
	if err != nil {
		r.log.Error("failed to save raw response", "error", err)
		return ""
	}
	r.log.Debug("raw response saved", "ref", ref, "bytes", len(text))
	return ref
}

func (p *Pipeline) checkBudget(r run) error {
	if p.budget == nil {
		return nil
	}
	ok, err := p.budget.Check(r.requestedBy)
	if err != nil {
		r.log.Warn("budget check failed", "error", err)
		return nil
	}
	if ok {
		return nil
	}
	used, limit, _ := p.budget.Usage(r.requestedBy)
	return p.fail(r, KindBudget,
		fmt.Sprintf("Token budget exhausted (%d of %d tokens used).", used, limit), "", nil)
}

func (p *Pipeline) recordUsage(r run, resp ai.CompletionResponse) {
	if p.budget == nil {
		return
	}
	if err := p.budget.Record(r.requestedBy, resp.TotalTokens()); err != nil {
		r.log.Warn("failed to record token usage", "error", err)
	}
}

func (p *Pipeline) fail(r run, kind Kind, msg, ref string, cause error) *GenerationError {
	attrs := []any{"kind", string(kind), "error", msg}
	if ref != "" {
		attrs = append(attrs, "raw_artifact_ref", ref)
	}
	r.log.Warn("course generation failed", attrs...)

	p.logEvent(r, EventFailed, map[string]any{
		"kind":             string(kind),
		"error":            msg,
		"raw_artifact_ref": ref,
	})
	return &GenerationError{Kind: kind, Message: msg, RawArtifactRef: ref, Err: cause}
}

func (p *Pipeline) logEvent(r run, eventType string, data map[string]any) {
	if err := p.events.LogEvent(Event{
		RunID:       r.id,
		RequestedBy: r.requestedBy,
		EventType:   eventType,
		Data:        data,
	}); err != nil {
		r.log.Warn("failed to log run event", "type", eventType, "error", err)
	}
}
