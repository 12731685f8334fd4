// Package app assembles the course generation pipeline and its backing
// services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/KartikyaSokhal/CourseCraft/internal/ai"
	"github.com/KartikyaSokhal/CourseCraft/internal/coursegen"
	"github.com/KartikyaSokhal/CourseCraft/internal/outline"
	"github.com/KartikyaSokhal/CourseCraft/internal/platform/artifact"
	"github.com/KartikyaSokhal/CourseCraft/internal/platform/cache"
	"github.com/KartikyaSokhal/CourseCraft/internal/platform/config"
	"github.com/KartikyaSokhal/CourseCraft/internal/platform/database"
	"github.com/KartikyaSokhal/CourseCraft/internal/platform/httpx"
	"github.com/KartikyaSokhal/CourseCraft/internal/video"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// App holds the wired pipeline and everything that must be closed with it.
type App struct {
	Pipeline *coursegen.Pipeline
	Router   *ai.Router

	checks  map[string]Check
	closers []func()
}

// Build wires every component named in cfg. Optional backends (Redis,
// Postgres, GCS, YouTube) are used only when configured; otherwise their
// in-process or fallback counterparts take over.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{checks: map[string]Check{}}

	router, err := BuildRouter(cfg.AI)
	if err != nil {
		return nil, err
	}
	a.Router = router
	a.checks["ai"] = router.HealthCheck

	resolver, err := a.buildResolver(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.buildArtifacts(ctx, cfg.Artifacts)
	if err != nil {
		a.Close()
		return nil, err
	}

	events, err := a.buildEvents(ctx, cfg.Database)
	if err != nil {
		a.Close()
		return nil, err
	}

	var budget ai.BudgetChecker
	if cfg.Generation.TokenBudget > 0 {
		budget = ai.NewInMemoryBudget(cfg.Generation.TokenBudget)
	}

	a.Pipeline = coursegen.New(coursegen.Config{
		Provider:        router,
		Resolver:        resolver,
		Artifacts:       store,
		Events:          events,
		Budget:          budget,
		Validator:       outline.Validator{StrictQuiz: cfg.Generation.StrictQuiz},
		Model:           cfg.AI.Model,
		Temperature:     cfg.AI.Temperature,
		ProviderTimeout: cfg.AI.Timeout,
		JSONMode:        cfg.AI.JSONMode,
	})

	slog.Info("pipeline ready",
		"providers", router.Names(),
		"youtube", cfg.YouTube.APIKey != "",
		"redis", cfg.Cache.URL != "",
		"postgres", cfg.Database.URL != "",
		"gcs", cfg.Artifacts.GCSBucket != "",
	)
	return a, nil
}

// BuildRouter registers every configured provider and applies the preferred
// one, if named.
func BuildRouter(cfg config.AIConfig) (*ai.Router, error) {
	router := ai.NewRouter()

	if cfg.OpenAI.APIKey != "" {
		var opts []ai.OpenAIOption
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, ai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey, opts...))
	}
	if cfg.Anthropic.APIKey != "" {
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey)
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		router.Register("anthropic", p)
	}
	if cfg.DeepSeek.APIKey != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(cfg.DeepSeek.APIKey))
	}
	if cfg.Google.APIKey != "" {
		router.Register("google", ai.NewGoogleProvider(cfg.Google.APIKey))
	}
	if cfg.OpenRouter.APIKey != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(cfg.OpenRouter.APIKey))
	}
	if cfg.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL))
	}

	if cfg.Provider != "" {
		if err := router.Prefer(cfg.Provider); err != nil {
			return nil, err
		}
	}
	return router, nil
}

func (a *App) buildResolver(ctx context.Context, cfg *config.Config) (*video.Resolver, error) {
	rc := video.ResolverConfig{
		FallbackEmbedURL: cfg.YouTube.FallbackEmbedURL,
		CacheTTL:         cfg.YouTube.CacheTTL,
		MaxResults:       cfg.YouTube.MaxResults,
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		a.checks["cache"] = c.HealthCheck
		rc.Cache = c
	} else {
		rc.Cache = cache.NewMemory()
	}

	if cfg.YouTube.APIKey != "" {
		retries := cfg.YouTube.MaxRetries
		if retries == 0 {
			retries = -1
		}
		opts := []video.YouTubeOption{
			video.WithCallTimeout(cfg.YouTube.Timeout),
			video.WithRetryPolicy(httpx.RetryPolicy{MaxRetries: retries}),
		}
		if cfg.YouTube.Endpoint != "" {
			opts = append(opts, video.WithEndpoint(cfg.YouTube.Endpoint))
		}
		yt, err := video.NewYouTubeClient(ctx, cfg.YouTube.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		rc.Searcher = yt
		rc.Verifier = yt
	} else {
		slog.Warn("no YouTube API key configured; every lesson will use the fallback video")
	}

	return video.NewResolver(rc), nil
}

func (a *App) buildArtifacts(ctx context.Context, cfg config.ArtifactConfig) (artifact.Store, error) {
	if cfg.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating storage client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return artifact.NewGCSStore(client, cfg.GCSBucket, cfg.GCSPrefix)
	}
	return artifact.NewFileStore(cfg.Dir)
}

func (a *App) buildEvents(ctx context.Context, cfg config.DatabaseConfig) (coursegen.EventLogger, error) {
	if cfg.URL == "" {
		return coursegen.NopEventLogger{}, nil
	}
	db, err := database.New(ctx, cfg.URL, cfg.MaxConns, cfg.MinConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	a.checks["database"] = db.HealthCheck

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return coursegen.NewPostgresEventLogger(db.Pool), nil
}

// Ready runs every readiness check and joins their failures.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close releases backends in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// NewLogger builds the process logger. Format "text" selects a text handler;
// anything else logs JSON.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown values
// mean info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
