// Package config loads application configuration from environment variables.
// All variables use the COURSECRAFT_ prefix. A .env file in the working
// directory is loaded first when present; real environment variables win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	AI         AIConfig
	YouTube    YouTubeConfig
	Artifacts  ArtifactConfig
	Generation GenerationConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	Host            string
	AdminToken      string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL disables
// the run event log.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL selects the
// in-process cache.
type CacheConfig struct {
	URL string
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	Provider    string // preferred provider name; empty means first configured
	Model       string
	Temperature float64
	Timeout     time.Duration
	JSONMode    bool

	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	DeepSeek   DeepSeekConfig
	Google     GoogleConfig
	Ollama     OllamaConfig
	OpenRouter OpenRouterConfig
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// AnthropicConfig holds Anthropic provider settings.
type AnthropicConfig struct {
	APIKey string
}

// DeepSeekConfig holds DeepSeek provider settings (OpenAI-compatible).
type DeepSeekConfig struct {
	APIKey string
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
}

// OpenRouterConfig holds OpenRouter provider settings.
type OpenRouterConfig struct {
	APIKey string
}

// YouTubeConfig holds video search settings. Without an API key every lesson
// receives the fallback embed.
type YouTubeConfig struct {
	APIKey           string
	Endpoint         string
	Timeout          time.Duration
	MaxRetries       int
	CacheTTL         time.Duration
	MaxResults       int
	FallbackEmbedURL string
}

// ArtifactConfig selects where raw model output is kept. GCSBucket wins over Dir.
type ArtifactConfig struct {
	Dir       string
	GCSBucket string
	GCSPrefix string
}

// GenerationConfig holds pipeline policy.
type GenerationConfig struct {
	StrictQuiz  bool
	TokenBudget int64 // per requester; 0 disables
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with the COURSECRAFT_
// prefix. envFiles are passed to godotenv; with none, ./.env is tried.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("COURSECRAFT_SERVER_PORT", 8080),
			Host:            envStr("COURSECRAFT_SERVER_HOST", "0.0.0.0"),
			AdminToken:      envStr("COURSECRAFT_ADMIN_TOKEN", ""),
			ShutdownTimeout: envDuration("COURSECRAFT_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:      envStr("COURSECRAFT_DATABASE_URL", ""),
			MaxConns: envInt("COURSECRAFT_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("COURSECRAFT_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL: envStr("COURSECRAFT_CACHE_URL", ""),
		},
		AI: AIConfig{
			Provider:    envStr("COURSECRAFT_AI_PROVIDER", ""),
			Model:       envStr("COURSECRAFT_AI_MODEL", ""),
			Temperature: envFloat("COURSECRAFT_AI_TEMPERATURE", 0.7),
			Timeout:     envDuration("COURSECRAFT_AI_TIMEOUT", 60*time.Second),
			JSONMode:    envBool("COURSECRAFT_AI_JSON_MODE", false),
			OpenAI: OpenAIConfig{
				APIKey:  envStr("COURSECRAFT_AI_OPENAI_API_KEY", ""),
				BaseURL: envStr("COURSECRAFT_AI_OPENAI_BASE_URL", ""),
			},
			Anthropic: AnthropicConfig{
				APIKey: envStr("COURSECRAFT_AI_ANTHROPIC_API_KEY", ""),
			},
			DeepSeek: DeepSeekConfig{
				APIKey: envStr("COURSECRAFT_AI_DEEPSEEK_API_KEY", ""),
			},
			Google: GoogleConfig{
				APIKey: envStr("COURSECRAFT_AI_GOOGLE_API_KEY", ""),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("COURSECRAFT_AI_OLLAMA_ENABLED", false),
				URL:     envStr("COURSECRAFT_AI_OLLAMA_URL", "http://localhost:11434"),
			},
			OpenRouter: OpenRouterConfig{
				APIKey: envStr("COURSECRAFT_AI_OPENROUTER_API_KEY", ""),
			},
		},
		YouTube: YouTubeConfig{
			APIKey:           envStr("COURSECRAFT_YOUTUBE_API_KEY", ""),
			Endpoint:         envStr("COURSECRAFT_YOUTUBE_ENDPOINT", ""),
			Timeout:          envDuration("COURSECRAFT_YOUTUBE_TIMEOUT", 8*time.Second),
			MaxRetries:       envInt("COURSECRAFT_YOUTUBE_MAX_RETRIES", 2),
			CacheTTL:         envDuration("COURSECRAFT_YOUTUBE_CACHE_TTL", 24*time.Hour),
			MaxResults:       envInt("COURSECRAFT_YOUTUBE_MAX_RESULTS", 5),
			FallbackEmbedURL: envStr("COURSECRAFT_YOUTUBE_FALLBACK_EMBED_URL", "https://www.youtube.com/embed/dQw4w9WgXcQ"),
		},
		Artifacts: ArtifactConfig{
			Dir:       envStr("COURSECRAFT_ARTIFACT_DIR", "./scratch"),
			GCSBucket: envStr("COURSECRAFT_ARTIFACT_GCS_BUCKET", ""),
			GCSPrefix: envStr("COURSECRAFT_ARTIFACT_GCS_PREFIX", "raw"),
		},
		Generation: GenerationConfig{
			StrictQuiz:  envBool("COURSECRAFT_STRICT_QUIZ", false),
			TokenBudget: envInt64("COURSECRAFT_TOKEN_BUDGET", 0),
		},
		Log: LogConfig{
			Level:  envStr("COURSECRAFT_LOG_LEVEL", "info"),
			Format: envStr("COURSECRAFT_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if !c.HasAIProvider() {
		return fmt.Errorf("at least one AI provider must be configured")
	}

	if c.AI.Provider != "" && !c.providerConfigured(c.AI.Provider) {
		return fmt.Errorf("COURSECRAFT_AI_PROVIDER %q is not configured", c.AI.Provider)
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("COURSECRAFT_AI_TEMPERATURE must be between 0 and 2, got %v", c.AI.Temperature)
	}

	if c.AI.Timeout <= 0 || c.YouTube.Timeout <= 0 {
		return fmt.Errorf("AI and YouTube timeouts must be positive")
	}

	if c.YouTube.MaxResults < 1 || c.YouTube.MaxResults > 50 {
		return fmt.Errorf("COURSECRAFT_YOUTUBE_MAX_RESULTS must be between 1 and 50, got %d", c.YouTube.MaxResults)
	}

	if c.Artifacts.GCSBucket == "" && c.Artifacts.Dir == "" {
		return fmt.Errorf("COURSECRAFT_ARTIFACT_DIR or COURSECRAFT_ARTIFACT_GCS_BUCKET is required")
	}

	if c.Generation.TokenBudget < 0 {
		return fmt.Errorf("COURSECRAFT_TOKEN_BUDGET must not be negative")
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("COURSECRAFT_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return len(c.ConfiguredProviders()) > 0
}

// ConfiguredProviders lists the names of providers with credentials, in
// registration order.
func (c *Config) ConfiguredProviders() []string {
	var names []string
	if c.AI.OpenAI.APIKey != "" {
		names = append(names, "openai")
	}
	if c.AI.Anthropic.APIKey != "" {
		names = append(names, "anthropic")
	}
	if c.AI.DeepSeek.APIKey != "" {
		names = append(names, "deepseek")
	}
	if c.AI.Google.APIKey != "" {
		names = append(names, "google")
	}
	if c.AI.OpenRouter.APIKey != "" {
		names = append(names, "openrouter")
	}
	if c.AI.Ollama.Enabled {
		names = append(names, "ollama")
	}
	return names
}

func (c *Config) providerConfigured(name string) bool {
	for _, n := range c.ConfiguredProviders() {
		if n == name {
			return true
		}
	}
	return false
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envDuration accepts Go duration strings ("90s") or bare seconds ("90").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
