package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoProvider is returned when no provider is registered.
var ErrNoProvider = errors.New("no AI provider configured")

// Router holds the registered providers and sends each request to exactly one of
// them: the preferred provider if set, otherwise the first registered. A failure
// is returned to the caller without trying another provider.
type Router struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
	preferred string
}

// NewRouter creates a new AI router.
func NewRouter() *Router {
	return &Router{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the router. Registering a name twice replaces it.
func (r *Router) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		r.order = append(r.order, name)
	}
	r.providers[name] = provider
}

// Prefer selects the provider used for completions.
func (r *Router) Prefer(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("AI provider %q is not registered", name)
	}
	r.preferred = name
	return nil
}

// Provider returns the active provider and its name.
func (r *Router) Provider() (string, Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active()
}

func (r *Router) active() (string, Provider, error) {
	if r.preferred != "" {
		return r.preferred, r.providers[r.preferred], nil
	}
	if len(r.order) == 0 {
		return "", nil, ErrNoProvider
	}
	name := r.order[0]
	return name, r.providers[name], nil
}

// Complete sends the request to the active provider.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	name, provider, err := r.Provider()
	if err != nil {
		return CompletionResponse{}, err
	}

	resp, err := provider.Complete(ctx, req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("provider %s: %w", name, err)
	}

	slog.Debug("AI request completed",
		"provider", name,
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
	)
	return resp, nil
}

// Models lists the active provider's models.
func (r *Router) Models() []ModelInfo {
	_, provider, err := r.Provider()
	if err != nil {
		return nil
	}
	return provider.Models()
}

// HealthCheck checks the active provider.
func (r *Router) HealthCheck(ctx context.Context) error {
	name, provider, err := r.Provider()
	if err != nil {
		return err
	}
	if err := provider.HealthCheck(ctx); err != nil {
		return fmt.Errorf("provider %s: %w", name, err)
	}
	return nil
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}

// Names returns the registered provider names in registration order.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
