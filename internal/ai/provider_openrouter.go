package ai

import "net/http"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "openai/gpt-4o-mini"
	openRouterReferer        = "https://github.com/KartikyaSokhal/CourseCraft"
	openRouterTitle          = "CourseCraft"
)

// NewOpenRouterProvider creates a provider for OpenRouter. OpenRouter speaks the
// OpenAI API and additionally reads attribution headers. A client passed via
// WithHTTPClient keeps its transport underneath the header layer.
func NewOpenRouterProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	opts = append([]OpenAIOption{
		WithBaseURL(defaultOpenRouterBaseURL),
		WithProviderName("openrouter"),
		WithDefaultModel(defaultOpenRouterModel),
	}, opts...)

	probe := &OpenAIProvider{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(probe)
	}
	client := *probe.httpClient
	client.Transport = &headerTransport{
		base: client.Transport,
		headers: map[string]string{
			"HTTP-Referer": openRouterReferer,
			"X-Title":      openRouterTitle,
		},
	}
	return NewOpenAIProvider(apiKey, append(opts, WithHTTPClient(&client))...)
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return base.RoundTrip(req)
}
