package ai

import "strings"

const defaultOllamaModel = "llama3:8b"

// NewOllamaProvider creates a provider for a self-hosted Ollama server.
// Ollama exposes an OpenAI-compatible API under /v1; baseURL may be given with
// or without that suffix.
func NewOllamaProvider(baseURL string, opts ...OpenAIOption) *OpenAIProvider {
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	opts = append([]OpenAIOption{
		WithBaseURL(baseURL),
		WithProviderName("ollama"),
		WithDefaultModel(defaultOllamaModel),
		WithModels([]ModelInfo{
			{ID: defaultOllamaModel, Name: "Llama 3 8B", MaxTokens: 8192, Description: "Self-hosted model"},
		}),
	}, opts...)
	// Ollama ignores the key but the client always sends one.
	return NewOpenAIProvider("ollama", opts...)
}
