package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/KartikyaSokhal/CourseCraft/internal/ai"
)

func TestRouter_SingleProvider(t *testing.T) {
	router := ai.NewRouter()
	mock := ai.NewMockProvider("Hello!")
	router.Register("openai", mock)

	resp, err := router.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{{Role: "user", Content: "hi"}},
	})

	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Hello!" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello!")
	}
}

func TestRouter_FailureIsTerminal(t *testing.T) {
	router := ai.NewRouter()

	cause := errors.New("rate limited")
	failing := &ai.MockProvider{Err: cause}
	other := ai.NewMockProvider("other response")

	router.Register("openai", failing)
	router.Register("ollama", other)

	_, err := router.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{{Role: "user", Content: "hi"}},
	})

	if !errors.Is(err, cause) {
		t.Fatalf("Complete() error = %v, want wrapped provider error", err)
	}
	if other.Calls() != 0 {
		t.Error("second provider should not be tried after a failure")
	}
}

func TestRouter_NoProviders(t *testing.T) {
	router := ai.NewRouter()

	_, err := router.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{{Role: "user", Content: "hi"}},
	})

	if !errors.Is(err, ai.ErrNoProvider) {
		t.Fatalf("Complete() error = %v, want ErrNoProvider", err)
	}
	if err := router.HealthCheck(context.Background()); !errors.Is(err, ai.ErrNoProvider) {
		t.Errorf("HealthCheck() error = %v, want ErrNoProvider", err)
	}
}

func TestRouter_HasProvider(t *testing.T) {
	router := ai.NewRouter()
	if router.HasProvider() {
		t.Error("HasProvider() should be false with no providers")
	}

	router.Register("mock", ai.NewMockProvider("ok"))
	if !router.HasProvider() {
		t.Error("HasProvider() should be true after Register")
	}
}

func TestRouter_Prefer(t *testing.T) {
	router := ai.NewRouter()
	router.Register("first", ai.NewMockProvider("first"))
	router.Register("second", ai.NewMockProvider("second"))

	tests := []struct {
		name    string
		prefer  string
		want    string
		wantErr bool
	}{
		{"default is first registered", "", "first", false},
		{"preferred provider", "second", "second", false},
		{"unknown provider", "missing", "second", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prefer != "" {
				err := router.Prefer(tt.prefer)
				if (err != nil) != tt.wantErr {
					t.Fatalf("Prefer() error = %v, wantErr %v", err, tt.wantErr)
				}
			}
			resp, err := router.Complete(context.Background(), ai.CompletionRequest{
				Messages: []ai.Message{{Role: "user", Content: "hi"}},
			})
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if resp.Content != tt.want {
				t.Errorf("Content = %q, want %q", resp.Content, tt.want)
			}
		})
	}
}

func TestRouter_RegisterReplaces(t *testing.T) {
	router := ai.NewRouter()
	router.Register("openai", ai.NewMockProvider("old"))
	router.Register("openai", ai.NewMockProvider("new"))

	if names := router.Names(); len(names) != 1 {
		t.Errorf("Names() = %v, want a single entry", names)
	}
	name, _, err := router.Provider()
	if err != nil || name != "openai" {
		t.Errorf("Provider() = %q, %v", name, err)
	}
	resp, _ := router.Complete(context.Background(), ai.CompletionRequest{})
	if resp.Content != "new" {
		t.Errorf("Content = %q, want new", resp.Content)
	}
	if len(router.Models()) == 0 {
		t.Error("Models() should list the active provider's models")
	}
}

func TestRouter_HealthCheck(t *testing.T) {
	router := ai.NewRouter()
	router.Register("down", &ai.MockProvider{Err: errors.New("unauthorized")})

	if err := router.HealthCheck(context.Background()); err == nil {
		t.Fatal("HealthCheck() should report the active provider's failure")
	}
}
