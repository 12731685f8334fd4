package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/KartikyaSokhal/CourseCraft/internal/coursegen"
	"github.com/KartikyaSokhal/CourseCraft/internal/outline"
)

type fakeGenerator struct {
	result *coursegen.Result
	err    error
	got    coursegen.Request
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, req coursegen.Request) (*coursegen.Result, error) {
	f.calls++
	f.got = req
	return f.result, f.err
}

func TestHealthEndpoints(t *testing.T) {
	mux := newMux(&fakeGenerator{}, "", nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestReadyz_Unavailable(t *testing.T) {
	mux := newMux(&fakeGenerator{}, "", func(context.Context) error {
		return errors.New("cache: connection refused")
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestGenerate_Success(t *testing.T) {
	gen := &fakeGenerator{result: &coursegen.Result{
		RunID: "run-1",
		Course: outline.Course{
			Title:   "Go",
			Lessons: []outline.Lesson{{Title: "Intro", VideoURL: "https://www.youtube.com/embed/abc"}},
		},
		RawArtifactRef: "/tmp/openai_raw_1.txt",
	}}
	mux := newMux(gen, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/courses/generate",
		strings.NewReader(`{"prompt":"Learn Go","lessons":3,"duration_days":14}`))
	req.Header.Set("X-Requested-By", "alice")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if gen.got.Prompt != "Learn Go" || gen.got.Lessons != 3 || gen.got.DurationDays != 14 {
		t.Errorf("request = %+v", gen.got)
	}
	if gen.got.RequestedBy != "alice" {
		t.Errorf("RequestedBy = %q, want alice", gen.got.RequestedBy)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["run_id"] != "run-1" || body["raw_artifact_ref"] != "/tmp/openai_raw_1.txt" {
		t.Errorf("body = %v", body)
	}
}

func TestGenerate_ErrorMapping(t *testing.T) {
	tests := []struct {
		kind       coursegen.Kind
		wantStatus int
	}{
		{coursegen.KindInvalidRequest, http.StatusBadRequest},
		{coursegen.KindBudget, http.StatusTooManyRequests},
		{coursegen.KindProvider, http.StatusBadGateway},
		{coursegen.KindParse, http.StatusUnprocessableEntity},
		{coursegen.KindSchema, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			gen := &fakeGenerator{err: &coursegen.GenerationError{
				Kind:           tt.kind,
				Message:        "Schema validation failed: lessons must be a list.",
				RawArtifactRef: "scratch/openai_raw_9.txt",
			}}
			mux := newMux(gen, "", nil)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/courses/generate",
				strings.NewReader(`{"prompt":"x"}`)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Kind != string(tt.kind) || body.RawArtifactRef != "scratch/openai_raw_9.txt" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestGenerate_UnexpectedError(t *testing.T) {
	mux := newMux(&fakeGenerator{err: errors.New("boom")}, "", nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/courses/generate",
		strings.NewReader(`{"prompt":"x"}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("internal error details should not leak")
	}
}

func TestGenerate_BadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `prompt=x`},
		{"unknown field", `{"prompt":"x","topic":"y"}`},
		{"wrong type", `{"prompt":"x","lessons":"five"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			mux := newMux(gen, "", nil)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/courses/generate",
				strings.NewReader(tt.body)))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if gen.calls != 0 {
				t.Error("generator should not run for a bad body")
			}
		})
	}
}

func TestGenerate_AdminToken(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"not bearer", "secret", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{result: &coursegen.Result{RunID: "r"}}
			mux := newMux(gen, "secret", nil)

			req := httptest.NewRequest(http.MethodPost, "/v1/courses/generate", strings.NewReader(`{"prompt":"x"}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	// Health probes stay open.
	rec := httptest.NewRecorder()
	newMux(&fakeGenerator{}, "secret", nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}

func TestGenerate_BcryptAdminToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	mux := newMux(&fakeGenerator{result: &coursegen.Result{RunID: "r"}}, string(hash), nil)

	for header, want := range map[string]int{
		"Bearer secret":          http.StatusOK,
		"Bearer wrong":           http.StatusUnauthorized,
		"Bearer " + string(hash): http.StatusUnauthorized,
	} {
		req := httptest.NewRequest(http.MethodPost, "/v1/courses/generate", strings.NewReader(`{"prompt":"x"}`))
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("%q: status = %d, want %d", header, rec.Code, want)
		}
	}
}

func TestGenerate_MethodNotAllowed(t *testing.T) {
	mux := newMux(&fakeGenerator{}, "", nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/courses/generate", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
