package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/KartikyaSokhal/CourseCraft/internal/coursegen"
)

const maxBodyBytes = 64 << 10

// generator is the part of the pipeline the HTTP surface needs.
type generator interface {
	Generate(ctx context.Context, req coursegen.Request) (*coursegen.Result, error)
}

type readiness func(ctx context.Context) error

// newMux creates the HTTP router with health and generation endpoints.
func newMux(gen generator, adminToken string, ready readiness) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReadyz(ready))
	mux.Handle("POST /v1/courses/generate", requireToken(adminToken, handleGenerate(gen)))
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleReadyz(ready readiness) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				slog.Warn("readiness check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}

// requireToken checks the bearer token when one is configured. The token may
// be given as a bcrypt hash.
func requireToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !tokenMatches(token, got) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenMatches(want, got string) bool {
	if isBcryptHash(want) {
		return bcrypt.CompareHashAndPassword([]byte(want), []byte(got)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

type errorBody struct {
	Error          string `json:"error"`
	Kind           string `json:"kind"`
	RawArtifactRef string `json:"raw_artifact_ref,omitempty"`
}

func handleGenerate(gen generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req coursegen.Request
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error: "invalid request body: " + err.Error(),
				Kind:  string(coursegen.KindInvalidRequest),
			})
			return
		}
		req.RequestedBy = r.Header.Get("X-Requested-By")

		res, err := gen.Generate(r.Context(), req)
		if err != nil {
			var genErr *coursegen.GenerationError
			if !errors.As(err, &genErr) {
				slog.Error("unexpected generation error", "error", err)
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Kind: "internal"})
				return
			}
			writeJSON(w, statusFor(genErr.Kind), errorBody{
				Error:          genErr.Message,
				Kind:           string(genErr.Kind),
				RawArtifactRef: genErr.RawArtifactRef,
			})
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func statusFor(kind coursegen.Kind) int {
	switch kind {
	case coursegen.KindInvalidRequest:
		return http.StatusBadRequest
	case coursegen.KindBudget:
		return http.StatusTooManyRequests
	case coursegen.KindProvider:
		return http.StatusBadGateway
	case coursegen.KindParse, coursegen.KindSchema:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
