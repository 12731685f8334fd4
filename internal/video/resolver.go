// Package video resolves lesson search phrases into verified, embeddable YouTube
// embed URLs with result caching and a fixed fallback.
package video

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/KartikyaSokhal/CourseCraft/internal/platform/cache"
)

const (
	// DefaultFallbackEmbedURL is returned whenever no verified video can be found.
	DefaultFallbackEmbedURL = "https://www.youtube.com/embed/dQw4w9WgXcQ"

	defaultCacheTTL   = 24 * time.Hour
	defaultMaxResults = 5

	cacheKeyPrefix = "yt_search_results:"
	embedURLPrefix = "https://www.youtube.com/embed/"
)

var embedIDPattern = regexp.MustCompile(`/embed/([A-Za-z0-9_\-]+)`)

// ResultCache maps a lookup key to a list of candidate video IDs. Misses and
// backend failures are reported as absent, never as errors.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, ids []string, ttl time.Duration)
}

// Searcher returns candidate video IDs for a query in relevance order.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

// Verifier fetches privacy and embeddability details for a batch of IDs.
type Verifier interface {
	Verify(ctx context.Context, ids []string) ([]Status, error)
}

// Status is the verification detail for a single video.
type Status struct {
	ID            string
	PrivacyStatus string
	Embeddable    bool
}

// Playable reports whether the video is public and may be embedded.
func (s Status) Playable() bool {
	return s.PrivacyStatus == "public" && s.Embeddable
}

// Outcome distinguishes a verified video from a fallback.
type Outcome int

const (
	OutcomeVerified Outcome = iota
	OutcomeFallback
)

func (o Outcome) String() string {
	if o == OutcomeVerified {
		return "verified"
	}
	return "fallback"
}

// Reason explains why a resolution fell back.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonSearchFailed   Reason = "search_failed"
	ReasonNoCandidates   Reason = "no_candidates"
	ReasonAllExcluded    Reason = "all_excluded"
	ReasonNoneEmbeddable Reason = "none_embeddable"
)

// Resolution is the result of resolving one query.
type Resolution struct {
	EmbedURL string
	VideoID  string
	Outcome  Outcome
	Reason   Reason
}

// UsedFallback reports whether the fallback embed was returned.
func (r Resolution) UsedFallback() bool {
	return r.Outcome == OutcomeFallback
}

// ResolverConfig holds dependencies for the resolver.
type ResolverConfig struct {
	Searcher         Searcher
	Verifier         Verifier
	Cache            ResultCache   // default: in-process memory cache
	FallbackEmbedURL string        // default: DefaultFallbackEmbedURL
	CacheTTL         time.Duration // default 24h
	MaxResults       int           // candidates requested per search (default 5)
}

// Resolver turns search phrases into embed URLs. It is safe for concurrent use
// as long as its Cache is.
type Resolver struct {
	searcher   Searcher
	verifier   Verifier
	cache      ResultCache
	fallback   string
	cacheTTL   time.Duration
	maxResults int
}

// NewResolver creates a resolver, filling unset config with defaults.
func NewResolver(cfg ResolverConfig) *Resolver {
	rc := cfg.Cache
	if rc == nil {
		rc = cache.NewMemory()
	}
	fallback := cfg.FallbackEmbedURL
	if fallback == "" {
		fallback = DefaultFallbackEmbedURL
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Resolver{
		searcher:   cfg.Searcher,
		verifier:   cfg.Verifier,
		cache:      rc,
		fallback:   fallback,
		cacheTTL:   ttl,
		maxResults: maxResults,
	}
}

// FallbackEmbedURL returns the embed URL used when resolution falls back.
func (r *Resolver) FallbackEmbedURL() string {
	return r.fallback
}

// Resolve returns a verified embed URL for query that is not in exclude, or the
// fallback. It never fails.
func (r *Resolver) Resolve(ctx context.Context, query string, exclude map[string]struct{}) Resolution {
	candidates, ok := r.candidates(ctx, query)
	if !ok {
		return r.fallbackFor(query, ReasonSearchFailed)
	}
	if len(candidates) == 0 {
		return r.fallbackFor(query, ReasonNoCandidates)
	}

	remaining := make([]string, 0, len(candidates))
	allowed := make(map[string]struct{}, len(candidates))
	for _, id := range candidates {
		if _, used := exclude[id]; used {
			continue
		}
		if _, dup := allowed[id]; dup {
			continue
		}
		allowed[id] = struct{}{}
		remaining = append(remaining, id)
	}
	if len(remaining) == 0 {
		return r.fallbackFor(query, ReasonAllExcluded)
	}

	for _, st := range r.verify(ctx, query, remaining) {
		if _, ok := allowed[st.ID]; !ok {
			continue
		}
		if st.Playable() {
			return Resolution{
				EmbedURL: EmbedURL(st.ID),
				VideoID:  st.ID,
				Outcome:  OutcomeVerified,
			}
		}
	}
	return r.fallbackFor(query, ReasonNoneEmbeddable)
}

// candidates returns the cached or freshly searched candidate list. ok is false
// only when the search itself failed.
func (r *Resolver) candidates(ctx context.Context, query string) ([]string, bool) {
	key := CacheKey(query)
	if ids, hit := r.cache.Get(ctx, key); hit {
		slog.Debug("video search cache hit", "query", query, "candidates", len(ids))
		return ids, true
	}

	if r.searcher == nil {
		slog.Warn("video search unavailable", "query", query)
		return nil, false
	}
	ids, err := r.searcher.Search(ctx, query, r.maxResults)
	if err != nil {
		slog.Warn("video search failed", "query", query, "error", err)
		return nil, false
	}
	r.cache.Set(ctx, key, ids, r.cacheTTL)
	return ids, true
}

func (r *Resolver) verify(ctx context.Context, query string, ids []string) []Status {
	if r.verifier == nil {
		return nil
	}
	statuses, err := r.verifier.Verify(ctx, ids)
	if err != nil {
		slog.Warn("video verification failed", "query", query, "ids", len(ids), "error", err)
		return nil
	}
	return statuses
}

func (r *Resolver) fallbackFor(query string, reason Reason) Resolution {
	slog.Warn("using fallback video", "query", query, "reason", string(reason))
	return Resolution{
		EmbedURL: r.fallback,
		VideoID:  IDFromEmbedURL(r.fallback),
		Outcome:  OutcomeFallback,
		Reason:   reason,
	}
}

// CacheKey derives the result-cache key for a query. Queries that differ only in
// Unicode normalization or surrounding and repeated whitespace share a key.
func CacheKey(query string) string {
	normalized := strings.Join(strings.Fields(norm.NFC.String(query)), " ")
	sum := md5.Sum([]byte(normalized))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// EmbedURL returns the embed URL for a video ID.
func EmbedURL(id string) string {
	return embedURLPrefix + id
}

// IDFromEmbedURL extracts the video ID from an embed URL, or "" if there is none.
func IDFromEmbedURL(url string) string {
	m := embedIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
