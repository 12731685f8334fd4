// Package httpx provides the retrying HTTP transport used for outbound lookups.
package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultMaxRetries      = 2
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 5 * time.Second
	defaultMaxRetryAfter   = 10 * time.Second
)

// RetryPolicy controls how RetryTransport retries. Zero fields take defaults.
type RetryPolicy struct {
	MaxRetries      int           // retries after the first attempt (default 2, negative disables)
	InitialInterval time.Duration // first backoff (default 500ms)
	MaxInterval     time.Duration // backoff ceiling (default 5s)
	MaxRetryAfter   time.Duration // cap on a server supplied Retry-After (default 10s)
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxRetries == 0 {
		p.MaxRetries = defaultMaxRetries
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = defaultInitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = defaultMaxInterval
	}
	if p.MaxRetryAfter <= 0 {
		p.MaxRetryAfter = defaultMaxRetryAfter
	}
	return p
}

// RetryTransport retries idempotent requests on 408, 429 and 5xx responses and on
// transient network errors, with jittered exponential backoff.
type RetryTransport struct {
	base   http.RoundTripper
	policy RetryPolicy
}

// NewRetryTransport wraps base. A nil base uses http.DefaultTransport.
func NewRetryTransport(base http.RoundTripper, policy RetryPolicy) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RetryTransport{base: base, policy: policy.withDefaults()}
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !isIdempotent(req.Method) || req.Body != nil && req.Body != http.NoBody {
		return t.base.RoundTrip(req)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.policy.InitialInterval
	b.MaxInterval = t.policy.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	for attempt := 0; ; attempt++ {
		resp, err := t.base.RoundTrip(req)

		retry := false
		if err != nil {
			retry = IsRetryableError(err)
		} else {
			retry = IsRetryableHTTPStatus(resp.StatusCode)
		}
		if !retry || attempt >= t.policy.MaxRetries {
			return resp, err
		}

		wait := RetryAfterDuration(resp, b.NextBackOff(), t.policy.MaxRetryAfter)
		status := 0
		if resp != nil {
			status = resp.StatusCode
			drain(resp.Body)
		}
		slog.Warn("retrying outbound request",
			"method", req.Method,
			"host", req.URL.Host,
			"path", req.URL.Path,
			"attempt", attempt+1,
			"max_retries", t.policy.MaxRetries,
			"status", status,
			"sleep", wait.String(),
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}

func isIdempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// IsRetryableHTTPStatus reports whether a response status is worth retrying.
func IsRetryableHTTPStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryableError reports whether a transport error is transient. Cancellation
// and deadline expiry of the caller's context are final.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// RetryAfterDuration honours a Retry-After header given in seconds, capped at max.
func RetryAfterDuration(resp *http.Response, fallback, max time.Duration) time.Duration {
	sleepFor := fallback
	if resp != nil {
		if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				sleepFor = time.Duration(secs) * time.Second
			}
		}
	}
	if max > 0 && sleepFor > max {
		sleepFor = max
	}
	return sleepFor
}

func drain(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
