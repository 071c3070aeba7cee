package connectors

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/travelrag/internal/core/domain"
)

// DefaultMinDelay is the default spacing between calls to one service.
const DefaultMinDelay = 500 * time.Millisecond

// DefaultRetryAfter is used when a 429 response carries no usable Retry-After header.
const DefaultRetryAfter = 30 * time.Second

// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
const HeaderRetryAfter = "Retry-After"

// RateLimiter spaces requests to one remote service.
// It uses a token bucket with burst 1 and an optional backoff set by 429 responses.
// One limiter should be shared by every client talking to the same service.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing one call per minDelay.
// A non-positive delay disables spacing.
func NewRateLimiter(minDelay time.Duration) *RateLimiter {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := retryAt.Sub(r.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError sets a backoff period after a 429 response.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = r.now().Add(retryAfter)
}

// Allow checks if a request can be made immediately without blocking.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if r.now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}

// CheckResponse records a backoff for 429 responses and classifies
// error statuses. It returns nil for 2xx responses. A nil limiter only classifies.
func (r *RateLimiter) CheckResponse(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := ParseRetryAfter(resp.Header.Get(HeaderRetryAfter), time.Now())
		if r != nil {
			r.RecordRateLimitError(wait)
		}
		return fmt.Errorf("%w: %s asked to retry after %s", domain.ErrRateLimited, resp.Request.URL.Host, wait)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s returned %d", domain.ErrFetchFailed, resp.Request.URL.Host, resp.StatusCode)
	default:
		return &StatusError{Code: resp.StatusCode, Host: resp.Request.URL.Host}
	}
}

// ParseRetryAfter reads a Retry-After value given in seconds or as an HTTP date.
// Unparseable values yield zero.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// StatusError is a non-retryable HTTP client error (4xx other than 429).
type StatusError struct {
	Code int
	Host string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d %s", e.Host, e.Code, http.StatusText(e.Code))
}
