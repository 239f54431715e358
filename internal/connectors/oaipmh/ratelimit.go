package oaipmh

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
const HeaderRetryAfter = "Retry-After"

// RateLimiter paces requests to one archive host.
// It combines a fixed inter-request delay with server-requested backoff.
type RateLimiter struct {
	mu        sync.Mutex
	bucket    *rate.Limiter // One request per delay
	resetTime time.Time     // From Retry-After
}

// NewRateLimiter creates a limiter allowing one request per delay.
// A non-positive delay disables pacing.
func NewRateLimiter(delay time.Duration) *RateLimiter {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &RateLimiter{bucket: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	resetTime := r.resetTime
	r.mu.Unlock()

	if time.Now().Before(resetTime) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(resetTime)):
		}
	}
	return nil
}

// UpdateFromResponse records a Retry-After backoff from a response.
// Returns the requested backoff, zero when absent.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	backoff := parseRetryAfter(resp.Header.Get(HeaderRetryAfter), time.Now())
	if backoff <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetTime = time.Now().Add(backoff)
	return backoff
}

// ResetTime returns when server-requested backoff ends.
func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetTime
}

func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return t.Sub(now)
	}
	return 0
}
