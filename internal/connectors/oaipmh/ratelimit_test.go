package oaipmh

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_PacesRequests(t *testing.T) {
	limiter := NewRateLimiter(60 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	require.NoError(t, limiter.Wait(ctx))
	require.NoError(t, limiter.Wait(ctx))

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiter_ZeroDelayDoesNotWait(t *testing.T) {
	limiter := NewRateLimiter(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiter_HonoursRetryAfter(t *testing.T) {
	limiter := NewRateLimiter(0)
	resp := &http.Response{Header: http.Header{HeaderRetryAfter: {"1"}}}

	backoff := limiter.UpdateFromResponse(resp)
	assert.Equal(t, time.Second, backoff)
	assert.True(t, limiter.ResetTime().After(time.Now()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.Wait(ctx), context.DeadlineExceeded)
}

func TestRateLimiter_IgnoresMissingHeader(t *testing.T) {
	limiter := NewRateLimiter(0)
	assert.Zero(t, limiter.UpdateFromResponse(&http.Response{Header: http.Header{}}))
	assert.Zero(t, limiter.UpdateFromResponse(nil))
	assert.True(t, limiter.ResetTime().IsZero())
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 30*time.Second, parseRetryAfter("30", now))
	assert.Equal(t, time.Minute, parseRetryAfter("Mon, 01 Jan 2024 12:01:00 GMT", now))
	assert.Zero(t, parseRetryAfter("soon", now))
}
