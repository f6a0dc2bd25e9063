package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRetryAfter is the pause applied after a 429 without Retry-After.
const DefaultRetryAfter = 60 * time.Second

// RateLimiter paces requests to a provider with a token bucket and honours
// server-requested backoff after rate limit responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter allowing rps sustained requests per second.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// ErrRateLimited is returned instead of waiting when a request could not
// be sent in time: the provider asked for a pause, or the next token
// arrives after ctx's deadline.
var ErrRateLimited = errors.New("rate limited")

// Wait blocks until a request may be sent. It never sleeps through a
// server-requested pause or past ctx's deadline; both return
// ErrRateLimited at once so callers can serve something else.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if pause := time.Until(retryAt); pause > 0 {
		return fmt.Errorf("%w: paused for another %s", ErrRateLimited, pause.Round(time.Second))
	}

	res := r.limiter.Reserve()
	if !res.OK() {
		return ErrRateLimited
	}
	delay := res.Delay()
	if delay <= 0 {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
		res.Cancel()
		return fmt.Errorf("%w: next slot in %s is past the deadline", ErrRateLimited, delay.Round(time.Millisecond))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RecordRateLimit pauses requests for retryAfter, or DefaultRetryAfter
// when the server gave no hint.
func (r *RateLimiter) RecordRateLimit(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = time.Now().Add(retryAfter)
}

// Allow reports whether a request may be sent now without waiting.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}

// Observe pauses requests when err is a rate limit response.
func (r *RateLimiter) Observe(err error) {
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusTooManyRequests {
		r.RecordRateLimit(se.RetryAfter)
	}
}
