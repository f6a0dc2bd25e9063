package providers

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/logger"
)

// Breaker defaults.
const (
	DefaultBreakerFailures = 3
	DefaultBreakerTimeout  = 30 * time.Second
	DefaultBreakerInterval = time.Minute
)

// ErrBreakerOpen is returned while a provider's breaker rejects calls.
var ErrBreakerOpen = gobreaker.ErrOpenState

// BreakerConfig configures a provider circuit breaker.
type BreakerConfig struct {
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32

	// Timeout is how long the breaker stays open before a trial call.
	Timeout time.Duration

	// Interval clears failure counts while closed.
	Interval time.Duration
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Failures: DefaultBreakerFailures,
		Timeout:  DefaultBreakerTimeout,
		Interval: DefaultBreakerInterval,
	}
}

// Breaker stops calling a live API after repeated failures so searches go
// straight to the curated set until the API recovers.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker creates a breaker named after its provider.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.Failures == 0 {
		cfg.Failures = DefaultBreakerFailures
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		// Cancellation by the caller and local rate limit pauses say
		// nothing new about the API.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrRateLimited)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("%s: circuit breaker %s -> %s", name, from, to)
		},
	})}
}

// Search runs fn unless the breaker is open.
func (b *Breaker) Search(fn func() ([]domain.SearchResult, error)) ([]domain.SearchResult, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	results, _ := out.([]domain.SearchResult)
	return results, nil
}

// Open reports whether the breaker is rejecting calls.
func (b *Breaker) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}
