package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/logger"
)

// LiveSearch performs a provider's live API search.
type LiveSearch func(ctx context.Context) ([]domain.SearchResult, error)

// Fallback combines a provider's breaker with its curated set.
type Fallback struct {
	name    string
	breaker *Breaker
	curated *Curated
	scope   Scope
}

// NewFallback creates the fallback plumbing for a provider.
func NewFallback(name string, breaker *Breaker, curated *Curated) *Fallback {
	if breaker == nil {
		breaker = NewBreaker(name, DefaultBreakerConfig())
	}
	return &Fallback{name: name, breaker: breaker, curated: curated}
}

// WithScope sets what the live API can return. Without one, live is tried
// for every filter set.
func (f *Fallback) WithScope(scope Scope) *Fallback {
	f.scope = scope
	return f
}

// Search runs live through the breaker and serves the curated set when
// live is nil or fails, or when the filters exclude everything the live
// API returns. The live call
// gets a share of ctx's remaining time so a slow or paused API still leaves
// room for the curated answer. Only cancellation of ctx is returned as an
// error.
func (f *Fallback) Search(ctx context.Context, query string, opts domain.RetrievalOptions, live LiveSearch) ([]domain.SearchResult, error) {
	if live == nil {
		logger.Debug("%s: no credentials, serving curated results", f.name)
		return f.curated.Match(query, opts), nil
	}
	if !f.scope.Admits(opts.Filters) {
		logger.Debug("%s: filters %s exclude live results, serving curated results", f.name, opts.Filters.Key())
		return f.curated.Match(query, opts), nil
	}

	liveCtx, cancel := liveContext(ctx)
	defer cancel()

	results, err := f.breaker.Search(func() ([]domain.SearchResult, error) {
		return live(liveCtx)
	})
	if err == nil {
		return f.stamp(results, opts.Limit), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	logger.Warn("%s: live search failed, serving curated results: %v", f.name, err)
	return f.curated.Match(query, opts), nil
}

// liveShare is the fraction of the caller's remaining time given to a
// live call.
const liveShare = 0.75

// liveContext derives the live call's context. Without a deadline on ctx
// the live call is bounded only by ctx.
func liveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	budget := time.Duration(float64(time.Until(deadline)) * liveShare)
	return context.WithTimeout(ctx, budget)
}

// Fetch returns a document through fetch, falling back to the curated
// set when fetch is nil or fails.
func (f *Fallback) Fetch(ctx context.Context, id string, fetch func(context.Context) (*domain.Document, error)) (*domain.Document, error) {
	if fetch != nil {
		doc, err := fetch(ctx)
		if err == nil {
			return doc, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		curated, cerr := f.curated.Fetch(id)
		if cerr != nil {
			return nil, fmt.Errorf("%s: fetch %s: %w", f.name, id, err)
		}
		logger.Warn("%s: live fetch failed, using curated copy: %v", f.name, err)
		return curated, nil
	}
	return f.curated.Fetch(id)
}

// Health reports online when ping succeeds, limited when only the curated
// set can answer and offline when nothing can.
func (f *Fallback) Health(ctx context.Context, ping func(context.Context) error) domain.ProviderHealth {
	h := domain.ProviderHealth{Provider: f.name}
	curated := f.curated.Len()

	switch {
	case ping == nil:
		h.Status, h.Message = f.degradedStatus(curated), "no credentials configured"
	case f.breaker.Open():
		h.Status, h.Message = f.degradedStatus(curated), "circuit open after repeated failures"
	default:
		if err := ping(ctx); err != nil {
			h.Status, h.Message = f.degradedStatus(curated), fmt.Sprintf("live API unavailable: %v", err)
		} else {
			h.Status, h.Message = domain.ProviderOnline, "live API reachable"
		}
	}

	if h.Status == domain.ProviderLimited {
		h.Message += fmt.Sprintf("; serving %d curated results", curated)
	}
	return h
}

func (f *Fallback) degradedStatus(curated int) domain.ProviderStatus {
	if curated > 0 {
		return domain.ProviderLimited
	}
	return domain.ProviderOffline
}

func (f *Fallback) stamp(results []domain.SearchResult, limit int) []domain.SearchResult {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		results[i].SourceType = domain.SourceTypeLive
		if results[i].Provider == "" {
			results[i].Provider = f.name
		}
	}
	return results
}
