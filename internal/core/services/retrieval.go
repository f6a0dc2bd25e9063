package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
	"github.com/custodia-labs/lexground/internal/logger"
	"github.com/custodia-labs/lexground/internal/metrics"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Retrieval defaults.
const (
	// DefaultProviderTimeout bounds each store or provider call.
	DefaultProviderTimeout = 8 * time.Second

	// DefaultCacheTTL is how long a retrieval response stays cached.
	DefaultCacheTTL = 15 * time.Minute
)

// Retrieval outcomes recorded in metrics.
const (
	outcomeCached   = "cached"
	outcomeOK       = "ok"
	outcomeDegraded = "degraded"
	outcomeEmpty    = "empty"
	outcomeError    = "error"
)

// RetrievalConfig configures the aggregator.
type RetrievalConfig struct {
	// DefaultLimit is used when a request has no limit.
	DefaultLimit int

	// ProviderTimeout bounds each store or provider call.
	ProviderTimeout time.Duration

	// CacheTTL is the lifetime of cached responses.
	CacheTTL time.Duration

	// RecencyWindow is the age under which a dated result earns a bonus.
	RecencyWindow time.Duration
}

// DefaultRetrievalConfig returns the default aggregator configuration.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		DefaultLimit:    domain.DefaultRetrievalLimit,
		ProviderTimeout: DefaultProviderTimeout,
		CacheTTL:        DefaultCacheTTL,
		RecencyWindow:   DefaultRecencyWindow,
	}
}

// RetrievalService fans a query out to the chunk store and every live
// provider, then merges, deduplicates, ranks and grounds the results.
type RetrievalService struct {
	store     driven.ChunkStore
	providers []driven.RetrievalProvider
	embedder  driving.EmbeddingService
	cache     driven.QueryCache
	grounding *GroundingBuilder
	cfg       RetrievalConfig
	now       func() time.Time
	metrics   *metrics.Metrics
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithClock sets the clock used for recency scoring.
func WithClock(now func() time.Time) RetrievalOption {
	return func(s *RetrievalService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithQueryCache enables response caching.
func WithQueryCache(cache driven.QueryCache) RetrievalOption {
	return func(s *RetrievalService) {
		s.cache = cache
	}
}

// WithGroundingBuilder replaces the default grounding builder.
func WithGroundingBuilder(b *GroundingBuilder) RetrievalOption {
	return func(s *RetrievalService) {
		if b != nil {
			s.grounding = b
		}
	}
}

// WithRetrievalMetrics records retrieval metrics.
func WithRetrievalMetrics(m *metrics.Metrics) RetrievalOption {
	return func(s *RetrievalService) {
		s.metrics = m
	}
}

// NewRetrievalService creates an aggregator over a store and providers.
// store may be nil when only live providers are used. Providers are queried
// and listed in the order given.
func NewRetrievalService(
	store driven.ChunkStore,
	providers []driven.RetrievalProvider,
	embedder driving.EmbeddingService,
	cfg RetrievalConfig,
	opts ...RetrievalOption,
) *RetrievalService {
	defaults := DefaultRetrievalConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaults.DefaultLimit
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaults.ProviderTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaults.CacheTTL
	}
	if cfg.RecencyWindow <= 0 {
		cfg.RecencyWindow = defaults.RecencyWindow
	}

	s := &RetrievalService{
		store:     store,
		providers: providers,
		embedder:  embedder,
		grounding: NewGroundingBuilder(DefaultExcerptChars),
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve returns ranked, citation-annotated evidence for a request.
func (s *RetrievalService) Retrieve(ctx context.Context, req domain.RetrievalRequest) (*domain.RetrievalResponse, error) {
	start := time.Now()

	if err := req.Filters.Validate(); err != nil {
		s.metrics.RecordRetrieval(outcomeError, time.Since(start))
		return nil, err
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Limit <= 0 {
		req.Limit = s.cfg.DefaultLimit
	}
	limit := req.EffectiveLimit()

	if req.Query == "" {
		s.metrics.RecordRetrieval(outcomeEmpty, time.Since(start))
		return s.respond(nil, false), nil
	}

	key := req.CacheKey()
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			logger.Debug("retrieval cache hit: %q", key)
			s.metrics.RecordCache(true)
			s.metrics.RecordRetrieval(outcomeCached, time.Since(start))
			return cached, nil
		}
		s.metrics.RecordCache(false)
	}

	emb, err := s.embedder.Embed(ctx, req.Query, "")
	if err != nil {
		s.metrics.RecordRetrieval(outcomeError, time.Since(start))
		return nil, err
	}
	if emb.Degraded {
		logger.Warn("query embedding degraded, vector ranking will be approximate")
	}

	merged, err := s.gather(ctx, req.Query, emb.Vector, limit, req.Filters)
	if err != nil {
		s.metrics.RecordRetrieval(outcomeError, time.Since(start))
		return nil, err
	}

	ranked := RankResults(DedupResults(merged), req.Query, s.now(), s.cfg.RecencyWindow, limit)
	resp := s.respond(ranked, emb.Degraded)

	// Degraded responses are not cached so a recovered upstream is used
	// on the next request.
	if s.cache != nil && !emb.Degraded {
		if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
			logger.Warn("failed to cache retrieval response: %v", err)
		}
	}

	outcome := outcomeOK
	if emb.Degraded {
		outcome = outcomeDegraded
	}
	s.metrics.RecordRetrieval(outcome, time.Since(start))
	logger.Elapsed("retrieve", start)
	logger.Debug("retrieved %d results for %q (%d candidates)", len(ranked), req.Query, len(merged))

	return resp, nil
}

// Search returns only the ranked results for a query.
func (s *RetrievalService) Search(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) ([]domain.SearchResult, error) {
	resp, err := s.Retrieve(ctx, domain.RetrievalRequest{
		Query:   query,
		Limit:   opts.Limit,
		Filters: opts.Filters,
	})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (s *RetrievalService) respond(results []domain.SearchResult, degraded bool) *domain.RetrievalResponse {
	if results == nil {
		results = []domain.SearchResult{}
	}
	gc := s.grounding.Build(results)
	return &domain.RetrievalResponse{
		Results:      results,
		Citations:    gc.Citations,
		PromptBlocks: gc.PromptBlocks,
		Degraded:     degraded,
	}
}

// source is one fan-out target.
type source struct {
	name       string
	sourceType domain.SourceType
	search     func(ctx context.Context) ([]domain.SearchResult, error)
}

func (s *RetrievalService) sources(
	query string, vector []float32, limit int, filters domain.Filters,
) []source {
	sources := make([]source, 0, len(s.providers)+1)
	if s.store != nil {
		sources = append(sources, source{
			name:       domain.ProviderInternal,
			sourceType: domain.SourceTypeInternal,
			search: func(ctx context.Context) ([]domain.SearchResult, error) {
				q := domain.SimilarityQuery{Vector: vector, Text: query}
				return s.store.SimilaritySearch(ctx, q, limit, filters)
			},
		})
	}
	opts := domain.RetrievalOptions{Limit: limit, Filters: filters}
	for _, p := range s.providers {
		sources = append(sources, source{
			name:       p.Name(),
			sourceType: domain.SourceTypeLive,
			search: func(ctx context.Context) ([]domain.SearchResult, error) {
				return p.Search(ctx, query, opts)
			},
		})
	}
	return sources
}

// gather queries every source concurrently and concatenates their results
// in enumeration order. A failing source is logged and skipped; only
// cancellation of ctx is returned.
func (s *RetrievalService) gather(
	ctx context.Context, query string, vector []float32, limit int, filters domain.Filters,
) ([]domain.SearchResult, error) {
	sources := s.sources(query, vector, limit, filters)
	slots := make([][]domain.SearchResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src source) {
			defer wg.Done()
			slots[i] = s.call(ctx, src)
		}(i, src)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var merged []domain.SearchResult
	for _, results := range slots {
		merged = append(merged, results...)
	}
	return merged, nil
}

// call runs one source under its own timeout and stamps provenance on
// its results. Errors and panics yield no results. A source that ignores
// its context is abandoned at the timeout; its goroutine finishes on its
// own and the result is dropped.
func (s *RetrievalService) call(ctx context.Context, src source) []domain.SearchResult {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	type outcome struct {
		results []domain.SearchResult
		err     error
	}
	out := make(chan outcome, 1)

	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				out <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		results, err := src.search(callCtx)
		out <- outcome{results: results, err: err}
	}()

	var res outcome
	select {
	case res = <-out:
	case <-callCtx.Done():
		res.err = callCtx.Err()
	}
	if errors.Is(res.err, context.DeadlineExceeded) {
		res.err = fmt.Errorf("timed out after %s", s.cfg.ProviderTimeout)
	}

	s.metrics.RecordProvider(src.name, time.Since(start), res.err)
	if res.err != nil {
		if ctx.Err() == nil {
			logger.Warn("%v: %s: %v", domain.ErrProviderUnavailable, src.name, res.err)
		}
		return nil
	}

	results := res.results
	for i := range results {
		if results[i].SourceType == "" {
			results[i].SourceType = src.sourceType
		}
		if results[i].Provider == "" {
			results[i].Provider = src.name
		}
	}
	return results
}
