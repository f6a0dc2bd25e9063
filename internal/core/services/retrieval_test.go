package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexground/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/metrics"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestRetrieval(
	store driven.ChunkStore, providers []driven.RetrievalProvider, opts ...RetrievalOption,
) *RetrievalService {
	cfg := DefaultRetrievalConfig()
	cfg.ProviderTimeout = 200 * time.Millisecond
	opts = append([]RetrievalOption{WithClock(fixedClock(testNow))}, opts...)
	return NewRetrievalService(store, providers, testEmbeddingService(newMockEmbedder("m", 8)), cfg, opts...)
}

func TestRetrieve_DedupKeepsInternalVersion(t *testing.T) {
	store := newMockStore(domain.SearchResult{
		ID: "doc-1", Title: "Miranda v. Arizona", Content: "Miranda rights warnings", Source: "Casebook",
	})
	live := &mockProvider{name: "courtlistener", results: []domain.SearchResult{
		{ID: "cl-1", Title: "miranda v arizona", Content: "custodial interrogation", Source: "CourtListener"},
	}}

	svc := newTestRetrieval(store, []driven.RetrievalProvider{live})
	resp, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "Miranda rights"})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	got := resp.Results[0]
	assert.Equal(t, "doc-1", got.ID)
	assert.Equal(t, domain.SourceTypeInternal, got.SourceType)
	assert.Equal(t, domain.ProviderInternal, got.Provider)
	assert.Equal(t, 1, got.Rank)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, 1, resp.Citations[0].Number)
}

func TestRetrieve_AllProvidersFailStoreStillAnswers(t *testing.T) {
	store := newMockStore(domain.SearchResult{
		ID: "doc-1", Title: "Fourth Amendment searches", Content: "warrant requirement",
	})
	var providers []driven.RetrievalProvider
	for _, name := range []string{"courtlistener", "govinfo", "websearch"} {
		providers = append(providers, &mockProvider{
			name: name,
			err:  fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, name),
		})
	}

	svc := newTestRetrieval(store, providers)
	resp, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "warrant"})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	for _, r := range resp.Results {
		assert.Equal(t, domain.SourceTypeInternal, r.SourceType)
	}
}

func TestRetrieve_VectorFailureAndProviderOutageServeLexicalInternal(t *testing.T) {
	m := metrics.New()
	store := memory.NewChunkStore(m)
	ctx := context.Background()
	// Stored with a 4-dimension model; queries embed with 8.
	for i, doc := range []struct{ id, title, content string }{
		{"fourth", "Fourth Amendment Notes", "A search requires a warrant supported by probable cause."},
		{"consent", "Consent Searches", "Consent is an exception to the warrant requirement."},
		{"jeopardy", "Double Jeopardy", "A second prosecution for the same offence is barred."},
	} {
		require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: doc.id, Title: doc.title}))
		vec := make([]float32, 4)
		vec[i] = 1
		require.NoError(t, store.ReplaceChunks(ctx, doc.id, []domain.Chunk{{Content: doc.content, Embedding: vec}}))
	}

	var providers []driven.RetrievalProvider
	for _, name := range []string{"courtlistener", "govinfo", "websearch"} {
		providers = append(providers, &mockProvider{
			name: name,
			err:  fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, name),
		})
	}

	svc := newTestRetrieval(store, providers, WithRetrievalMetrics(m))
	resp, err := svc.Retrieve(ctx, domain.RetrievalRequest{Query: "warrant requirement"})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2, "only documents sharing a query term are found lexically")
	for _, r := range resp.Results {
		assert.Equal(t, domain.SourceTypeInternal, r.SourceType)
		assert.Equal(t, domain.ProviderInternal, r.Provider)
		assert.Contains(t, strings.ToLower(r.Content), "warrant")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VectorFallbacks))
	require.Len(t, resp.Citations, 2)
}

func TestRetrieve_NoResultsYieldsEmptyGrounding(t *testing.T) {
	svc := newTestRetrieval(newMockStore(), []driven.RetrievalProvider{&mockProvider{name: "govinfo"}})

	resp, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "nothing matches this"})
	require.NoError(t, err)

	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Citations)
	assert.Empty(t, resp.Citations)
	assert.Equal(t, domain.NoSourcesMessage, resp.PromptBlocks)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	provider := &mockProvider{name: "govinfo"}
	svc := newTestRetrieval(newMockStore(), []driven.RetrievalProvider{provider})

	resp, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "   "})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, domain.NoSourcesMessage, resp.PromptBlocks)
	assert.Equal(t, 0, provider.callCount())
}

func TestRetrieve_InvalidFilters(t *testing.T) {
	svc := newTestRetrieval(newMockStore(), nil)

	_, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{
		Query:   "contract",
		Filters: domain.Filters{Jurisdiction: "ny\x00"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFilters)
}

func TestRetrieve_FiltersReachStore(t *testing.T) {
	store := newMockStore()
	svc := newTestRetrieval(store, nil)
	filters := domain.Filters{Jurisdiction: "CA", PracticeArea: "employment"}

	_, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "overtime", Filters: filters})
	require.NoError(t, err)

	assert.Equal(t, filters, store.filters)
	assert.Equal(t, "overtime", store.lastQuery.Text)
	assert.Len(t, store.lastQuery.Vector, 8)
}

func TestRetrieve_DeterministicUnderVaryingLatency(t *testing.T) {
	build := func(slowFirst bool) []domain.SearchResult {
		a := &mockProvider{name: "a", results: []domain.SearchResult{{ID: "a1", Title: "Alpha ruling", Content: "x"}}}
		b := &mockProvider{name: "b", results: []domain.SearchResult{{ID: "b1", Title: "Beta ruling", Content: "x"}}}
		if slowFirst {
			a.delay = 30 * time.Millisecond
		} else {
			b.delay = 30 * time.Millisecond
		}
		svc := newTestRetrieval(nil, []driven.RetrievalProvider{a, b})
		resp, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "ruling"})
		require.NoError(t, err)
		return resp.Results
	}

	first := build(true)
	second := build(false)
	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, "a1", first[0].ID)
}

func TestRetrieve_SlowProviderTimesOutWithoutBlockingOthers(t *testing.T) {
	slow := &mockProvider{name: "slow", delay: 5 * time.Second, results: []domain.SearchResult{{ID: "s", Title: "Slow"}}}
	fast := &mockProvider{name: "fast", results: []domain.SearchResult{{ID: "f", Title: "Fast"}}}
	svc := newTestRetrieval(nil, []driven.RetrievalProvider{slow, fast})

	start := time.Now()
	resp, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "anything"})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "f", resp.Results[0].ID)
	assert.Equal(t, domain.SourceTypeLive, resp.Results[0].SourceType)
	assert.Equal(t, "fast", resp.Results[0].Provider)
}

// stuckProvider ignores its context and returns only once released.
type stuckProvider struct {
	release chan struct{}
}

func (p *stuckProvider) Name() string { return "stuck" }

func (p *stuckProvider) Search(context.Context, string, domain.RetrievalOptions) ([]domain.SearchResult, error) {
	<-p.release
	return []domain.SearchResult{{ID: "late", Title: "Late"}}, nil
}

func (p *stuckProvider) HealthCheck(context.Context) domain.ProviderHealth {
	return domain.ProviderHealth{Provider: "stuck", Status: domain.ProviderOffline}
}

func (p *stuckProvider) Fetch(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func TestRetrieve_ProviderIgnoringContextIsAbandoned(t *testing.T) {
	stuck := &stuckProvider{release: make(chan struct{})}
	t.Cleanup(func() { close(stuck.release) })
	fast := &mockProvider{name: "fast", results: []domain.SearchResult{{ID: "f", Title: "Fast"}}}

	cfg := DefaultRetrievalConfig()
	cfg.ProviderTimeout = 100 * time.Millisecond
	svc := NewRetrievalService(nil, []driven.RetrievalProvider{stuck, fast},
		testEmbeddingService(newMockEmbedder("m", 8)), cfg)

	start := time.Now()
	resp, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "anything"})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second, "the stuck provider does not hold the fan-out")
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "f", resp.Results[0].ID)
}

func TestRetrieve_CancelledContext(t *testing.T) {
	slow := &mockProvider{name: "slow", delay: 5 * time.Second}
	cfg := DefaultRetrievalConfig()
	svc := NewRetrievalService(nil, []driven.RetrievalProvider{slow}, testEmbeddingService(newMockEmbedder("m", 8)), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := svc.Retrieve(ctx, domain.RetrievalRequest{Query: "anything"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRetrieve_PanickingProviderIsIsolated(t *testing.T) {
	store := newMockStore(domain.SearchResult{ID: "doc", Title: "Doc"})
	svc := newTestRetrieval(store, []driven.RetrievalProvider{&panicProvider{}})

	resp, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "doc"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
}

type panicProvider struct{ mockProvider }

func (*panicProvider) Name() string { return "panics" }

func (*panicProvider) Search(context.Context, string, domain.RetrievalOptions) ([]domain.SearchResult, error) {
	panic("boom")
}

func TestRetrieve_LimitAndRanks(t *testing.T) {
	var results []domain.SearchResult
	for i := 0; i < 30; i++ {
		results = append(results, domain.SearchResult{ID: fmt.Sprintf("r%d", i), Title: fmt.Sprintf("Result %d", i)})
	}
	provider := &mockProvider{name: "p", results: results}
	svc := newTestRetrieval(nil, []driven.RetrievalProvider{provider})

	resp, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "result"})
	require.NoError(t, err)
	require.Len(t, resp.Results, domain.DefaultRetrievalLimit)
	for i, r := range resp.Results {
		assert.Equal(t, i+1, r.Rank)
	}

	resp, err = svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "result", Limit: 5})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 5)
}

func TestRetrieve_CacheHitSkipsFanOut(t *testing.T) {
	provider := &mockProvider{name: "p", results: []domain.SearchResult{{ID: "1", Title: "Contract formation"}}}
	cache := newMockCache()
	svc := newTestRetrieval(nil, []driven.RetrievalProvider{provider}, WithQueryCache(cache))
	req := domain.RetrievalRequest{Query: "contract"}

	first, err := svc.Retrieve(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Retrieve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.callCount())
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len(context.Background()))
	assert.Equal(t, DefaultCacheTTL, cache.ttls[req.CacheKey()])
}

func TestRetrieve_CacheKeyIncludesFiltersAndLimit(t *testing.T) {
	provider := &mockProvider{name: "p", results: []domain.SearchResult{{ID: "1", Title: "Contract"}}}
	cache := newMockCache()
	svc := newTestRetrieval(nil, []driven.RetrievalProvider{provider}, WithQueryCache(cache))
	ctx := context.Background()

	_, err := svc.Retrieve(ctx, domain.RetrievalRequest{Query: "contract"})
	require.NoError(t, err)
	_, err = svc.Retrieve(ctx, domain.RetrievalRequest{Query: "contract", Filters: domain.Filters{Jurisdiction: "NY"}})
	require.NoError(t, err)
	_, err = svc.Retrieve(ctx, domain.RetrievalRequest{Query: "contract", Limit: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, provider.callCount())
	assert.Equal(t, 3, cache.Len(ctx))
}

func TestRetrieve_DegradedNotCached(t *testing.T) {
	upstream := newMockEmbedder("m", 8)
	upstream.err = errUpstream
	cache := newMockCache()
	svc := NewRetrievalService(newMockStore(domain.SearchResult{ID: "1", Title: "Tort"}), nil,
		testEmbeddingService(upstream), DefaultRetrievalConfig(), WithQueryCache(cache))

	resp, err := svc.Retrieve(context.Background(), domain.RetrievalRequest{Query: "tort"})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Equal(t, 0, cache.Len(context.Background()))
}

func TestSearch_ReturnsResults(t *testing.T) {
	store := newMockStore(domain.SearchResult{ID: "1", Title: "Negligence"})
	svc := newTestRetrieval(store, nil)

	results, err := svc.Search(context.Background(), "negligence", domain.RetrievalOptions{Limit: 3})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].ID)
}

func TestScoreResult(t *testing.T) {
	recent := testNow.AddDate(0, -2, 0)
	old := testNow.AddDate(-3, 0, 0)
	terms := []string{"miranda", "rights"}

	tests := []struct {
		name   string
		result domain.SearchResult
		want   float64
	}{
		{"no match", domain.SearchResult{Title: "Other", SourceType: domain.SourceTypeLive}, 0},
		{"title terms", domain.SearchResult{Title: "Miranda rights", SourceType: domain.SourceTypeLive}, 6},
		{"content term", domain.SearchResult{Content: "the rights of the accused", SourceType: domain.SourceTypeLive}, 1},
		{"internal", domain.SearchResult{SourceType: domain.SourceTypeInternal}, 2},
		{"citation", domain.SearchResult{Citation: "384 U.S. 436", SourceType: domain.SourceTypeLive}, 1},
		{"recent", domain.SearchResult{Date: &recent, SourceType: domain.SourceTypeLive}, 1},
		{"old", domain.SearchResult{Date: &old, SourceType: domain.SourceTypeLive}, 0},
		{
			"everything",
			domain.SearchResult{
				Title: "Miranda v. Arizona", Content: "miranda rights", Citation: "384 U.S. 436",
				Date: &recent, SourceType: domain.SourceTypeInternal,
			},
			3 + 2 + 1 + 2 + 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreResult(tt.result, terms, testNow, DefaultRecencyWindow))
		})
	}
}

func TestRankResults_StableForTies(t *testing.T) {
	in := []domain.SearchResult{
		{ID: "1", Title: "One"},
		{ID: "2", Title: "Two"},
		{ID: "3", Title: "Three lease"},
		{ID: "4", Title: "Four"},
	}

	out := RankResults(in, "lease", testNow, DefaultRecencyWindow, 10)

	ids := make([]string, len(out))
	for i, r := range out {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"3", "1", "2", "4"}, ids)
	assert.Zero(t, in[2].Score, "input must not be modified")
}

func TestDedupResults_Idempotent(t *testing.T) {
	in := []domain.SearchResult{
		{ID: "1", Title: "Roe v. Wade"},
		{ID: "2", Title: "ROE V WADE"},
		{ID: "3", Title: "Brown v. Board"},
		{ID: "4", Title: ""},
		{ID: "5", Title: "  "},
		{ID: "3", Title: "brown  v board!"},
	}

	once := DedupResults(in)
	twice := DedupResults(once)

	assert.Equal(t, once, twice)
	ids := make([]string, len(once))
	for i, r := range once {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"1", "3", "4", "5"}, ids)

	seen := map[string]bool{}
	for _, r := range once {
		norm := strings.ToLower(strings.Join(strings.Fields(r.Title), " "))
		if norm == "" {
			continue
		}
		assert.False(t, seen[norm])
		seen[norm] = true
	}
}
