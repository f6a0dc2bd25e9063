package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
)

var errUpstream = errors.New("upstream failed")

// mockEmbedder is an upstream embedding service returning fixed-size vectors
// derived from text length.
type mockEmbedder struct {
	mu     sync.Mutex
	model  string
	dims   int
	err    error
	calls  int
	inputs []string
}

func newMockEmbedder(model string, dims int) *mockEmbedder {
	return &mockEmbedder{model: model, dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.inputs = append(m.inputs, text)
	if m.err != nil {
		return nil, m.err
	}
	vec := make([]float32, m.dims)
	vec[0] = float32(len(text))
	if m.dims > 1 {
		vec[1] = 1
	}
	return vec, nil
}

func (m *mockEmbedder) Dimensions() int             { return m.dims }
func (m *mockEmbedder) ModelName() string           { return m.model }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockBatchEmbedder adds a batch endpoint.
type mockBatchEmbedder struct {
	*mockEmbedder
	batchCalls int
}

func (m *mockBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.mockEmbedder.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var _ driven.BatchEmbedder = (*mockBatchEmbedder)(nil)

// mockStore is a ChunkStore returning canned results.
type mockStore struct {
	mu        sync.Mutex
	results   []domain.SearchResult
	err       error
	delay     time.Duration
	lastQuery domain.SimilarityQuery
	filters   domain.Filters
	docs      map[string]*domain.Document
	chunks    map[string][]domain.Chunk
	saveErr   error
}

func newMockStore(results ...domain.SearchResult) *mockStore {
	return &mockStore{
		results: results,
		docs:    map[string]*domain.Document{},
		chunks:  map[string][]domain.Chunk{},
	}
}

func (m *mockStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockStore) ReplaceChunks(_ context.Context, docID string, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[docID] = chunks
	return nil
}

func (m *mockStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	delete(m.chunks, id)
	return nil
}

func (m *mockStore) CountChunks(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.chunks {
		n += len(c)
	}
	return n, nil
}

func (m *mockStore) SimilaritySearch(
	ctx context.Context, q domain.SimilarityQuery, limit int, filters domain.Filters,
) ([]domain.SearchResult, error) {
	m.mu.Lock()
	m.lastQuery = q
	m.filters = filters
	m.mu.Unlock()
	return m.search(ctx, limit)
}

func (m *mockStore) LexicalSearch(ctx context.Context, _ string, limit int, _ domain.Filters) ([]domain.SearchResult, error) {
	return m.search(ctx, limit)
}

func (m *mockStore) search(ctx context.Context, limit int) ([]domain.SearchResult, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	out := append([]domain.SearchResult(nil), m.results...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockStore) Close() error { return nil }

// mockProvider is a RetrievalProvider returning canned results.
type mockProvider struct {
	name    string
	results []domain.SearchResult
	err     error
	delay   time.Duration
	health  domain.ProviderHealth
	docs    map[string]*domain.Document
	calls   int
	mu      sync.Mutex
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Search(ctx context.Context, _ string, _ domain.RetrievalOptions) ([]domain.SearchResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.SearchResult(nil), m.results...), nil
}

func (m *mockProvider) HealthCheck(_ context.Context) domain.ProviderHealth {
	h := m.health
	h.Provider = m.name
	if h.Status == "" {
		h.Status = domain.ProviderOnline
	}
	return h
}

func (m *mockProvider) Fetch(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockCache is an unbounded QueryCache without expiry.
type mockCache struct {
	mu      sync.Mutex
	entries map[string]*domain.RetrievalResponse
	ttls    map[string]time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{
		entries: map[string]*domain.RetrievalResponse{},
		ttls:    map[string]time.Duration{},
	}
}

func (m *mockCache) Get(_ context.Context, key string) (*domain.RetrievalResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *mockCache) Set(_ context.Context, key string, value *domain.RetrievalResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Len(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// mockLLM streams a fixed reply token by token.
type mockLLM struct {
	tokens   []string
	err      error
	messages []domain.ChatMessage
}

func (m *mockLLM) StreamChat(
	_ context.Context, messages []domain.ChatMessage, _ driven.ChatOptions, onToken func(string),
) (string, error) {
	m.messages = messages
	if m.err != nil {
		return "", m.err
	}
	var full string
	for _, t := range m.tokens {
		if onToken != nil {
			onToken(t)
		}
		full += t
	}
	return full, nil
}

func (m *mockLLM) ModelName() string           { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                { return nil }

// fixedClock returns a constant time.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// testEmbeddingService returns a service with fast retries.
func testEmbeddingService(upstreams ...driven.EmbeddingService) *EmbeddingService {
	cfg := DefaultEmbeddingConfig()
	cfg.Dimensions = 8
	cfg.BatchDelay = 0
	cfg.RetryInterval = time.Millisecond
	cfg.RetryBudget = 100 * time.Millisecond
	svc, err := NewEmbeddingService(cfg, upstreams)
	if err != nil {
		panic(err)
	}
	return svc
}
