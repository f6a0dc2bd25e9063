package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/logger"
	"github.com/custodia-labs/lexground/internal/metrics"
	"github.com/custodia-labs/lexground/internal/textutil"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory driven.ChunkStore. It backs tests and
// `--store memory` runs; nothing survives the process.
type ChunkStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
	metrics   *metrics.Metrics
}

// NewChunkStore creates a new in-memory chunk store. m may be nil.
func NewChunkStore(m *metrics.Metrics) *ChunkStore {
	return &ChunkStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
		metrics:   m,
	}
}

// SaveDocument stores or replaces a document.
func (s *ChunkStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// ReplaceChunks swaps the document's chunk set under the write lock.
func (s *ChunkStore) ReplaceChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return fmt.Errorf("replacing chunks of %s: %w", documentID, domain.ErrNotFound)
	}

	stored := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.DocumentID = documentID
		stored[i] = c
	}
	s.chunks[documentID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *ChunkStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// DeleteDocument removes a document and its chunks.
func (s *ChunkStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// CountChunks returns the number of stored chunks.
func (s *ChunkStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, chunks := range s.chunks {
		n += len(chunks)
	}
	return n, nil
}

// scored is a candidate chunk with its ranking key.
type scored struct {
	doc   *domain.Document
	chunk domain.Chunk
	key   float64
}

// SimilaritySearch ranks chunks by ascending cosine distance to q.Vector.
// An empty vector or a dimension mismatch falls back to LexicalSearch.
func (s *ChunkStore) SimilaritySearch(
	ctx context.Context, q domain.SimilarityQuery, limit int, filters domain.Filters,
) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	results, err := s.vectorSearch(q.Vector, limit, filters)
	if err == nil {
		return results, nil
	}

	logger.Warn("memory store: %v, falling back to lexical search", err)
	s.metrics.RecordVectorFallback()
	return s.LexicalSearch(ctx, q.Text, limit, filters)
}

func (s *ChunkStore) vectorSearch(vector []float32, limit int, filters domain.Filters) ([]domain.SearchResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrVectorQueryFailed)
	}

	var candidates []scored
	err := s.each(filters, func(doc *domain.Document, c domain.Chunk) error {
		if len(c.Embedding) == 0 {
			return nil
		}
		d, err := domain.CosineDistance(vector, c.Embedding)
		if err != nil {
			return fmt.Errorf("%w: chunk %s: %w", domain.ErrVectorQueryFailed, c.ID, err)
		}
		candidates = append(candidates, scored{doc: doc, chunk: c, key: d})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return top(candidates, limit, true), nil
}

// LexicalSearch ranks chunks by how often the query terms occur.
func (s *ChunkStore) LexicalSearch(
	ctx context.Context, query string, limit int, filters domain.Filters,
) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := textutil.QueryTerms(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	var candidates []scored
	_ = s.each(filters, func(doc *domain.Document, c domain.Chunk) error {
		content := strings.ToLower(c.Content)
		hits := 0
		for _, t := range terms {
			hits += strings.Count(content, t)
		}
		if hits > 0 {
			candidates = append(candidates, scored{doc: doc, chunk: c, key: float64(hits)})
		}
		return nil
	})
	return top(candidates, limit, false), nil
}

// each visits chunks of documents matching filters in a stable order.
func (s *ChunkStore) each(filters domain.Filters, fn func(*domain.Document, domain.Chunk) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.documents))
	for id := range s.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		doc := s.documents[id]
		if !filters.Matches(&doc) {
			continue
		}
		for _, c := range s.chunks[id] {
			if err := fn(&doc, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// top sorts by key and truncates to limit. Visiting order already breaks
// ties by document and position.
func top(candidates []scored, limit int, ascending bool) []domain.SearchResult {
	sort.SliceStable(candidates, func(i, j int) bool {
		if ascending {
			return candidates[i].key < candidates[j].key
		}
		return candidates[i].key > candidates[j].key
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]domain.SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = domain.InternalResult(c.doc, c.chunk)
	}
	return results
}

// Close releases resources.
func (s *ChunkStore) Close() error {
	return nil
}
