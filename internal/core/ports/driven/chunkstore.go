package driven

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// ChunkStore persists documents and their chunks and answers similarity queries.
// The store exclusively owns persisted document and chunk rows.
type ChunkStore interface {
	// SaveDocument creates or replaces a document row.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// ReplaceChunks atomically replaces a document's whole chunk set.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if the document does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// CountChunks returns the number of persisted chunks.
	CountChunks(ctx context.Context) (int, error)

	// SimilaritySearch returns chunks nearest to q.Vector, ascending distance,
	// joined with document metadata and narrowed by filters.
	// Any vector-path failure falls back to LexicalSearch on q.Text with the
	// same filters; callers never see domain.ErrVectorQueryFailed.
	SimilaritySearch(ctx context.Context, q domain.SimilarityQuery, limit int, filters domain.Filters) ([]domain.SearchResult, error)

	// LexicalSearch ranks chunks by full-text relevance to query.
	LexicalSearch(ctx context.Context, query string, limit int, filters domain.Filters) ([]domain.SearchResult, error)

	// Close releases resources.
	Close() error
}
