package driving

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// RetrievalService provides grounded retrieval to external actors.
type RetrievalService interface {
	// Retrieve returns ranked results, their citations and the rendered
	// prompt blocks. Only domain.ErrInvalidFilters and context errors
	// are returned; store and provider failures degrade silently.
	Retrieve(ctx context.Context, req domain.RetrievalRequest) (*domain.RetrievalResponse, error)

	// Search returns only the ranked results for a query.
	Search(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.SearchResult, error)
}

// EmbeddingService turns text into vectors with caching and degraded fallback.
type EmbeddingService interface {
	// Embed returns the embedding for text. The model argument overrides
	// the configured model when non-empty.
	Embed(ctx context.Context, text, model string) (domain.Embedding, error)

	// EmbedBatch embeds texts preserving order.
	EmbedBatch(ctx context.Context, texts []string, model string) ([]domain.Embedding, error)

	// Similarity returns the cosine similarity of two vectors in [-1, 1].
	Similarity(a, b []float32) (float64, error)
}
