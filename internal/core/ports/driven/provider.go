package driven

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// RetrievalProvider is an external source of legal documents.
//
// Search tries the live API first. When credentials are missing or the live
// call fails, it answers from a curated static set instead of returning an
// error, so the aggregator always receives a deterministic response.
type RetrievalProvider interface {
	// Name returns the provider's stable identifier (e.g. "courtlistener").
	Name() string

	// Search returns results with SourceType live.
	Search(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.SearchResult, error)

	// HealthCheck reports online, limited (fallback only) or offline.
	HealthCheck(ctx context.Context) domain.ProviderHealth

	// Fetch retrieves a full document for import into the chunk store.
	Fetch(ctx context.Context, id string) (*domain.Document, error)
}
