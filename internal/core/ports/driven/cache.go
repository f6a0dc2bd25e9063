package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// QueryCache stores retrieval responses keyed by query, filters and limit.
// Entries expire after their TTL. Backends bound their size.
type QueryCache interface {
	// Get returns the cached response, or false on miss or expiry.
	Get(ctx context.Context, key string) (*domain.RetrievalResponse, bool)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value *domain.RetrievalResponse, ttl time.Duration) error

	// Len returns the number of live entries, or -1 if the backend cannot tell.
	Len(ctx context.Context) int
}
