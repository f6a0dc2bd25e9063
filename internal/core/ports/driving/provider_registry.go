package driving

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// ProviderRegistry exposes the enabled retrieval providers.
type ProviderRegistry interface {
	// Names returns provider names in enumeration order.
	Names() []string

	// Health checks every provider concurrently and returns results in
	// enumeration order.
	Health(ctx context.Context) []domain.ProviderHealth
}
