package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driven"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
)

// DefaultHealthTimeout bounds a single provider health check.
const DefaultHealthTimeout = 5 * time.Second

// Ensure ProviderRegistry implements the interface.
var _ driving.ProviderRegistry = (*ProviderRegistry)(nil)

// ProviderRegistry holds the enabled live providers in a fixed order.
// That order is the enumeration order used for fan-out and dedup.
type ProviderRegistry struct {
	providers []driven.RetrievalProvider
	timeout   time.Duration
}

// NewProviderRegistry creates a registry. Providers with a duplicate name
// are rejected.
func NewProviderRegistry(providers ...driven.RetrievalProvider) (*ProviderRegistry, error) {
	seen := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		if _, dup := seen[p.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate provider %q", domain.ErrInvalidInput, p.Name())
		}
		seen[p.Name()] = struct{}{}
	}
	return &ProviderRegistry{
		providers: providers,
		timeout:   DefaultHealthTimeout,
	}, nil
}

// Names returns provider names in enumeration order.
func (r *ProviderRegistry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Providers returns a copy of the provider list.
func (r *ProviderRegistry) Providers() []driven.RetrievalProvider {
	out := make([]driven.RetrievalProvider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Get returns the provider registered under name.
func (r *ProviderRegistry) Get(name string) (driven.RetrievalProvider, error) {
	for _, p := range r.providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotFound, name)
}

// Health checks every provider concurrently. A check that does not finish
// within the timeout reports the provider offline.
func (r *ProviderRegistry) Health(ctx context.Context) []domain.ProviderHealth {
	results := make([]domain.ProviderHealth, len(r.providers))

	var wg sync.WaitGroup
	for i, p := range r.providers {
		wg.Add(1)
		go func(i int, p driven.RetrievalProvider) {
			defer wg.Done()
			results[i] = r.check(ctx, p)
		}(i, p)
	}
	wg.Wait()

	return results
}

func (r *ProviderRegistry) check(ctx context.Context, p driven.RetrievalProvider) domain.ProviderHealth {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan domain.ProviderHealth, 1)
	go func() {
		done <- p.HealthCheck(ctx)
	}()

	select {
	case h := <-done:
		h.Provider = p.Name()
		if !h.Status.IsValid() {
			h.Status = domain.ProviderOffline
		}
		return h
	case <-ctx.Done():
		return domain.ProviderHealth{
			Provider: p.Name(),
			Status:   domain.ProviderOffline,
			Message:  "health check timed out",
		}
	}
}
