package mcp

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
)

// DocumentReader loads a stored document by ID.
type DocumentReader interface {
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
}

// Ports aggregates the interfaces required by the MCP server.
type Ports struct {
	// Retrieval answers retrieve calls.
	Retrieval driving.RetrievalService

	// Providers reports provider health. Optional.
	Providers driving.ProviderRegistry

	// Documents serves stored document content. Optional.
	Documents DocumentReader
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
