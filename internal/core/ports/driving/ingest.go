package driving

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// IngestResult summarises a completed ingestion.
type IngestResult struct {
	DocumentID string `json:"documentId"`
	Chunks     int    `json:"chunks"`
	Degraded   int    `json:"degraded"`
}

// IngestService chunks, embeds and persists documents.
type IngestService interface {
	// Ingest replaces the document and its whole chunk set.
	Ingest(ctx context.Context, doc *domain.Document) (*IngestResult, error)

	// IngestFile reads a text or markdown file and ingests it.
	// meta supplies jurisdiction, practice area and document type.
	IngestFile(ctx context.Context, path string, meta domain.Document) (*IngestResult, error)

	// RemoveFile deletes the document previously ingested from path.
	RemoveFile(ctx context.Context, path string) error

	// Import fetches a document from a named provider and ingests it.
	Import(ctx context.Context, provider, id string) (*IngestResult, error)
}
