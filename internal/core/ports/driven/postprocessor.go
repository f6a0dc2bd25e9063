package driven

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// PostProcessor turns document content into chunks or refines existing chunks.
// PostProcessors are chained in a pipeline (chunking, then citation extraction).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// A processor that creates chunks (the chunker) receives nil and returns new chunks.
	// A processor that refines chunks receives and returns the chunk slice.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns the final chunks after all processing.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
