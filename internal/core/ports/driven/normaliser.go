package driven

import (
	"context"

	"github.com/custodia-labs/lexground/internal/core/domain"
)

// Normaliser extracts plain text and a title from one file format.
// The returned document has Title and Content set; the caller assigns
// the ID and legal metadata.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise converts raw file content into a document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// NormaliserRegistry selects the best normaliser for a raw document.
type NormaliserRegistry interface {
	// Normalise uses the highest-priority normaliser for raw.MIMEType.
	// Returns domain.ErrUnsupportedFormat if none matches.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)

	// Register adds a normaliser.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string

	// DetectMIMEType returns the MIME type for a file path from its
	// extension, or "" if the format is not supported.
	DetectMIMEType(path string) string
}
