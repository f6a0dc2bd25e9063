package domain

import "time"

// Document represents an ingested legal source.
// Documents are never partially updated: re-ingesting a document replaces
// its whole chunk set.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title (case name, statute heading, etc).
	Title string

	// Content is the full text before chunking.
	Content string

	// Source is the display label of where the document came from.
	// Example: "CourtListener" or "Firm Memo Library".
	Source string

	// SourceURL is the canonical location of the original document.
	SourceURL string

	// Jurisdiction is the governing jurisdiction (e.g. "federal", "CA").
	Jurisdiction string

	// PracticeArea is the area of law (e.g. "criminal", "employment").
	PracticeArea string

	// DocumentType classifies the document (e.g. "case", "statute", "regulation").
	DocumentType string

	// PublishedAt is the decision or publication date, if known.
	PublishedAt *time.Time

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time
}

// Chunk represents a bounded contiguous slice of a document's text.
// It is the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the position within the document. Immutable once created.
	Index int

	// Content is the chunk text. Its byte length never exceeds the
	// configured chunk budget.
	Content string

	// Section is the section header the chunk belongs to, if one was found.
	Section string

	// Citations holds citation strings extracted from Content.
	Citations []string

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// EmbeddingDegraded is true when Embedding is a fallback vector.
	EmbeddingDegraded bool

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Embedding is a fixed-length vector tied to a (text, model) pair.
type Embedding struct {
	// Vector is the embedding values.
	Vector []float32

	// Model is the embedding model that produced the vector.
	Model string

	// Degraded is true when the upstream provider failed and Vector is a
	// deterministic fallback. Degraded vectors carry no semantic signal.
	Degraded bool
}
