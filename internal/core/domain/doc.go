// Package domain defines the core business entities for lexground.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested legal source with jurisdiction metadata
//   - Chunk: A bounded, embedded slice of a document
//   - SearchResult: A provider-agnostic retrieval hit
//   - CitationEntry: A numbered citation paired with a ranked result
//   - GroundingContext: Prompt blocks plus their citation list
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
