package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidFilters indicates malformed retrieval filters.
	// This is the only retrieval error surfaced to callers as a client error.
	ErrInvalidFilters = errors.New("invalid filters")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answer generation is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Retrieval Errors.

	// ErrEmbeddingDegraded indicates the upstream embedding call failed
	// and a fallback vector was substituted.
	ErrEmbeddingDegraded = errors.New("embedding degraded")

	// ErrVectorQueryFailed indicates the store's similarity path failed.
	// Stores recover by falling back to lexical search.
	ErrVectorQueryFailed = errors.New("vector query failed")

	// ErrProviderUnavailable indicates a provider errored or timed out.
	// The provider is excluded from aggregation.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderNotFound indicates no provider is registered under a name.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrDimensionMismatch indicates two vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrStoreUnavailable indicates the chunk store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrUnsupportedFormat indicates no normaliser handles a file type.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
