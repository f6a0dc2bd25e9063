// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval pipeline lives here: EmbeddingService vectorises text,
// IngestService chunks and persists documents, RetrievalService fans out
// to the store and providers and ranks the merged results, and
// GroundingBuilder renders numbered source blocks for the LLM.
//
// Services are pure Go with no CGO.
package services
