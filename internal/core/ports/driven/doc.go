// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ChunkStore: Document and chunk persistence with similarity search
//   - QueryCache: TTL-bounded cache of retrieval responses
//   - ConfigStore: Application configuration
//   - PostProcessor: Ingestion pipeline stages (chunking, citation extraction)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, every vector is a
//     flagged fallback and stores rely on lexical search.
//   - BatchEmbedder: Batch extension of EmbeddingService.
//   - RetrievalProvider: External legal sources. Zero providers means internal-only retrieval.
//   - LLMService: Answer generation. Without it, only retrieval is available.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, provider, or post-processor package
package driven
