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
//   - Extractor: One method of the extraction chain
//   - ExtractionChain: Ordered extraction with fallback
//   - Chunker / ChunkingPipeline: Element to chunk splitting
//   - EmbeddingService: Generates vector embeddings (the local provider always works)
//   - DocumentStore: Document registry, chunks and source bytes
//   - ConfigStore: Application configuration
//
// # Best-Effort Interfaces
//
// These may be unavailable at runtime - the application degrades gracefully:
//
//   - VectorStore: Vector storage/search. Probed before use; when it is down
//     ingestion completes with placeholder vectors and search returns nothing.
//   - Remote EmbeddingService: Falls back to the local provider.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or post-processor package
package driven
