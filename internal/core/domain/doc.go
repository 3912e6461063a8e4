// Package domain defines the core business entities for sercha-rag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded file and its processing state
//   - Element: A structured piece of extracted text
//   - Chunk: A searchable unit within a document
//   - VectorRecord: A chunk embedding as held by the vector store
//   - AppSettings: Pipeline configuration with per-scope overrides
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
