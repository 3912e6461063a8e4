// Package vector holds helpers shared by the vector store adapters.
//
// Adapters live in subpackages:
//
//   - memory: full-scan store held in process memory
//   - qdrant: Qdrant REST client
//
// The sqlite store lives with the sqlite registry so both share one database.
package vector
