// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
//
// Implementations include:
//   - Local in-process model (384 dims)
//   - Ollama (all-minilm, nomic-embed-text)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Gemini (text-embedding-004)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// All returned vectors share one dimension.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Provider returns the provider identifier recorded with the vectors.
	Provider() domain.AIProvider

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Identity returns the embedding identity of a service.
func Identity(s EmbeddingService) domain.EmbeddingIdentity {
	return domain.EmbeddingIdentity{
		Provider:   s.Provider(),
		Model:      s.ModelName(),
		Dimensions: s.Dimensions(),
	}
}
