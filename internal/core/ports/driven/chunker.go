package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Chunker splits extracted elements into ordered chunks for one strategy.
type Chunker interface {
	// Strategy returns the strategy this chunker implements.
	Strategy() domain.ChunkStrategy

	// Chunk returns chunks with content, position and inherited metadata.
	Chunk(ctx context.Context, elements []domain.Element) ([]domain.Chunk, error)
}

// ChunkingPipeline resolves a strategy and produces a document's chunks.
type ChunkingPipeline interface {
	// Process chunks the elements and stamps IDs and the document ID.
	Process(ctx context.Context, doc *domain.Document, elements []domain.Element, opts domain.ChunkOptions) (*ChunkResult, error)
}

// ChunkResult is the output of the chunking pipeline.
type ChunkResult struct {
	// Chunks are ordered by position.
	Chunks []domain.Chunk

	// Strategy is the strategy that was applied after auto-detection.
	Strategy domain.ChunkStrategy
}
