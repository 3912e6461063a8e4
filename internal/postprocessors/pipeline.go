// Package postprocessors turns extracted elements into stored chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

// Ensure Pipeline implements the interface.
var _ driven.ChunkingPipeline = (*Pipeline)(nil)

// Pipeline resolves a chunk strategy and runs the matching chunker.
// It implements the ChunkingPipeline interface.
type Pipeline struct {
	registry *Registry
}

// NewPipeline creates a pipeline over the given registry.
func NewPipeline(registry *Registry) *Pipeline {
	return &Pipeline{registry: registry}
}

// NewDefaultPipeline creates a pipeline with the built-in strategies.
func NewDefaultPipeline() *Pipeline {
	r := NewRegistry()
	RegisterDefaults(r)
	return NewPipeline(r)
}

// Process chunks the elements for the document.
// An auto strategy is resolved from the content first. Chunks get fresh IDs,
// the document ID and positions 0..n-1.
func (p *Pipeline) Process(
	ctx context.Context,
	doc *domain.Document,
	elements []domain.Element,
	opts domain.ChunkOptions,
) (*driven.ChunkResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	strategy := opts.Strategy
	if strategy == "" || strategy == domain.ChunkAuto {
		strategy = chunker.Detect(elements)
	}

	c, err := p.registry.Build(strategy, opts)
	if err != nil {
		return nil, err
	}

	chunks, err := c.Chunk(ctx, elements)
	if err != nil {
		return nil, fmt.Errorf("chunker %s: %w", strategy, err)
	}

	for i := range chunks {
		chunks[i].ID = uuid.New().String()
		chunks[i].DocumentID = doc.ID
		chunks[i].Position = i
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any)
		}
		chunks[i].Metadata[domain.ChunkStrategyKey] = string(strategy)
	}

	return &driven.ChunkResult{Chunks: chunks, Strategy: strategy}, nil
}
