package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// BuilderFunc creates a Chunker for the resolved chunk options.
type BuilderFunc func(opts domain.ChunkOptions) driven.Chunker

// Registry maps chunk strategies to their builders.
// It allows chunkers to be constructed per document from scope settings.
type Registry struct {
	builders map[domain.ChunkStrategy]BuilderFunc
}

// NewRegistry creates a new chunker registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[domain.ChunkStrategy]BuilderFunc),
	}
}

// Register adds a chunker builder to the registry.
// The strategy should match the chunker's Strategy() return value.
func (r *Registry) Register(strategy domain.ChunkStrategy, builder BuilderFunc) {
	r.builders[strategy] = builder
}

// Build creates a chunker for the strategy with the given options.
// Returns error if the strategy is not registered.
func (r *Registry) Build(strategy domain.ChunkStrategy, opts domain.ChunkOptions) (driven.Chunker, error) {
	builder, ok := r.builders[strategy]
	if !ok {
		return nil, fmt.Errorf("unknown chunk strategy: %s", strategy)
	}
	return builder(opts), nil
}

// Has returns true if a chunker for the strategy is registered.
func (r *Registry) Has(strategy domain.ChunkStrategy) bool {
	_, ok := r.builders[strategy]
	return ok
}

// Strategies returns all registered strategies in sorted order.
func (r *Registry) Strategies() []domain.ChunkStrategy {
	out := make([]domain.ChunkStrategy, 0, len(r.builders))
	for s := range r.builders {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
