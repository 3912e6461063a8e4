package postprocessors

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in chunkers with the registry.
// Call this during application initialisation to enable standard strategies.
func RegisterDefaults(r *Registry) {
	r.Register(domain.ChunkFixed, func(o domain.ChunkOptions) driven.Chunker {
		return chunker.NewFixed(chunkerOptions(o)...)
	})
	r.Register(domain.ChunkSemantic, func(o domain.ChunkOptions) driven.Chunker {
		return chunker.NewSemantic(chunkerOptions(o)...)
	})
	r.Register(domain.ChunkMarkdown, func(o domain.ChunkOptions) driven.Chunker {
		return chunker.NewMarkdown(chunkerOptions(o)...)
	})
	r.Register(domain.ChunkCode, func(o domain.ChunkOptions) driven.Chunker {
		return chunker.NewCode(chunkerOptions(o)...)
	})
}

// chunkerOptions maps options onto chunker options. Zero-valued options
// keep the chunker defaults; resolved options (a positive size) carry
// their overlap as given, including 0.
func chunkerOptions(o domain.ChunkOptions) []chunker.Option {
	if o.Size <= 0 {
		return nil
	}
	return []chunker.Option{
		chunker.WithChunkSize(o.Size),
		chunker.WithOverlap(o.Overlap),
	}
}
