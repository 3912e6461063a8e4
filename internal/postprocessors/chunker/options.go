// Package chunker splits extracted elements into bounded, overlapping chunks.
//
// Four strategies are provided: fixed (sliding window), semantic
// (paragraph accumulation), markdown (heading sections) and code
// (top-level declarations). Detect picks one from content signatures.
//
// No chunk exceeds the configured size unless a single indivisible unit
// (one paragraph or one line) is already larger; such units are emitted
// whole rather than cut.
package chunker

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// Option configures a chunker.
type Option func(*config)

// config holds the size limits shared by all strategies.
type config struct {
	size    int
	overlap int
}

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *config) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// newConfig applies options over the defaults.
func newConfig(opts []Option) config {
	c := config{
		size:    domain.DefaultChunkSize,
		overlap: domain.DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(&c)
	}
	// Overlap must leave room to advance.
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}
