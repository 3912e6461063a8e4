// Package cache wraps an embedding service with an expiring LRU cache for
// single-text embeddings. Repeated queries skip the provider round trip.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default cache settings.
const (
	DefaultSize = 512
	DefaultTTL  = 15 * time.Minute
)

// EmbeddingService caches Embed results of the wrapped service.
// Batch calls pass through uncached.
type EmbeddingService struct {
	driven.EmbeddingService
	lru *expirable.LRU[string, []float32]
}

// New wraps svc. Non-positive size or ttl use the defaults.
func New(svc driven.EmbeddingService, size int, ttl time.Duration) *EmbeddingService {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EmbeddingService{
		EmbeddingService: svc,
		lru:              expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

// Embed returns a cached vector or computes and stores one.
// Callers receive a copy, so mutating the result never corrupts the cache.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.lru.Get(text); ok {
		return clone(v), nil
	}
	v, err := s.EmbeddingService.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.lru.Add(text, clone(v))
	return v, nil
}

// Len returns the number of cached entries.
func (s *EmbeddingService) Len() int {
	return s.lru.Len()
}

// Purge drops all cached entries.
func (s *EmbeddingService) Purge() {
	s.lru.Purge()
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
