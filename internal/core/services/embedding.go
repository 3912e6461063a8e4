package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Embedding breaker defaults.
const (
	embedFailureLimit = 3
	embedCooldown     = 30 * time.Second
)

// Embeddings is the output of one document embedding call.
type Embeddings struct {
	// Vectors holds one vector per input text, all of one dimension.
	Vectors [][]float32

	// Identity is the provider that actually produced the vectors.
	Identity domain.EmbeddingIdentity

	// FellBack is set when the primary failed and the fallback served the call.
	FellBack bool

	// PrimaryErr is the primary provider's error when FellBack is set.
	PrimaryErr error
}

// EmbeddingAdapter embeds document chunks with the primary provider and
// falls back to the local provider when the primary fails. Queries are
// embedded with whichever provider matches the corpus identity.
type EmbeddingAdapter struct {
	primary  driven.EmbeddingService
	fallback driven.EmbeddingService
	breaker  *gobreaker.CircuitBreaker
}

// NewEmbeddingAdapter creates an adapter. fallback may be nil to disable
// fallback, and is ignored when it has the same identity as primary.
func NewEmbeddingAdapter(primary, fallback driven.EmbeddingService) *EmbeddingAdapter {
	if fallback != nil && driven.Identity(fallback).Matches(driven.Identity(primary)) {
		fallback = nil
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "embedding-" + string(primary.Provider()),
		MaxRequests: 1,
		Timeout:     embedCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= embedFailureLimit
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("%s breaker: %s -> %s", name, from, to)
		},
	})
	return &EmbeddingAdapter{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
	}
}

// Identities returns the identities this adapter can embed queries for.
func (a *EmbeddingAdapter) Identities() []domain.EmbeddingIdentity {
	ids := []domain.EmbeddingIdentity{driven.Identity(a.primary)}
	if a.fallback != nil {
		ids = append(ids, driven.Identity(a.fallback))
	}
	return ids
}

// EmbedDocuments embeds texts with the primary provider, falling back to the
// local provider on failure. The returned identity names the provider used.
func (a *EmbeddingAdapter) EmbedDocuments(ctx context.Context, texts []string) (*Embeddings, error) {
	if len(texts) == 0 {
		return &Embeddings{Identity: driven.Identity(a.primary)}, nil
	}

	vectors, err := a.embedPrimary(ctx, texts)
	if err == nil {
		return &Embeddings{Vectors: vectors, Identity: driven.Identity(a.primary)}, nil
	}
	if a.fallback == nil {
		return nil, fmt.Errorf("embed with %s: %w", a.primary.Provider(), err)
	}

	logger.Warn("Embedding with %s failed, falling back to %s: %v",
		a.primary.Provider(), a.fallback.Provider(), err)
	vectors, ferr := a.fallback.EmbedBatch(ctx, texts)
	if ferr == nil {
		ferr = checkVectors(vectors, len(texts), a.fallback.Dimensions())
	}
	if ferr != nil {
		return nil, fmt.Errorf("embed with %s: %w; fallback %s: %w",
			a.primary.Provider(), err, a.fallback.Provider(), ferr)
	}
	return &Embeddings{
		Vectors:    vectors,
		Identity:   driven.Identity(a.fallback),
		FellBack:   true,
		PrimaryErr: err,
	}, nil
}

// EmbedQuery embeds a query with the provider matching identity.
// It never substitutes another provider, since the vectors would not compare.
func (a *EmbeddingAdapter) EmbedQuery(ctx context.Context, text string, identity domain.EmbeddingIdentity) ([]float32, error) {
	var (
		vec []float32
		err error
	)
	switch {
	case driven.Identity(a.primary).Matches(identity):
		var result interface{}
		result, err = a.breaker.Execute(func() (interface{}, error) {
			return a.primary.Embed(ctx, text)
		})
		vec, _ = result.([]float32)
	case a.fallback != nil && driven.Identity(a.fallback).Matches(identity):
		vec, err = a.fallback.Embed(ctx, text)
	default:
		return nil, fmt.Errorf("no provider for %s: %w", identity, domain.ErrEmbeddingUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("embed query with %s: %w", identity.Provider, err)
	}
	return vec, nil
}

// embedPrimary runs the primary batch call through the breaker.
func (a *EmbeddingAdapter) embedPrimary(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		vectors, err := a.primary.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if err := checkVectors(vectors, len(texts), a.primary.Dimensions()); err != nil {
			return nil, err
		}
		return vectors, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return nil, err
	}
	vectors, _ := result.([][]float32)
	return vectors, nil
}

// checkVectors verifies a batch has one vector per text, all of dims length.
func checkVectors(vectors [][]float32, n, dims int) error {
	if len(vectors) != n {
		return fmt.Errorf("got %d vectors for %d texts", len(vectors), n)
	}
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("vector %d has %d dimensions, want %d: %w", i, len(v), dims, domain.ErrDimensionMismatch)
		}
	}
	return nil
}
