// Package memory provides an in-process vector store that ranks by full scan.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

type collection struct {
	dimensions int
	records    map[string]domain.VectorRecord
}

// Store keeps vectors in memory. Search scores every record in the
// collection that passes the filter.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	down        atomic.Bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// SetAvailable toggles whether the store answers requests.
// An unavailable store fails every call with ErrVectorStoreUnavailable.
func (s *Store) SetAvailable(ok bool) {
	s.down.Store(!ok)
}

// Ping checks that the store is reachable.
func (s *Store) Ping(_ context.Context) error {
	if s.down.Load() {
		return domain.ErrVectorStoreUnavailable
	}
	return nil
}

// EnsureCollection creates the collection if it does not exist.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}
	if dimensions <= 0 {
		return fmt.Errorf("collection %s: dimensions must be positive: %w", name, domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		if c.dimensions != dimensions {
			return fmt.Errorf("collection %s holds %d dims, not %d: %w",
				name, c.dimensions, dimensions, domain.ErrDimensionMismatch)
		}
		return nil
	}
	s.collections[name] = &collection{
		dimensions: dimensions,
		records:    make(map[string]domain.VectorRecord),
	}
	return nil
}

// Upsert inserts or replaces records. Every record must match the
// collection's dimensions.
func (s *Store) Upsert(ctx context.Context, name string, records []domain.VectorRecord) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	for _, r := range records {
		if r.Dimensions() != c.dimensions {
			return fmt.Errorf("chunk %s has %d dims, collection %s holds %d: %w",
				r.ChunkID, r.Dimensions(), name, c.dimensions, domain.ErrDimensionMismatch)
		}
	}
	for _, r := range records {
		r.Embedding = append([]float32(nil), r.Embedding...)
		c.records[r.ChunkID] = r
	}
	return nil
}

// Search scores every record in the collection against the query.
// Records of a different length are excluded, never scored.
func (s *Store) Search(
	ctx context.Context,
	name string,
	query []float32,
	filter domain.VectorFilter,
	limit int,
) ([]driven.VectorHit, error) {
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, nil
	}

	var hits []driven.VectorHit
	excluded := 0
	for _, r := range c.records {
		if filter.Scope != "" && r.Scope != filter.Scope {
			continue
		}
		if !vector.MatchesDocument(filter.DocumentIDs, r.DocumentID) {
			continue
		}
		score, err := domain.CosineSimilarity(query, r.Embedding)
		if err != nil {
			excluded++
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    r.ChunkID,
			DocumentID: r.DocumentID,
			Position:   r.Position,
			Dimensions: r.Dimensions(),
			Similarity: score,
		})
	}
	if excluded > 0 {
		logger.Debug("vector memory: excluded %d records with mismatched dimensions from %s", excluded, name)
	}

	vector.SortHits(hits)
	return vector.Limit(hits, limit), nil
}

// Delete removes records by chunk ID.
func (s *Store) Delete(ctx context.Context, name string, chunkIDs []string) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	for _, id := range chunkIDs {
		delete(c.records, id)
	}
	return nil
}

// DeleteByDocument removes every record of a document.
func (s *Store) DeleteByDocument(ctx context.Context, name, documentID string) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	for id, r := range c.records {
		if r.DocumentID == documentID {
			delete(c.records, id)
		}
	}
	return nil
}

// Count returns the number of records in a collection.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return len(c.records)
	}
	return 0
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}
