package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorStore stores chunk vectors and ranks them against a query.
// It is best-effort: callers probe it with Ping before reading or writing.
type VectorStore interface {
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// EnsureCollection creates the collection for vectors of the given size.
	EnsureCollection(ctx context.Context, name string, dimensions int) error

	// Upsert inserts or replaces records in a collection.
	Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error

	// Search returns up to limit hits ordered by descending similarity.
	// Records whose length differs from the query are never returned.
	Search(ctx context.Context, collection string, query []float32, filter domain.VectorFilter, limit int) ([]VectorHit, error)

	// Delete removes records by chunk ID.
	Delete(ctx context.Context, collection string, chunkIDs []string) error

	// DeleteByDocument removes every record of a document.
	DeleteByDocument(ctx context.Context, collection string, documentID string) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's document.
	DocumentID string

	// Position is the chunk's ordinal, used to break score ties.
	Position int

	// Dimensions is the stored vector length.
	Dimensions int

	// Similarity is the cosine similarity score (-1 to 1).
	Similarity float64
}
