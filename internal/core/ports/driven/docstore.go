package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DocumentStore is the document registry. It persists documents, their
// chunks and the uploaded source bytes, indexed by scope.
type DocumentStore interface {
	// SaveDocument stores or updates a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns the documents in a scope. Empty scope lists all.
	ListDocuments(ctx context.Context, scope string) ([]domain.Document, error)

	// DeleteDocument removes a document with its chunks and source.
	DeleteDocument(ctx context.Context, id string) error

	// ReplaceChunks swaps the document's chunk set and saves the document in
	// one transaction. doc.ChunkCount is set to len(chunks).
	ReplaceChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// SaveSource stores the uploaded bytes for reprocessing.
	SaveSource(ctx context.Context, documentID string, file *domain.RawFile) error

	// GetSource retrieves the uploaded bytes.
	GetSource(ctx context.Context, documentID string) (*domain.RawFile, error)
}
