package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DocumentService manages ingested documents.
type DocumentService interface {
	// List returns the documents in a scope. Empty scope lists all.
	List(ctx context.Context, scope string) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetContent returns the concatenated content of all chunks.
	GetContent(ctx context.Context, documentID string) (string, error)

	// GetDetails returns metadata for display.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Delete removes a document with its chunks, source and vectors.
	Delete(ctx context.Context, documentID string) error
}

// DocumentDetails provides a standardised view of document metadata.
type DocumentDetails struct {
	// ID is the unique document identifier.
	ID string

	// Filename is the uploaded file name.
	Filename string

	// Scope is the document's scope.
	Scope string

	// ContentType is the resolved content type.
	ContentType domain.ContentType

	// Size is the raw file size in bytes.
	Size int64

	// State is the processing state.
	State domain.ProcessingState

	// LastError is set when State is failed.
	LastError string

	// Revision counts pipeline runs.
	Revision int

	// ChunkCount is the number of chunks.
	ChunkCount int

	// Embedding is the provider identity used for the chunk vectors.
	Embedding domain.EmbeddingIdentity

	// IndexStatus reports vector store coverage.
	IndexStatus domain.IndexStatus

	// FailedBatches counts skipped vector batches.
	FailedBatches int

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time

	// Metadata contains flattened key-value pairs for display.
	Metadata map[string]string
}
