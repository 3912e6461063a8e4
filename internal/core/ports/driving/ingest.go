package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestService runs uploaded files through extraction, chunking,
// embedding and vector storage.
type IngestService interface {
	// Upload ingests a file into a scope and returns once the run finishes.
	// The returned document is completed or failed; a failed run is not an error.
	Upload(ctx context.Context, req UploadRequest) (*IngestResult, error)

	// Submit registers the file and runs the pipeline in the background.
	// The pending document is returned immediately; poll its state.
	Submit(ctx context.Context, req UploadRequest) (*domain.Document, error)

	// Reprocess re-runs the pipeline on a document's stored source,
	// replacing its chunks and vectors.
	Reprocess(ctx context.Context, documentID string) (*IngestResult, error)

	// Wait blocks until background runs started by Submit have finished.
	Wait()
}

// UploadRequest is a validated file from the upload boundary.
type UploadRequest struct {
	// File is the uploaded file.
	File domain.RawFile

	// Scope is the conversation or collection the file belongs to.
	Scope string

	// Strategy overrides the configured chunk strategy when set.
	Strategy domain.ChunkStrategy
}

// IngestResult reports the outcome of one pipeline run.
type IngestResult struct {
	// Document is the document after the run.
	Document *domain.Document

	// Batches holds one result per vector write batch.
	// Empty when the vector store was unavailable.
	Batches []domain.BatchResult

	// Extraction describes which methods were tried.
	Extraction []domain.ExtractionAttempt

	// Warnings are non-fatal problems seen during the run.
	Warnings []string
}
