package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// runTracker reports whether a document has a pipeline run in progress.
type runTracker interface {
	Running(documentID string) bool
}

// DocumentService manages ingested documents.
type DocumentService struct {
	docStore   driven.DocumentStore
	writer     *VectorWriter
	collection string
	runs       runTracker
}

// NewDocumentService creates a new document service.
// The writer may be nil, in which case vectors are left to the store.
func NewDocumentService(docStore driven.DocumentStore, writer *VectorWriter, collection string) *DocumentService {
	return &DocumentService{
		docStore:   docStore,
		writer:     writer,
		collection: collection,
	}
}

// TrackRuns makes Delete refuse documents whose run is in progress.
// Without a tracker no run is considered in progress.
func (s *DocumentService) TrackRuns(runs runTracker) {
	s.runs = runs
}

// List returns the documents in a scope.
func (s *DocumentService) List(ctx context.Context, scope string) ([]domain.Document, error) {
	if s.docStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.docStore.ListDocuments(ctx, scope)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if s.docStore == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.docStore.GetDocument(ctx, documentID)
}

// GetContent returns the concatenated content of all chunks.
func (s *DocumentService) GetContent(ctx context.Context, documentID string) (string, error) {
	if s.docStore == nil {
		return "", domain.ErrNotImplemented
	}

	// Verify document exists
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return "", err
	}

	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return "", err
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Position < chunks[j].Position
	})

	var builder strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(chunk.Content)
	}

	return builder.String(), nil
}

// GetDetails returns metadata for display.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	if s.docStore == nil {
		return nil, domain.ErrNotImplemented
	}

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	// Flatten metadata to string map
	metadata := make(map[string]string, len(doc.Metadata))
	for key, value := range doc.Metadata {
		metadata[key] = fmt.Sprintf("%v", value)
	}

	return &driving.DocumentDetails{
		ID:            doc.ID,
		Filename:      doc.Filename,
		Scope:         doc.Scope,
		ContentType:   doc.ContentType,
		Size:          doc.Size,
		State:         doc.State,
		LastError:     doc.LastError,
		Revision:      doc.Revision,
		ChunkCount:    doc.ChunkCount,
		Embedding:     doc.Embedding,
		IndexStatus:   doc.IndexStatus,
		FailedBatches: doc.FailedBatches,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
		Metadata:      metadata,
	}, nil
}

// Delete removes a document with its chunks, source and vectors.
// Documents mid-run cannot be deleted. A non-terminal document with no
// run in progress was interrupted and is deleted like any other.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if s.docStore == nil {
		return domain.ErrNotImplemented
	}

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if s.runs != nil && s.runs.Running(documentID) {
		return fmt.Errorf("delete %s: %w", documentID, domain.ErrProcessing)
	}

	if s.writer != nil && !doc.Embedding.IsZero() {
		s.writer.DeleteDocument(ctx, domain.CollectionName(s.collection, doc.Embedding.Dimensions), doc.ID)
	}

	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	logger.Info("Deleted %s (%d chunks)", doc.Filename, doc.ChunkCount)
	return nil
}
