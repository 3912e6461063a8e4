package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Records are copied in and out so callers never share state with the store.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
	sources   map[string]domain.RawFile
	scopes    map[string]map[string]struct{}
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
		sources:   make(map[string]domain.RawFile),
		scopes:    make(map[string]map[string]struct{}),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(doc)
	return nil
}

func (s *DocumentStore) putLocked(doc *domain.Document) {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	if prev, ok := s.documents[doc.ID]; ok && prev.Scope != doc.Scope {
		delete(s.scopes[prev.Scope], doc.ID)
	}
	s.documents[doc.ID] = copyDocument(*doc)
	if s.scopes[doc.Scope] == nil {
		s.scopes[doc.Scope] = make(map[string]struct{})
	}
	s.scopes[doc.Scope][doc.ID] = struct{}{}
}

// ReplaceChunks swaps the document's chunk set and saves the document.
func (s *DocumentStore) ReplaceChunks(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if c.DocumentID != doc.ID {
			return fmt.Errorf("chunk %s belongs to %s, not %s: %w",
				c.ID, c.DocumentID, doc.ID, domain.ErrInvalidInput)
		}
	}

	stored := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		stored[i] = copyChunk(c)
	}
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].Position < stored[j].Position })

	s.mu.Lock()
	defer s.mu.Unlock()
	doc.ChunkCount = len(chunks)
	s.putLocked(doc)
	s.chunks[doc.ID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc = copyDocument(doc)
	return &doc, nil
}

// GetChunks retrieves all chunks for a document.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = copyChunk(c)
	}
	return out, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				c := copyChunk(chunk)
				return &c, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteDocument removes a document with its chunks and source.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.documents[id]; ok {
		delete(s.scopes[doc.Scope], id)
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	delete(s.sources, id)
	return nil
}

// ListDocuments returns the documents in a scope, oldest first.
// An empty scope lists every document.
func (s *DocumentStore) ListDocuments(_ context.Context, scope string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	if scope == "" {
		for _, doc := range s.documents {
			result = append(result, copyDocument(doc))
		}
	} else {
		for id := range s.scopes[scope] {
			result = append(result, copyDocument(s.documents[id]))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// SaveSource stores the uploaded bytes for reprocessing.
func (s *DocumentStore) SaveSource(_ context.Context, documentID string, file *domain.RawFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := *file
	f.Content = append([]byte(nil), file.Content...)
	s.sources[documentID] = f
	return nil
}

// GetSource retrieves the uploaded bytes.
func (s *DocumentStore) GetSource(_ context.Context, documentID string) (*domain.RawFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.sources[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

func copyDocument(d domain.Document) domain.Document {
	return *d.Clone()
}

func copyChunk(c domain.Chunk) domain.Chunk {
	if c.Embedding != nil {
		c.Embedding = append([]float32(nil), c.Embedding...)
	}
	if c.Metadata != nil {
		m := make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			m[k] = v
		}
		c.Metadata = m
	}
	return c
}
