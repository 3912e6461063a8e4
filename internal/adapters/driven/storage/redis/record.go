package redis

import (
	"sort"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// documentRecord is the JSON form of a document.
type documentRecord struct {
	ID            string         `json:"id"`
	Filename      string         `json:"filename"`
	Size          int64          `json:"size"`
	MIMEType      string         `json:"mime_type"`
	ContentType   string         `json:"content_type"`
	Scope         string         `json:"scope"`
	ChunkCount    int            `json:"chunk_count"`
	State         string         `json:"state"`
	LastError     string         `json:"last_error,omitempty"`
	Revision      int            `json:"revision"`
	Provider      string         `json:"embedding_provider,omitempty"`
	Model         string         `json:"embedding_model,omitempty"`
	Dimensions    int            `json:"embedding_dims,omitempty"`
	IndexStatus   string         `json:"index_status,omitempty"`
	FailedBatches int            `json:"failed_batches,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func toRecord(d *domain.Document) documentRecord {
	return documentRecord{
		ID:            d.ID,
		Filename:      d.Filename,
		Size:          d.Size,
		MIMEType:      d.MIMEType,
		ContentType:   string(d.ContentType),
		Scope:         d.Scope,
		ChunkCount:    d.ChunkCount,
		State:         string(d.State),
		LastError:     d.LastError,
		Revision:      d.Revision,
		Provider:      string(d.Embedding.Provider),
		Model:         d.Embedding.Model,
		Dimensions:    d.Embedding.Dimensions,
		IndexStatus:   string(d.IndexStatus),
		FailedBatches: d.FailedBatches,
		Metadata:      d.Metadata,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (r documentRecord) toDomain() *domain.Document {
	return &domain.Document{
		ID:          r.ID,
		Filename:    r.Filename,
		Size:        r.Size,
		MIMEType:    r.MIMEType,
		ContentType: domain.ContentType(r.ContentType),
		Scope:       r.Scope,
		ChunkCount:  r.ChunkCount,
		State:       domain.ProcessingState(r.State),
		LastError:   r.LastError,
		Revision:    r.Revision,
		Embedding: domain.EmbeddingIdentity{
			Provider:   domain.AIProvider(r.Provider),
			Model:      r.Model,
			Dimensions: r.Dimensions,
		},
		IndexStatus:   domain.IndexStatus(r.IndexStatus),
		FailedBatches: r.FailedBatches,
		Metadata:      r.Metadata,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// chunkRecord is the JSON form of a chunk.
type chunkRecord struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Content    string         `json:"content"`
	Position   int            `json:"position"`
	Embedding  []float32      `json:"embedding,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func toChunkRecord(c domain.Chunk) chunkRecord {
	return chunkRecord{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		Content:    c.Content,
		Position:   c.Position,
		Embedding:  c.Embedding,
		Metadata:   c.Metadata,
	}
}

func (r chunkRecord) toDomain() domain.Chunk {
	return domain.Chunk{
		ID:         r.ID,
		DocumentID: r.DocumentID,
		Content:    r.Content,
		Position:   r.Position,
		Embedding:  r.Embedding,
		Metadata:   r.Metadata,
	}
}

func sortDocuments(docs []domain.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}

func sortChunks(chunks []domain.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Position < chunks[j].Position })
}
