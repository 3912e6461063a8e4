// Package redis provides a document registry backed by Redis.
//
// Documents are JSON values keyed by ID. A set per scope indexes the
// documents uploaded into it, and each document's chunk list is one value
// so a reprocess swaps it in a single MULTI/EXEC.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultAddr   = "localhost:6379"
	DefaultPrefix = "sercha-rag"
)

// Config holds configuration for the Redis registry.
type Config struct {
	// URL is either redis://... / rediss://... or host:port.
	URL string

	// Password is used with host:port addresses.
	Password string

	// DB selects the database for host:port addresses.
	DB int

	// Prefix namespaces every key (default: sercha-rag).
	Prefix string
}

// Store implements driven.DocumentStore on Redis.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultAddr
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}

	var rdb *redis.Client
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %w", err)
		}
		rdb = redis.NewClient(opt)
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.URL,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Store{rdb: rdb, prefix: cfg.Prefix}, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) docKey(id string) string { return s.prefix + ":doc:" + id }
func (s *Store) chunksKey(id string) string { return s.prefix + ":chunks:" + id }
func (s *Store) chunkKey(id string) string { return s.prefix + ":chunk:" + id }
func (s *Store) sourceKey(id string) string { return s.prefix + ":source:" + id }
func (s *Store) scopeKey(scope string) string { return s.prefix + ":scope:" + scope }
func (s *Store) allKey() string { return s.prefix + ":docs" }

// SaveDocument stores or updates a document and its scope index entry.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	prev, err := s.GetDocument(ctx, doc.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	data, err := json.Marshal(toRecord(doc))
	if err != nil {
		return fmt.Errorf("marshalling document: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if prev != nil && prev.Scope != doc.Scope {
			p.SRem(ctx, s.scopeKey(prev.Scope), doc.ID)
		}
		p.Set(ctx, s.docKey(doc.ID), data, 0)
		p.SAdd(ctx, s.scopeKey(doc.Scope), doc.ID)
		p.SAdd(ctx, s.allKey(), doc.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	data, err := s.rdb.Get(ctx, s.docKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	var rec documentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling document: %w", err)
	}
	return rec.toDomain(), nil
}

// ListDocuments returns the documents in a scope, oldest first.
func (s *Store) ListDocuments(ctx context.Context, scope string) ([]domain.Document, error) {
	key := s.allKey()
	if scope != "" {
		key = s.scopeKey(scope)
	}
	ids, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("listing scope: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("getting documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue // index entry without a document
		}
		var rec documentRecord
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, fmt.Errorf("unmarshaling document: %w", err)
		}
		docs = append(docs, *rec.toDomain())
	}
	sortDocuments(docs)
	return docs, nil
}

// DeleteDocument removes a document with its chunks and source.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.GetDocument(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	old, err := s.GetChunks(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, c := range old {
			p.Del(ctx, s.chunkKey(c.ID))
		}
		p.Del(ctx, s.docKey(id), s.chunksKey(id), s.sourceKey(id))
		p.SRem(ctx, s.scopeKey(doc.Scope), id)
		p.SRem(ctx, s.allKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ReplaceChunks swaps the chunk list and saves the document in one transaction.
func (s *Store) ReplaceChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if c.DocumentID != doc.ID {
			return fmt.Errorf("chunk %s belongs to %s, not %s: %w",
				c.ID, c.DocumentID, doc.ID, domain.ErrInvalidInput)
		}
	}
	old, err := s.GetChunks(ctx, doc.ID)
	if err != nil {
		return err
	}
	prev, err := s.GetDocument(ctx, doc.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	doc.ChunkCount = len(chunks)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	docData, err := json.Marshal(toRecord(doc))
	if err != nil {
		return fmt.Errorf("marshalling document: %w", err)
	}
	records := make([]chunkRecord, len(chunks))
	for i := range chunks {
		records[i] = toChunkRecord(chunks[i])
	}
	chunkData, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshalling chunks: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, c := range old {
			p.Del(ctx, s.chunkKey(c.ID))
		}
		if prev != nil && prev.Scope != doc.Scope {
			p.SRem(ctx, s.scopeKey(prev.Scope), doc.ID)
		}
		p.Set(ctx, s.docKey(doc.ID), docData, 0)
		p.Set(ctx, s.chunksKey(doc.ID), chunkData, 0)
		for _, c := range chunks {
			p.Set(ctx, s.chunkKey(c.ID), doc.ID, 0)
		}
		p.SAdd(ctx, s.scopeKey(doc.Scope), doc.ID)
		p.SAdd(ctx, s.allKey(), doc.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("replacing chunks: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document ordered by position.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	data, err := s.rdb.Get(ctx, s.chunksKey(documentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting chunks: %w", err)
	}
	var records []chunkRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshaling chunks: %w", err)
	}
	chunks := make([]domain.Chunk, len(records))
	for i, r := range records {
		chunks[i] = r.toDomain()
	}
	sortChunks(chunks)
	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	docID, err := s.rdb.Get(ctx, s.chunkKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting chunk index: %w", err)
	}
	chunks, err := s.GetChunks(ctx, docID)
	if err != nil {
		return nil, err
	}
	for i := range chunks {
		if chunks[i].ID == id {
			return &chunks[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// SaveSource stores the uploaded bytes for reprocessing.
func (s *Store) SaveSource(ctx context.Context, documentID string, file *domain.RawFile) error {
	err := s.rdb.HSet(ctx, s.sourceKey(documentID),
		"filename", file.Filename,
		"mime_type", file.MIMEType,
		"content", file.Content,
	).Err()
	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// GetSource retrieves the uploaded bytes.
func (s *Store) GetSource(ctx context.Context, documentID string) (*domain.RawFile, error) {
	fields, err := s.rdb.HGetAll(ctx, s.sourceKey(documentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting source: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return &domain.RawFile{
		Filename: fields["filename"],
		MIMEType: fields["mime_type"],
		Content:  []byte(fields["content"]),
	}, nil
}
