// Package qdrant provides a vector store backed by the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
)

// Payload keys stored with every point.
const (
	payloadChunkID    = "chunk_id"
	payloadDocumentID = "document_id"
	payloadScope      = "scope"
	payloadPosition   = "position"
)

// errCollectionMissing marks a 404 from the collection endpoint.
var errCollectionMissing = errors.New("qdrant: collection does not exist")

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the Qdrant HTTP endpoint (default: http://localhost:6333).
	URL string

	// APIKey is sent in the api-key header when set.
	APIKey string

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration
}

// Store is a minimal REST client to Qdrant using cosine distance.
// Chunk IDs are UUIDs and double as point IDs.
type Store struct {
	url    string
	apiKey string
	client *http.Client

	mu   sync.RWMutex
	dims map[string]int
}

// NewStore creates a Qdrant store.
func NewStore(cfg Config) *Store {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: cfg.Timeout},
		dims:   make(map[string]int),
	}
}

// Ping checks that Qdrant answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, http.MethodGet, "/collections", nil, nil); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// EnsureCollection creates the collection if it is missing.
// An existing collection with a different size is an error.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("collection %s: dimensions must be positive: %w", name, domain.ErrInvalidInput)
	}

	existing, err := s.collectionSize(ctx, name)
	switch {
	case err == nil:
		if existing != dimensions {
			return fmt.Errorf("collection %s holds %d dims, not %d: %w",
				name, existing, dimensions, domain.ErrDimensionMismatch)
		}
		return nil
	case !errors.Is(err, errCollectionMissing):
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(name), body, nil); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	s.remember(name, dimensions)
	return nil
}

// Upsert writes points and waits for them to be applied.
func (s *Store) Upsert(ctx context.Context, name string, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if dims, ok := s.known(name); ok {
		for _, r := range records {
			if r.Dimensions() != dims {
				return fmt.Errorf("chunk %s has %d dims, collection %s holds %d: %w",
					r.ChunkID, r.Dimensions(), name, dims, domain.ErrDimensionMismatch)
			}
		}
	}

	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":     r.ChunkID,
			"vector": r.Embedding,
			"payload": map[string]any{
				payloadChunkID:    r.ChunkID,
				payloadDocumentID: r.DocumentID,
				payloadScope:      r.Scope,
				payloadPosition:   r.Position,
			},
		}
	}
	path := "/collections/" + url.PathEscape(name) + "/points?wait=true"
	return s.do(ctx, http.MethodPut, path, map[string]any{"points": points}, nil)
}

type searchResponse struct {
	Result []struct {
		Score   float64 `json:"score"`
		Payload struct {
			ChunkID    string `json:"chunk_id"`
			DocumentID string `json:"document_id"`
			Position   int    `json:"position"`
		} `json:"payload"`
	} `json:"result"`
}

// Search ranks the collection against the query. A query whose length
// differs from the collection size returns no hits.
func (s *Store) Search(
	ctx context.Context,
	name string,
	query []float32,
	filter domain.VectorFilter,
	limit int,
) ([]driven.VectorHit, error) {
	dims, err := s.collectionSize(ctx, name)
	if errors.Is(err, errCollectionMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if dims != len(query) {
		logger.Debug("qdrant: query has %d dims, collection %s holds %d; excluded", len(query), name, dims)
		return nil, nil
	}

	req := map[string]any{
		"vector":       query,
		"with_payload": true,
	}
	if limit > 0 {
		req["limit"] = limit
	}
	if f := buildFilter(filter); f != nil {
		req["filter"] = f
	}

	var resp searchResponse
	if err := s.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(name)+"/points/search", req, &resp); err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, driven.VectorHit{
			ChunkID:    r.Payload.ChunkID,
			DocumentID: r.Payload.DocumentID,
			Position:   r.Payload.Position,
			Dimensions: dims,
			Similarity: r.Score,
		})
	}
	vector.SortHits(hits)
	return vector.Limit(hits, limit), nil
}

// Delete removes points by chunk ID.
func (s *Store) Delete(ctx context.Context, name string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	return s.deletePoints(ctx, name, map[string]any{"points": chunkIDs})
}

// DeleteByDocument removes every point of a document.
func (s *Store) DeleteByDocument(ctx context.Context, name, documentID string) error {
	return s.deletePoints(ctx, name, map[string]any{
		"filter": map[string]any{
			"must": []any{matchValue(payloadDocumentID, documentID)},
		},
	})
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Store) deletePoints(ctx context.Context, name string, body map[string]any) error {
	err := s.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(name)+"/points/delete?wait=true", body, nil)
	if errors.Is(err, errCollectionMissing) {
		return nil
	}
	return err
}

type collectionResponse struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// collectionSize returns the vector size of a collection, asking Qdrant
// the first time.
func (s *Store) collectionSize(ctx context.Context, name string) (int, error) {
	if dims, ok := s.known(name); ok {
		return dims, nil
	}
	var resp collectionResponse
	if err := s.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(name), nil, &resp); err != nil {
		return 0, err
	}
	dims := resp.Result.Config.Params.Vectors.Size
	s.remember(name, dims)
	return dims, nil
}

func (s *Store) known(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dims, ok := s.dims[name]
	return dims, ok
}

func (s *Store) remember(name string, dims int) {
	s.mu.Lock()
	s.dims[name] = dims
	s.mu.Unlock()
}

func buildFilter(f domain.VectorFilter) map[string]any {
	var must []any
	if f.Scope != "" {
		must = append(must, matchValue(payloadScope, f.Scope))
	}
	if len(f.DocumentIDs) > 0 {
		must = append(must, map[string]any{
			"key":   payloadDocumentID,
			"match": map[string]any{"any": f.DocumentIDs},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func matchValue(key, value string) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

// do sends a JSON request and decodes the response into out when non-nil.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errCollectionMissing
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
