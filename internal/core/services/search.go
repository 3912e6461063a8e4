package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// scoredChunk holds intermediate search results before hydration.
type scoredChunk struct {
	chunkID    string
	documentID string
	position   int
	score      float64
}

// corpusGroup is the set of searchable documents sharing one embedding identity.
type corpusGroup struct {
	identity domain.EmbeddingIdentity
	docs     map[string]*domain.Document
}

// SearchService ranks a scope's chunks against a query by cosine similarity.
type SearchService struct {
	docStore driven.DocumentStore
	vectors  driven.VectorStore
	embedder *EmbeddingAdapter
	settings domain.AppSettings
}

// NewSearchService creates a new search service.
func NewSearchService(
	docStore driven.DocumentStore,
	vectors driven.VectorStore,
	embedder *EmbeddingAdapter,
	settings domain.AppSettings,
) *SearchService {
	return &SearchService{
		docStore: docStore,
		vectors:  vectors,
		embedder: embedder,
		settings: settings,
	}
}

// Search embeds the query once per embedding identity present in the scope
// and ranks the matching chunks. An unavailable vector store, an unknown
// identity or a dimension mismatch yields fewer results, never an error.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.RankedChunk, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q, scope: %q", query, opts.Scope)

	results := []domain.RankedChunk{}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return results, nil
	}

	cfg := s.settings.ForScope(opts.Scope)
	limit := opts.Limit
	if limit <= 0 {
		limit = cfg.Retrieval.DefaultLimit
	}
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	floor := opts.MinScore
	if floor <= 0 {
		floor = cfg.Retrieval.MinSimilarity
	}
	logger.Debug("Limit: %d, floor: %.2f", limit, floor)

	groups, err := s.corpus(ctx, opts.Scope)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(groups) == 0 {
		logger.Debug("No indexed documents in scope")
		return results, nil
	}

	if s.vectors == nil {
		logger.Warn("No vector store configured, returning no results")
		return results, nil
	}
	if err := s.vectors.Ping(ctx); err != nil {
		logger.Warn("Vector store unavailable, returning no results: %v", err)
		return results, nil
	}

	var candidates []scoredChunk
	for _, g := range groups {
		candidates = append(candidates, s.searchGroup(ctx, query, g, opts.Scope, limit)...)
	}
	logger.Debug("Raw results: %d chunks", len(candidates))

	candidates = aboveFloor(candidates, floor)
	rankChunks(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	docs := make(map[string]*domain.Document)
	for _, g := range groups {
		for id, doc := range g.docs {
			docs[id] = doc
		}
	}
	results, err = s.hydrateResults(ctx, candidates, docs)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	logger.Info("Final results: %d", len(results))
	return results, nil
}

// corpus groups the scope's searchable documents by embedding identity.
// Documents without written vectors are not searchable.
func (s *SearchService) corpus(ctx context.Context, scope string) ([]corpusGroup, error) {
	docs, err := s.docStore.ListDocuments(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	byIdentity := make(map[domain.EmbeddingIdentity]*corpusGroup)
	var order []domain.EmbeddingIdentity
	for i := range docs {
		doc := &docs[i]
		if doc.State != domain.StateCompleted || doc.ChunkCount == 0 || doc.Embedding.IsZero() {
			continue
		}
		if doc.IndexStatus == domain.IndexStatusDegraded || doc.IndexStatus == domain.IndexStatusNone {
			continue
		}
		g, ok := byIdentity[doc.Embedding]
		if !ok {
			g = &corpusGroup{identity: doc.Embedding, docs: make(map[string]*domain.Document)}
			byIdentity[doc.Embedding] = g
			order = append(order, doc.Embedding)
		}
		g.docs[doc.ID] = doc
	}

	groups := make([]corpusGroup, 0, len(order))
	for _, id := range order {
		groups = append(groups, *byIdentity[id])
	}
	return groups, nil
}

// searchGroup embeds the query for one identity and searches its collection.
func (s *SearchService) searchGroup(
	ctx context.Context, query string, g corpusGroup, scope string, limit int,
) []scoredChunk {
	vec, err := s.embedder.EmbedQuery(ctx, query, g.identity)
	if err != nil {
		logger.Warn("Excluding %d documents embedded with %s: %v", len(g.docs), g.identity, err)
		return nil
	}
	if len(vec) != g.identity.Dimensions {
		logger.Warn("Excluding %d documents embedded with %s: query has %d dimensions",
			len(g.docs), g.identity, len(vec))
		return nil
	}

	ids := make([]string, 0, len(g.docs))
	for id := range g.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	collection := domain.CollectionName(s.settings.Storage.Collection, len(vec))
	hits, err := s.vectors.Search(ctx, collection, vec, domain.VectorFilter{Scope: scope, DocumentIDs: ids}, limit)
	if err != nil {
		logger.Warn("Vector search in %s failed: %v", collection, err)
		return nil
	}

	chunks := make([]scoredChunk, 0, len(hits))
	for _, h := range hits {
		if h.Dimensions != 0 && h.Dimensions != len(vec) {
			logger.Debug("Excluding chunk %s: %d dimensions, query has %d", h.ChunkID, h.Dimensions, len(vec))
			continue
		}
		chunks = append(chunks, scoredChunk{
			chunkID:    h.ChunkID,
			documentID: h.DocumentID,
			position:   h.Position,
			score:      h.Similarity,
		})
	}
	return chunks
}

// hydrateResults loads chunks for the ranked hits. Chunks deleted since the
// vectors were written are skipped.
func (s *SearchService) hydrateResults(
	ctx context.Context, chunks []scoredChunk, docs map[string]*domain.Document,
) ([]domain.RankedChunk, error) {
	results := make([]domain.RankedChunk, 0, len(chunks))

	for _, sc := range chunks {
		doc, ok := docs[sc.documentID]
		if !ok {
			continue
		}
		chunk, err := s.docStore.GetChunk(ctx, sc.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Chunk was replaced or deleted, skip it
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", sc.chunkID, err)
		}
		if chunk.DocumentID != doc.ID {
			continue
		}

		results = append(results, domain.RankedChunk{
			Document: doc,
			Chunk:    chunk,
			Score:    sc.score,
		})
	}

	return results, nil
}

// aboveFloor drops candidates scoring below the relevance floor.
func aboveFloor(chunks []scoredChunk, floor float64) []scoredChunk {
	kept := chunks[:0]
	for _, c := range chunks {
		if c.score >= floor {
			kept = append(kept, c)
		}
	}
	return kept
}

// rankChunks sorts by descending score, then position, then chunk ID.
func rankChunks(chunks []scoredChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].score != chunks[j].score {
			return chunks[i].score > chunks[j].score
		}
		if chunks[i].position != chunks[j].position {
			return chunks[i].position < chunks[j].position
		}
		return chunks[i].chunkID < chunks[j].chunkID
	})
}
