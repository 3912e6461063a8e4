package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs uploads through extraction, chunking, embedding and
// vector storage. Each run is sequential; independent runs may overlap.
type IngestService struct {
	docStore driven.DocumentStore
	chain    driven.ExtractionChain
	pipeline driven.ChunkingPipeline
	embedder *EmbeddingAdapter
	writer   *VectorWriter
	settings domain.AppSettings
	now      func() time.Time

	wg      sync.WaitGroup
	mu      sync.Mutex
	running map[string]struct{}
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	docStore driven.DocumentStore,
	chain driven.ExtractionChain,
	pipeline driven.ChunkingPipeline,
	embedder *EmbeddingAdapter,
	writer *VectorWriter,
	settings domain.AppSettings,
) *IngestService {
	return &IngestService{
		docStore: docStore,
		chain:    chain,
		pipeline: pipeline,
		embedder: embedder,
		writer:   writer,
		settings: settings,
		now:      time.Now,
		running:  make(map[string]struct{}),
	}
}

// Upload registers the file and runs the pipeline to completion.
// The run is not cancelled when ctx is; the document state is the signal.
func (s *IngestService) Upload(ctx context.Context, req driving.UploadRequest) (*driving.IngestResult, error) {
	doc, err := s.register(ctx, req)
	if err != nil {
		return nil, err
	}
	defer s.release(doc.ID)
	return s.run(context.WithoutCancel(ctx), doc, &req.File)
}

// Submit registers the file and runs the pipeline in the background.
func (s *IngestService) Submit(ctx context.Context, req driving.UploadRequest) (*domain.Document, error) {
	doc, err := s.register(ctx, req)
	if err != nil {
		return nil, err
	}
	pending := doc.Clone()

	runCtx := context.WithoutCancel(ctx)
	file := req.File
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(doc.ID)
		if _, err := s.run(runCtx, doc, &file); err != nil {
			logger.Error("Background ingest of %s failed: %v", doc.Filename, err)
		}
	}()
	return pending, nil
}

// Reprocess re-runs the pipeline on the stored source. The previous chunks
// stay searchable until the new set is swapped in. A document left
// non-terminal by an interrupted process is restarted.
func (s *IngestService) Reprocess(ctx context.Context, documentID string) (*driving.IngestResult, error) {
	if !s.acquire(documentID) {
		return nil, fmt.Errorf("reprocess %s: %w", documentID, domain.ErrProcessing)
	}
	defer s.release(documentID)

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.State.IsTerminal() {
		logger.Warn("Recovering interrupted run of %s (revision %d, %s)", doc.Filename, doc.Revision, doc.State)
	}
	file, err := s.docStore.GetSource(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}

	doc.BeginRun()
	doc.UpdatedAt = s.now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	logger.Info("Reprocessing %s (revision %d)", doc.Filename, doc.Revision)
	return s.run(context.WithoutCancel(ctx), doc, file)
}

// Running reports whether a run for the document is in progress in this process.
func (s *IngestService) Running(documentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[documentID]
	return ok
}

// Wait blocks until every background run has finished.
func (s *IngestService) Wait() {
	s.wg.Wait()
}

// register validates the request and stores the pending document with its source.
func (s *IngestService) register(ctx context.Context, req driving.UploadRequest) (*domain.Document, error) {
	if req.File.Filename == "" {
		return nil, fmt.Errorf("filename is required: %w", domain.ErrInvalidInput)
	}
	if req.Strategy != "" && !req.Strategy.IsValid() {
		return nil, fmt.Errorf("unknown chunk strategy %q: %w", req.Strategy, domain.ErrInvalidInput)
	}

	now := s.now()
	doc := &domain.Document{
		ID:          uuid.New().String(),
		Filename:    req.File.Filename,
		Size:        req.File.Size(),
		MIMEType:    req.File.MIMEType,
		ContentType: domain.ResolveContentType(req.File.MIMEType, req.File.Filename),
		Scope:       req.Scope,
		Metadata:    map[string]any{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Strategy != "" {
		doc.Metadata[domain.MetaRequestedStrategy] = string(req.Strategy)
	}
	doc.BeginRun()

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.docStore.SaveSource(ctx, doc.ID, &req.File); err != nil {
		return nil, fmt.Errorf("save source: %w", err)
	}
	s.acquire(doc.ID)
	logger.Debug("Registered %s as %s (%s)", doc.Filename, doc.ID, doc.ContentType)
	return doc, nil
}

// run executes one pipeline revision. Stage failures end in a failed
// document, not an error; errors are reserved for the registry itself.
func (s *IngestService) run(ctx context.Context, doc *domain.Document, file *domain.RawFile) (*driving.IngestResult, error) {
	logger.Section("Ingest " + doc.Filename)
	result := &driving.IngestResult{Document: doc}
	cfg := s.settings.ForScope(doc.Scope)
	previous := *doc
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}

	if err := s.advance(ctx, doc, domain.StateProcessing); err != nil {
		return nil, err
	}

	// 1. EXTRACT (never fails; may return a diagnostic element)
	extraction := s.chain.Extract(ctx, file, doc.ContentType)
	result.Extraction = extraction.Attempts
	doc.Metadata[domain.MetaExtractionMethod] = extraction.Method
	doc.Metadata[domain.MetaElementCount] = len(extraction.Elements)
	if extraction.Diagnostic() {
		if !cfg.Ingest.IndexDiagnostics {
			return s.fail(ctx, result, fmt.Errorf("%w: %s", domain.ErrExtractionFailed, extraction.Elements[0].Text))
		}
		result.Warnings = append(result.Warnings, "extraction failed; indexing diagnostic text")
	}

	// 2. CHUNK
	opts := cfg.Ingest.ChunkOptions()
	if requested, ok := doc.Metadata[domain.MetaRequestedStrategy].(string); ok && requested != "" {
		opts.Strategy = domain.ChunkStrategy(requested)
	}
	chunked, err := s.pipeline.Process(ctx, doc, extraction.Elements, opts)
	if err != nil {
		return s.fail(ctx, result, fmt.Errorf("chunk: %w", err))
	}
	if len(chunked.Chunks) == 0 {
		return s.fail(ctx, result, fmt.Errorf("chunk: %w", domain.ErrEmptyContent))
	}
	chunks := chunked.Chunks
	doc.Metadata[domain.MetaChunkStrategy] = string(chunked.Strategy)
	logger.Debug("Chunked into %d chunks (%s)", len(chunks), chunked.Strategy)

	// 3. EMBED
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return s.fail(ctx, result, fmt.Errorf("embed: %w", err))
	}
	if embeddings.FellBack {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("embedded with %s after primary failed: %v", embeddings.Identity, embeddings.PrimaryErr))
	}
	doc.Embedding = embeddings.Identity

	// 4. STORE VECTORS (best effort)
	collection := domain.CollectionName(cfg.Storage.Collection, embeddings.Identity.Dimensions)
	if s.writer.Available(ctx) {
		records := make([]domain.VectorRecord, len(chunks))
		for i := range chunks {
			chunks[i].Embedding = embeddings.Vectors[i]
			records[i] = domain.VectorRecord{
				ChunkID:    chunks[i].ID,
				DocumentID: doc.ID,
				Scope:      doc.Scope,
				Position:   chunks[i].Position,
				Embedding:  embeddings.Vectors[i],
			}
		}
		result.Batches = s.writer.Write(ctx, collection, embeddings.Identity.Dimensions, records)
		doc.IndexStatus, doc.FailedBatches = domain.SummariseBatches(result.Batches)
		if len(result.Batches) > 0 && doc.FailedBatches == len(result.Batches) {
			restore(doc, &previous)
			return s.fail(ctx, result, fmt.Errorf("store vectors: all %d batches failed: %w",
				len(result.Batches), result.Batches[0].Err))
		}
		if doc.FailedBatches > 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%d of %d vector batches failed", doc.FailedBatches, len(result.Batches)))
		}
	} else {
		for i := range chunks {
			chunks[i].Embedding = nil
		}
		doc.IndexStatus, doc.FailedBatches = domain.IndexStatusDegraded, 0
		result.Warnings = append(result.Warnings, "vector store unavailable; document is not searchable until reprocessed")
	}

	// 5. SWAP CHUNKS (one registry transaction)
	old, err := s.docStore.GetChunks(ctx, doc.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Load previous chunks of %s: %v", doc.ID, err)
	}
	if err := doc.Transition(domain.StateCompleted, ""); err != nil {
		return nil, fmt.Errorf("complete %s: %w", doc.ID, err)
	}
	doc.UpdatedAt = s.now()
	if err := s.docStore.ReplaceChunks(ctx, doc, chunks); err != nil {
		s.writer.Delete(ctx, collection, chunkIDs(chunks))
		doc.State = domain.StateProcessing
		restore(doc, &previous)
		return s.fail(ctx, result, fmt.Errorf("store chunks: %w", err))
	}

	// 6. DROP PREVIOUS VECTORS
	if len(old) > 0 && !previous.Embedding.IsZero() {
		s.writer.Delete(ctx, domain.CollectionName(cfg.Storage.Collection, previous.Embedding.Dimensions), chunkIDs(old))
	}

	logger.Info("Ingested %s: %d chunks, %s, index %s",
		doc.Filename, doc.ChunkCount, doc.Embedding, doc.IndexStatus)
	return result, nil
}

// restore puts back the fields describing the previous chunk set, which
// stays live when a run fails before the swap.
func restore(doc, previous *domain.Document) {
	doc.ChunkCount = previous.ChunkCount
	doc.Embedding = previous.Embedding
	doc.IndexStatus, doc.FailedBatches = previous.IndexStatus, previous.FailedBatches
}

// advance moves the document forward and persists it.
func (s *IngestService) advance(ctx context.Context, doc *domain.Document, next domain.ProcessingState) error {
	if err := doc.Transition(next, ""); err != nil {
		return fmt.Errorf("%s -> %s: %w", doc.State, next, err)
	}
	doc.UpdatedAt = s.now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// fail marks the run failed with cause and persists it. A failed run is
// reported through the document, so the returned error is nil unless the
// registry write itself fails.
func (s *IngestService) fail(ctx context.Context, result *driving.IngestResult, cause error) (*driving.IngestResult, error) {
	doc := result.Document
	logger.Warn("Ingest of %s failed: %v", doc.Filename, cause)
	if err := doc.Transition(domain.StateFailed, cause.Error()); err != nil {
		return nil, fmt.Errorf("fail %s: %w", doc.ID, err)
	}
	doc.UpdatedAt = s.now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return result, nil
}

// acquire marks a document as running. It reports false if already running.
func (s *IngestService) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[id]; ok {
		return false
	}
	s.running[id] = struct{}{}
	return true
}

func (s *IngestService) release(id string) {
	s.mu.Lock()
	delete(s.running, id)
	s.mu.Unlock()
}

func chunkIDs(chunks []domain.Chunk) []string {
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = chunks[i].ID
	}
	return ids
}
