package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// VectorWriter guards vector store access. It probes availability before
// use and writes records in batches, isolating batch failures.
type VectorWriter struct {
	store     driven.VectorStore
	batchSize int
}

// NewVectorWriter creates a writer. A non-positive batchSize uses the default.
func NewVectorWriter(store driven.VectorStore, batchSize int) *VectorWriter {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}
	return &VectorWriter{store: store, batchSize: batchSize}
}

// Available probes the store. A nil store is never available.
func (w *VectorWriter) Available(ctx context.Context) bool {
	if w.store == nil {
		return false
	}
	if err := w.store.Ping(ctx); err != nil {
		logger.Warn("Vector store unavailable: %v", err)
		return false
	}
	return true
}

// Write ensures the collection and upserts records in batches.
// Every batch gets a result; a failed batch is logged and skipped.
// When the collection cannot be prepared every batch carries that error.
func (w *VectorWriter) Write(
	ctx context.Context, collection string, dims int, records []domain.VectorRecord,
) []domain.BatchResult {
	batches := w.split(records)
	results := make([]domain.BatchResult, len(batches))

	ensureErr := w.store.EnsureCollection(ctx, collection, dims)
	if ensureErr != nil {
		logger.Warn("Ensure collection %s: %v", collection, ensureErr)
	}

	for i, batch := range batches {
		results[i] = domain.BatchResult{Index: i, Size: len(batch)}
		if ensureErr != nil {
			results[i].Err = fmt.Errorf("ensure collection %s: %w", collection, ensureErr)
			continue
		}
		if err := w.store.Upsert(ctx, collection, batch); err != nil {
			logger.Warn("Vector batch %d/%d (%d records) skipped: %v", i+1, len(batches), len(batch), err)
			results[i].Err = err
			continue
		}
		logger.Debug("Vector batch %d/%d written (%d records)", i+1, len(batches), len(batch))
	}
	return results
}

// Delete removes vectors by chunk ID. Failures are logged only; a stale
// vector whose chunk is gone never survives hydration.
func (w *VectorWriter) Delete(ctx context.Context, collection string, chunkIDs []string) {
	if w.store == nil || len(chunkIDs) == 0 {
		return
	}
	if err := w.store.Delete(ctx, collection, chunkIDs); err != nil {
		logger.Warn("Delete %d vectors from %s: %v", len(chunkIDs), collection, err)
	}
}

// DeleteDocument removes every vector of a document. Failures are logged only.
func (w *VectorWriter) DeleteDocument(ctx context.Context, collection, documentID string) {
	if w.store == nil {
		return
	}
	if err := w.store.DeleteByDocument(ctx, collection, documentID); err != nil {
		logger.Warn("Delete vectors of %s from %s: %v", documentID, collection, err)
	}
}

func (w *VectorWriter) split(records []domain.VectorRecord) [][]domain.VectorRecord {
	var batches [][]domain.VectorRecord
	for start := 0; start < len(records); start += w.batchSize {
		end := min(start+w.batchSize, len(records))
		batches = append(batches, records[start:end])
	}
	return batches
}
