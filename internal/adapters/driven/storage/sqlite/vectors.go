package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// vectorStore implements driven.VectorStore over the vectors table.
// Search is a full scan of the scope's rows.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Ping checks the database answers.
func (s *vectorStore) Ping(ctx context.Context) error {
	if err := s.store.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// EnsureCollection registers the collection with its vector size.
func (s *vectorStore) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("collection %s: dimensions must be positive: %w", name, domain.ErrInvalidInput)
	}
	existing, err := s.dimensions(ctx, name)
	switch {
	case err == nil:
		if existing != dimensions {
			return fmt.Errorf("collection %s holds %d dims, not %d: %w",
				name, existing, dimensions, domain.ErrDimensionMismatch)
		}
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	_, err = s.store.db.ExecContext(ctx,
		"INSERT INTO vector_collections (name, dimensions) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		name, dimensions)
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

// Upsert inserts or replaces records in one transaction.
func (s *vectorStore) Upsert(ctx context.Context, name string, records []domain.VectorRecord) error {
	dims, err := s.dimensions(ctx, name)
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.Dimensions() != dims {
			return fmt.Errorf("chunk %s has %d dims, collection %s holds %d: %w",
				r.ChunkID, r.Dimensions(), name, dims, domain.ErrDimensionMismatch)
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (collection, chunk_id, document_id, scope, position, dimensions, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			scope = excluded.scope,
			position = excluded.position,
			dimensions = excluded.dimensions,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, name, r.ChunkID, r.DocumentID, r.Scope,
			r.Position, r.Dimensions(), float32SliceToBytes(r.Embedding)); err != nil {
			return fmt.Errorf("saving vector: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search scores every row in the scope against the query.
// Rows whose dimensions differ from the query are excluded.
func (s *vectorStore) Search(
	ctx context.Context,
	name string,
	query []float32,
	filter domain.VectorFilter,
	limit int,
) ([]driven.VectorHit, error) {
	q := "SELECT chunk_id, document_id, position, dimensions, embedding FROM vectors WHERE collection = ?"
	args := []any{name}
	if filter.Scope != "" {
		q += " AND scope = ?"
		args = append(args, filter.Scope)
	}
	if len(filter.DocumentIDs) > 0 {
		q += " AND document_id IN (?" + strings.Repeat(", ?", len(filter.DocumentIDs)-1) + ")"
		for _, id := range filter.DocumentIDs {
			args = append(args, id)
		}
	}

	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	excluded := 0
	for rows.Next() {
		var (
			hit  driven.VectorHit
			blob []byte
		)
		if err := rows.Scan(&hit.ChunkID, &hit.DocumentID, &hit.Position, &hit.Dimensions, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		score, err := domain.CosineSimilarity(query, bytesToFloat32Slice(blob))
		if err != nil {
			excluded++
			continue
		}
		hit.Similarity = score
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}
	if excluded > 0 {
		logger.Debug("vector sqlite: excluded %d rows with mismatched dimensions from %s", excluded, name)
	}

	vector.SortHits(hits)
	return vector.Limit(hits, limit), nil
}

// Delete removes records by chunk ID.
func (s *vectorStore) Delete(ctx context.Context, name string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	args := []any{name}
	for _, id := range chunkIDs {
		args = append(args, id)
	}
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE collection = ? AND chunk_id IN (?"+strings.Repeat(", ?", len(chunkIDs)-1)+")",
		args...)
	if err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// DeleteByDocument removes every record of a document.
func (s *vectorStore) DeleteByDocument(ctx context.Context, name, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE collection = ? AND document_id = ?", name, documentID)
	if err != nil {
		return fmt.Errorf("deleting document vectors: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the database.
func (s *vectorStore) Close() error {
	return nil
}

func (s *vectorStore) dimensions(ctx context.Context, name string) (int, error) {
	var dims int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT dimensions FROM vector_collections WHERE name = ?", name).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("reading collection: %w", err)
	}
	return dims, nil
}
