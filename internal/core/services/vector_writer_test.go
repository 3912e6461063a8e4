package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vectormem "github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func records(n, dims int) []domain.VectorRecord {
	out := make([]domain.VectorRecord, n)
	for i := range out {
		v := make([]float32, dims)
		v[i%dims] = 1
		out[i] = domain.VectorRecord{ChunkID: fmt.Sprintf("c%d", i), DocumentID: "d", Scope: "s", Position: i, Embedding: v}
	}
	return out
}

func TestVectorWriter_Write_Batches(t *testing.T) {
	store := vectormem.NewStore()
	w := NewVectorWriter(store, 2)

	results := w.Write(context.Background(), "chunks_3", 3, records(5, 3))

	require.Len(t, results, 3)
	assert.Equal(t, []int{2, 2, 1}, []int{results[0].Size, results[1].Size, results[2].Size})
	status, failed := domain.SummariseBatches(results)
	assert.Equal(t, domain.IndexStatusIndexed, status)
	assert.Zero(t, failed)
	assert.Equal(t, 5, store.Count("chunks_3"))
}

func TestVectorWriter_Write_IsolatesFailedBatch(t *testing.T) {
	store := &flakyVectorStore{Store: vectormem.NewStore(), failOn: map[int]bool{2: true}}
	w := NewVectorWriter(store, 2)

	results := w.Write(context.Background(), "chunks_3", 3, records(6, 3))

	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.True(t, results[2].OK())
	status, failed := domain.SummariseBatches(results)
	assert.Equal(t, domain.IndexStatusPartial, status)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 4, store.Count("chunks_3"))
}

func TestVectorWriter_Write_CollectionConflictFailsEveryBatch(t *testing.T) {
	store := vectormem.NewStore()
	require.NoError(t, store.EnsureCollection(context.Background(), "chunks", 4))
	w := NewVectorWriter(store, 2)

	results := w.Write(context.Background(), "chunks", 3, records(3, 3))

	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, domain.ErrDimensionMismatch)
	}
}

func TestVectorWriter_Available(t *testing.T) {
	store := vectormem.NewStore()
	w := NewVectorWriter(store, 0)

	assert.True(t, w.Available(context.Background()))
	store.SetAvailable(false)
	assert.False(t, w.Available(context.Background()))
	assert.False(t, NewVectorWriter(nil, 0).Available(context.Background()))
}

func TestVectorWriter_Delete(t *testing.T) {
	store := vectormem.NewStore()
	w := NewVectorWriter(store, 10)
	w.Write(context.Background(), "chunks_3", 3, records(3, 3))

	w.Delete(context.Background(), "chunks_3", []string{"c0"})
	assert.Equal(t, 2, store.Count("chunks_3"))

	w.DeleteDocument(context.Background(), "chunks_3", "d")
	assert.Equal(t, 0, store.Count("chunks_3"))
}
