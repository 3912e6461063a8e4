package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func newDoc(id, scope string) *domain.Document {
	return &domain.Document{
		ID:       id,
		Filename: id + ".txt",
		Scope:    scope,
		State:    domain.StatePending,
		Metadata: map[string]any{"author": "someone"},
	}
}

func TestNewDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.documents)
	assert.NotNil(t, store.chunks)
	assert.NotNil(t, store.sources)
}

func TestDocumentStore_SaveDocument_Success(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	err := store.SaveDocument(ctx, newDoc("doc-1", "conv-1"))
	require.NoError(t, err)

	saved, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1.txt", saved.Filename)
	assert.Equal(t, "conv-1", saved.Scope)
	assert.Equal(t, "someone", saved.Metadata["author"])
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestDocumentStore_GetDocument_ReturnsCopy(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.SaveDocument(ctx, newDoc("doc-1", "conv-1")))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	got.State = domain.StateFailed
	got.Metadata["author"] = "changed"

	again, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, again.State)
	assert.Equal(t, "someone", again.Metadata["author"])
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	_, err := NewDocumentStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListDocuments_ScopeIndex(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"doc-1", "doc-2", "doc-3"} {
		d := newDoc(id, "conv-1")
		if id == "doc-3" {
			d.Scope = "conv-2"
		}
		d.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.SaveDocument(ctx, d))
	}

	docs, err := store.ListDocuments(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, "doc-2", docs[1].ID)

	all, err := store.ListDocuments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Moving a document between scopes updates the index.
	moved := newDoc("doc-2", "conv-2")
	moved.CreatedAt = base
	require.NoError(t, store.SaveDocument(ctx, moved))
	docs, err = store.ListDocuments(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDocumentStore_ReplaceChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	doc := newDoc("doc-1", "conv-1")

	chunks := []domain.Chunk{
		{ID: "c2", DocumentID: "doc-1", Content: "second", Position: 1},
		{ID: "c1", DocumentID: "doc-1", Content: "first", Position: 0},
	}
	require.NoError(t, store.ReplaceChunks(ctx, doc, chunks))
	assert.Equal(t, 2, doc.ChunkCount)

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)

	require.NoError(t, store.ReplaceChunks(ctx, doc, []domain.Chunk{{ID: "c3", DocumentID: "doc-1"}}))
	got, err = store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c3", got[0].ID)

	saved, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.ChunkCount)

	_, err = store.GetChunk(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ReplaceChunks_RejectsForeignChunk(t *testing.T) {
	store := NewDocumentStore()
	err := store.ReplaceChunks(context.Background(), newDoc("doc-1", "s"),
		[]domain.Chunk{{ID: "x", DocumentID: "doc-2"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentStore_Source(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	content := []byte("hello")
	require.NoError(t, store.SaveSource(ctx, "doc-1", &domain.RawFile{Filename: "a.txt", Content: content}))
	content[0] = 'j'

	got, err := store.GetSource(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got.Content))

	_, err = store.GetSource(ctx, "doc-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	doc := newDoc("doc-1", "conv-1")
	require.NoError(t, store.ReplaceChunks(ctx, doc, []domain.Chunk{{ID: "c1", DocumentID: "doc-1"}}))
	require.NoError(t, store.SaveSource(ctx, "doc-1", &domain.RawFile{Filename: "a"}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
	docs, err := store.ListDocuments(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, docs)
	_, err = store.GetSource(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ConcurrentAccess(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "doc-" + string(rune('A'+i))
			_ = store.SaveDocument(ctx, newDoc(id, "conv-1"))
			_, _ = store.GetDocument(ctx, id)
			_, _ = store.ListDocuments(ctx, "conv-1")
		}(i)
	}
	wg.Wait()

	docs, err := store.ListDocuments(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, docs, 50)
}
