package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// newTestStore connects to REDIS_ADDR under a throwaway prefix.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	prefix := "sercha-rag-test-" + uuid.NewString()
	store, err := NewStore(ctx, Config{URL: addr, Prefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() {
		keys, _ := store.rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			store.rdb.Del(ctx, keys...)
		}
		store.Close()
	})
	return store
}

func TestNewStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewStore(ctx, Config{URL: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestNewStore_BadURL(t *testing.T) {
	_, err := NewStore(context.Background(), Config{URL: "redis://:bad:port/x"})
	assert.Error(t, err)
}

func TestRecordConversion(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := &domain.Document{
		ID:          "doc-1",
		Filename:    "a.pdf",
		ContentType: domain.ContentPDF,
		Scope:       "conv-1",
		State:       domain.StateCompleted,
		Embedding:   domain.EmbeddingIdentity{Provider: domain.AIProviderOpenAI, Model: "m", Dimensions: 1536},
		IndexStatus: domain.IndexStatusDegraded,
		CreatedAt:   now,
	}

	got := toRecord(doc).toDomain()
	assert.Equal(t, doc.Embedding, got.Embedding)
	assert.Equal(t, domain.ContentPDF, got.ContentType)
	assert.Equal(t, domain.IndexStatusDegraded, got.IndexStatus)
}

func TestStore_DocumentLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &domain.Document{ID: "doc-1", Filename: "a.txt", Scope: "conv-1", State: domain.StatePending}
	require.NoError(t, store.SaveDocument(ctx, doc))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc-2", Scope: "conv-2"}))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.Filename)

	docs, err := store.ListDocuments(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	all, err := store.ListDocuments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	chunks := []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Content: "one", Position: 0, Metadata: map[string]any{domain.ChunkPage: 1}},
		{ID: "c2", DocumentID: "doc-1", Content: "two", Position: 1},
	}
	require.NoError(t, store.ReplaceChunks(ctx, doc, chunks))

	stored, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 1, stored[0].PageNumber())

	chunk, err := store.GetChunk(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "two", chunk.Content)

	require.NoError(t, store.ReplaceChunks(ctx, doc, []domain.Chunk{{ID: "c3", DocumentID: "doc-1"}}))
	_, err = store.GetChunk(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.SaveSource(ctx, "doc-1", &domain.RawFile{Filename: "a.txt", Content: []byte("hi")}))
	src, err := store.GetSource(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(src.Content))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))
	_, err = store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetSource(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	docs, err = store.ListDocuments(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, docs)
}
