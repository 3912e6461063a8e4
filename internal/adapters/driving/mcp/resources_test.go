package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func newResourceServer(t *testing.T, docs driving.DocumentService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: docs})
	require.NoError(t, err)
	return server
}

func TestParseResourceURI(t *testing.T) {
	tests := []struct {
		uri  string
		kind resourceKind
		arg  string
	}{
		{"sercha-rag://documents", resourceAllDocuments, ""},
		{"sercha-rag://scopes/conv-1/documents", resourceScopeDocuments, "conv-1"},
		{"sercha-rag://documents/doc-1", resourceContent, "doc-1"},
		{"sercha-rag://documents/doc-1/details", resourceDetails, "doc-1"},
		{"sercha-rag://scopes//documents", resourceUnknown, ""},
		{"sercha-rag://scopes/conv-1", resourceUnknown, ""},
		{"sercha-rag://documents/", resourceUnknown, ""},
		{"sercha-rag://documents/doc-1/chunks", resourceUnknown, ""},
		{"file://documents", resourceUnknown, ""},
		{"", resourceUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			kind, arg := parseResourceURI(tt.uri)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.arg, arg)
		})
	}
}

func TestServer_readResource_Documents(t *testing.T) {
	ctx := context.Background()

	t.Run("no document service lists nothing", func(t *testing.T) {
		server := newResourceServer(t, nil)

		result, err := server.readResource(ctx, readRequest("sercha-rag://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("all scopes", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.Document{
			{ID: "doc-1", Filename: "README.md", Scope: "conv-1", State: domain.StateCompleted},
			{ID: "doc-2", Filename: "Guide.md", Scope: "conv-2", State: domain.StateFailed},
		}}
		server := newResourceServer(t, docs)

		result, err := server.readResource(ctx, readRequest("sercha-rag://documents"))

		require.NoError(t, err)
		assert.Empty(t, docs.scope)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "README.md")
		assert.Contains(t, result.Contents[0].Text, `"state": "failed"`)
	})

	t.Run("one scope", func(t *testing.T) {
		docs := &mockDocumentService{documents: []domain.Document{}}
		server := newResourceServer(t, docs)

		result, err := server.readResource(ctx, readRequest("sercha-rag://scopes/conv-1/documents"))

		require.NoError(t, err)
		assert.Equal(t, "conv-1", docs.scope)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("list failure", func(t *testing.T) {
		server := newResourceServer(t, &mockDocumentService{err: errors.New("storage error")})

		_, err := server.readResource(ctx, readRequest("sercha-rag://scopes/conv-1/documents"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})

	t.Run("unknown URI", func(t *testing.T) {
		server := newResourceServer(t, &mockDocumentService{})

		_, err := server.readResource(ctx, readRequest("sercha-rag://invalid/uri"))

		require.Error(t, err)
	})
}

func TestServer_readResource_Content(t *testing.T) {
	ctx := context.Background()

	t.Run("returns text", func(t *testing.T) {
		server := newResourceServer(t, &mockDocumentService{content: "# Leave\n\nTwenty days."})

		result, err := server.readResource(ctx, readRequest("sercha-rag://documents/doc-1"))

		require.NoError(t, err)
		assert.Equal(t, "# Leave\n\nTwenty days.", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("no document service", func(t *testing.T) {
		server := newResourceServer(t, nil)

		_, err := server.readResource(ctx, readRequest("sercha-rag://documents/doc-1"))

		require.Error(t, err)
	})

	t.Run("content failure", func(t *testing.T) {
		server := newResourceServer(t, &mockDocumentService{err: domain.ErrNotFound})

		_, err := server.readResource(ctx, readRequest("sercha-rag://documents/doc-1"))

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_readResource_Details(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	docs := &mockDocumentService{details: &driving.DocumentDetails{
		ID:            "doc-1",
		Filename:      "handbook.pdf",
		Scope:         "conv-1",
		ContentType:   domain.ContentPDF,
		Size:          2048,
		State:         domain.StateCompleted,
		Revision:      2,
		ChunkCount:    12,
		Embedding:     domain.EmbeddingIdentity{Provider: domain.AIProviderLocal, Model: "m", Dimensions: 384},
		IndexStatus:   domain.IndexStatusPartial,
		FailedBatches: 1,
		CreatedAt:     created,
		UpdatedAt:     created,
		Metadata:      map[string]string{domain.MetaExtractionMethod: "poppler"},
	}}
	server := newResourceServer(t, docs)

	result, err := server.readResource(context.Background(), readRequest("sercha-rag://documents/doc-1/details"))

	require.NoError(t, err)
	text := result.Contents[0].Text
	assert.Contains(t, text, `"index_status": "partial"`)
	assert.Contains(t, text, `"failed_batches": 1`)
	assert.Contains(t, text, `"size": 2048`)
	assert.Contains(t, text, `"created_at": "2026-01-02T03:04:05Z"`)
	assert.Contains(t, text, `"poppler"`)
}
