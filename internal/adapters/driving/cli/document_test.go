package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Document Command Tests

func TestDocumentCmd_Use(t *testing.T) {
	assert.Equal(t, "document", documentCmd.Use)
}

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	commands := documentCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"list", "get", "content", "details", "delete", "reprocess"}, commandNames)
}

// Document List Tests

func TestDocumentListCmd_Use(t *testing.T) {
	assert.Equal(t, "list [scope]", documentListCmd.Use)
}

func TestDocumentListCmd_RejectsExtraArgs(t *testing.T) {
	_, err := execute(t, "document", "list", "a", "b")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts at most 1 arg(s)")
}

func TestDocumentListCmd_Scope(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "list", "conv-1")

	require.NoError(t, err)
	assert.Equal(t, "conv-1", mocks.docs.scope)
	assert.Contains(t, out, "Documents for scope conv-1:")
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "handbook.pdf")
	assert.Contains(t, out, "Total: 1 documents")
	assert.NotContains(t, out, "Scope:")
}

func TestDocumentListCmd_AllScopes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "list")

	require.NoError(t, err)
	assert.Empty(t, mocks.docs.scope)
	assert.Contains(t, out, "Scope:  conv-1")
}

func TestDocumentListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.docs.documents = nil

	out, err := execute(t, "document", "list", "conv-9")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found for scope: conv-9")
}

func TestDocumentListCmd_ShowsDegradedState(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.docs.documents[0].IndexStatus = domain.IndexStatusDegraded

	out, err := execute(t, "document", "list", "conv-1")

	require.NoError(t, err)
	assert.Contains(t, out, "completed (degraded)")
}

// Document Get Tests

func TestDocumentGetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "get", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Document: doc-1")
	assert.Contains(t, out, "File:     handbook.pdf")
	assert.Contains(t, out, "Type:     pdf")
	assert.Contains(t, out, "Created:  2026-01-02 03:04:05")
}

func TestDocumentGetCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "document", "get", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentGetCmd_ShowsLastError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.docs.documents[0].State = domain.StateFailed
	mocks.docs.documents[0].LastError = "extraction failed: every method failed"

	out, err := execute(t, "document", "get", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "State:    failed")
	assert.Contains(t, out, "Error:    extraction failed")
}

// Document Content Tests

func TestDocumentContentCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.docs.content = "Employees accrue twenty days of paid leave."

	out, err := execute(t, "document", "content", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "twenty days of paid leave")
}

// Document Details Tests

func TestDocumentDetailsCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.docs.details = &driving.DocumentDetails{
		ID:            "doc-1",
		Filename:      "handbook.pdf",
		Scope:         "conv-1",
		ContentType:   domain.ContentPDF,
		Size:          2048,
		State:         domain.StateCompleted,
		Revision:      2,
		ChunkCount:    4,
		Embedding:     domain.EmbeddingIdentity{Provider: domain.AIProviderOpenAI, Model: "text-embedding-3-small", Dimensions: 1536},
		IndexStatus:   domain.IndexStatusPartial,
		FailedBatches: 1,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Metadata:      map[string]string{"extraction_method": "poppler", "chunk_strategy": "semantic"},
	}

	out, err := execute(t, "document", "details", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Revision:       2")
	assert.Contains(t, out, "Index status:   partial")
	assert.Contains(t, out, "Failed batches: 1")
	assert.Contains(t, out, "Embedding:      openai/text-embedding-3-small@1536")
	assert.Contains(t, out, "extraction_method: poppler")
	assert.Less(t, strings.Index(out, "chunk_strategy"), strings.Index(out, "extraction_method"), "metadata keys are sorted")
}

// Document Delete Tests

func TestDocumentDeleteCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "delete", "doc-1")

	require.NoError(t, err)
	assert.Equal(t, "doc-1", mocks.docs.deleted)
	assert.Contains(t, out, "Document doc-1 deleted.")
}

func TestDocumentDeleteCmd_Processing(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.docs.err = domain.ErrProcessing

	_, err := execute(t, "document", "delete", "doc-1")

	assert.ErrorIs(t, err, domain.ErrProcessing)
}

// Document Reprocess Tests

func TestDocumentReprocessCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.ingest.result.Document.Revision = 2

	out, err := execute(t, "document", "reprocess", "doc-1")

	require.NoError(t, err)
	assert.Equal(t, "doc-1", mocks.ingest.reprocess)
	assert.Contains(t, out, "Reprocessing document doc-1...")
	assert.Contains(t, out, "State:     completed")
}

func TestDocumentReprocessCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.ingest.err = errors.New("source missing")

	_, err := execute(t, "document", "reprocess", "doc-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reprocess document")
}

func TestDocumentCmds_ServiceNotConfigured(t *testing.T) {
	oldDocs, oldIngest := documentService, ingestService
	documentService, ingestService = nil, nil
	defer func() {
		documentService, ingestService = oldDocs, oldIngest
	}()

	tests := []struct {
		args    []string
		message string
	}{
		{[]string{"document", "list"}, "document service not configured"},
		{[]string{"document", "get", "doc-1"}, "document service not configured"},
		{[]string{"document", "content", "doc-1"}, "document service not configured"},
		{[]string{"document", "details", "doc-1"}, "document service not configured"},
		{[]string{"document", "delete", "doc-1"}, "document service not configured"},
		{[]string{"document", "reprocess", "doc-1"}, "ingest service not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.args[1], func(t *testing.T) {
			_, err := execute(t, tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
