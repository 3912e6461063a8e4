package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.RankedChunk
	err     error
	query   string
	opts    domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.RankedChunk, error) {
	m.query = query
	m.opts = opts
	return m.results, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result    *driving.IngestResult
	err       error
	req       driving.UploadRequest
	reprocess string
}

func (m *mockIngestService) Upload(_ context.Context, req driving.UploadRequest) (*driving.IngestResult, error) {
	m.req = req
	return m.result, m.err
}

func (m *mockIngestService) Submit(_ context.Context, req driving.UploadRequest) (*domain.Document, error) {
	m.req = req
	if m.result == nil {
		return nil, m.err
	}
	return m.result.Document, m.err
}

func (m *mockIngestService) Reprocess(_ context.Context, documentID string) (*driving.IngestResult, error) {
	m.reprocess = documentID
	return m.result, m.err
}

func (m *mockIngestService) Wait() {}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	content   string
	details   *driving.DocumentDetails
	err       error
	scope     string
	deleted   string
}

func (m *mockDocumentService) List(_ context.Context, scope string) ([]domain.Document, error) {
	m.scope = scope
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	return m.details, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, documentID string) error {
	m.deleted = documentID
	return m.err
}

// mockContextAssembler prepends a context message before the last user turn.
type mockContextAssembler struct {
	inject string
	err    error
	scope  string
}

func (m *mockContextAssembler) Assemble(_ context.Context, messages []domain.ChatMessage, scope string) ([]domain.ChatMessage, error) {
	m.scope = scope
	if m.err != nil {
		return nil, m.err
	}
	last := domain.LastUserTurn(messages)
	if m.inject == "" || last < 0 {
		return messages, nil
	}
	out := append([]domain.ChatMessage{}, messages[:last]...)
	out = append(out, domain.ChatMessage{Role: domain.RoleSystem, Content: m.inject})
	return append(out, messages[last:]...), nil
}
