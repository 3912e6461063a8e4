package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// --- Mocks ---

type mockIngestService struct {
	result    *driving.IngestResult
	err       error
	req       driving.UploadRequest
	submitted bool
	waited    bool
	reprocess string
}

func (m *mockIngestService) Upload(_ context.Context, req driving.UploadRequest) (*driving.IngestResult, error) {
	m.req = req
	return m.result, m.err
}

func (m *mockIngestService) Submit(_ context.Context, req driving.UploadRequest) (*domain.Document, error) {
	m.req = req
	m.submitted = true
	if m.err != nil {
		return nil, m.err
	}
	doc := *m.result.Document
	doc.State = domain.StatePending
	return &doc, nil
}

func (m *mockIngestService) Reprocess(_ context.Context, documentID string) (*driving.IngestResult, error) {
	m.reprocess = documentID
	return m.result, m.err
}

func (m *mockIngestService) Wait() { m.waited = true }

type mockSearchService struct {
	results []domain.RankedChunk
	err     error
	query   string
	opts    domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.RankedChunk, error) {
	m.query = query
	m.opts = opts
	return m.results, m.err
}

type mockDocumentService struct {
	documents []domain.Document
	details   *driving.DocumentDetails
	content   string
	err       error
	scope     string
	deleted   string
}

func (m *mockDocumentService) List(_ context.Context, scope string) ([]domain.Document, error) {
	m.scope = scope
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, documentID string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == documentID {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
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

type mockSettingsService struct {
	settings    domain.AppSettings
	saved       []domain.AppSettings
	validateErr error
	pingErr     error
	getErr      error
	scope       string
	override    domain.ScopeOverride
	provider    domain.AIProvider
	model       string
	apiKey      string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	m.saved = append(m.saved, *settings)
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.provider = provider
	m.model = model
	m.apiKey = apiKey
	return nil
}

func (m *mockSettingsService) SetScopeOverride(scope string, override domain.ScopeOverride) error {
	if scope == "" {
		return domain.ErrInvalidInput
	}
	m.scope = scope
	m.override = override
	return nil
}

// Validate rejects an overlap that is not below the chunk size.
func (m *mockSettingsService) Validate() error {
	if m.validateErr != nil {
		return m.validateErr
	}
	if m.settings.Ingest.ChunkOverlap >= m.settings.Ingest.ChunkSize {
		return errors.New("chunk overlap must be smaller than chunk size")
	}
	return nil
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

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
	if m.inject == "" {
		return messages, nil
	}
	last := domain.LastUserTurn(messages)
	out := append([]domain.ChatMessage{}, messages[:last]...)
	out = append(out, domain.ChatMessage{Role: domain.RoleSystem, Content: m.inject})
	return append(out, messages[last:]...), nil
}

type mockFolderSync struct {
	report  *driving.SyncReport
	events  []driving.SyncEvent
	err     error
	root    string
	scope   string
	watched bool
}

func (m *mockFolderSync) Scan(_ context.Context, connector driven.Connector, scope string) (*driving.SyncReport, error) {
	m.scope = scope
	if root, ok := connector.(interface{ Root() string }); ok {
		m.root = root.Root()
	}
	return m.report, m.err
}

func (m *mockFolderSync) Watch(_ context.Context, _ driven.Connector, _ string, onEvent func(driving.SyncEvent)) error {
	m.watched = true
	for _, e := range m.events {
		onEvent(e)
	}
	return nil
}

// --- Fixtures ---

func testDocument() domain.Document {
	return domain.Document{
		ID:          "doc-1",
		Filename:    "handbook.pdf",
		Scope:       "conv-1",
		ContentType: domain.ContentPDF,
		State:       domain.StateCompleted,
		Revision:    1,
		ChunkCount:  4,
		IndexStatus: domain.IndexStatusIndexed,
		Embedding:   domain.EmbeddingIdentity{Provider: domain.AIProviderLocal, Model: "hashed-bow-384", Dimensions: 384},
		Metadata:    map[string]any{domain.MetaExtractionMethod: "native"},
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func testRankedChunk() domain.RankedChunk {
	doc := testDocument()
	return domain.RankedChunk{
		Document: &doc,
		Chunk: &domain.Chunk{
			ID:       "chunk-1",
			Content:  "Employees accrue twenty days of paid leave per year.",
			Position: 2,
			Metadata: map[string]any{domain.ChunkPage: 3, domain.ChunkSection: "Leave"},
		},
		Score: 0.82,
	}
}

type testServices struct {
	ingest   *mockIngestService
	search   *mockSearchService
	docs     *mockDocumentService
	settings *mockSettingsService
	context  *mockContextAssembler
	folder   *mockFolderSync
}

var mocks testServices

// setupTestServices installs mocks and returns a restore func.
func setupTestServices() func() {
	oldIngest, oldSearch, oldDocs := ingestService, searchService, documentService
	oldSettings, oldContext, oldFolder := settingsService, contextAssembler, folderSync

	doc := testDocument()
	mocks = testServices{
		ingest: &mockIngestService{result: &driving.IngestResult{
			Document: &doc,
			Batches:  []domain.BatchResult{{Index: 0, Size: 4}},
		}},
		search:   &mockSearchService{results: []domain.RankedChunk{testRankedChunk()}},
		docs:     &mockDocumentService{documents: []domain.Document{testDocument()}},
		settings: newMockSettingsService(),
		context:  &mockContextAssembler{inject: "Relevant context:\n[1] handbook.pdf: twenty days"},
		folder:   &mockFolderSync{report: &driving.SyncReport{}},
	}
	Configure(Services{
		Ingest:   mocks.ingest,
		Search:   mocks.search,
		Document: mocks.docs,
		Settings: mocks.settings,
		Context:  mocks.context,
		Folder:   mocks.folder,
	})

	return func() {
		ingestService, searchService, documentService = oldIngest, oldSearch, oldDocs
		settingsService, contextAssembler, folderSync = oldSettings, oldContext, oldFolder
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"upload", "search", "document", "context", "watch", "mcp", "settings", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_HasVerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")

	if assert.NotNil(t, flag) {
		assert.Equal(t, "v", flag.Shorthand)
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestConfigure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	assert.Same(t, mocks.ingest, ingestService)
	assert.Same(t, mocks.search, searchService)
	assert.Same(t, mocks.docs, documentService)
	assert.Same(t, mocks.settings, settingsService)
	assert.Same(t, mocks.context, contextAssembler)
	assert.Same(t, mocks.folder, folderSync)
}
