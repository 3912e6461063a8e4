package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	results []domain.RankedChunk
	err     error
	calls   int
	query   string
	opts    domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.RankedChunk, error) {
	m.calls++
	m.query = query
	m.opts = opts
	return m.results, m.err
}

func ranked(filename string, page int, score float64, text string) domain.RankedChunk {
	chunk := &domain.Chunk{ID: filename + "-chunk", Content: text, Metadata: map[string]any{}}
	if page > 0 {
		chunk.Metadata[domain.ChunkPage] = page
	}
	return domain.RankedChunk{Document: &domain.Document{Filename: filename}, Chunk: chunk, Score: score}
}

func conversation() []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "You are helpful."},
		{Role: domain.RoleUser, Content: "Hi"},
		{Role: domain.RoleAssistant, Content: "Hello!"},
		{Role: domain.RoleUser, Content: "How much leave do I get?"},
	}
}

func TestContextAssembler_InsertsBeforeLastUserTurn(t *testing.T) {
	search := &mockSearchService{results: []domain.RankedChunk{
		ranked("handbook.pdf", 3, 0.82, "Employees accrue twenty days of leave."),
		ranked("policy.txt", 0, 0.41, "Carry-over is capped at five days."),
	}}
	a := NewContextAssembler(search, domain.DefaultAppSettings())

	out, err := a.Assemble(context.Background(), conversation(), "conv-1")

	require.NoError(t, err)
	require.Len(t, out, 5)
	assert.Equal(t, domain.RoleSystem, out[3].Role)
	assert.Equal(t, "How much leave do I get?", out[4].Content)
	assert.Contains(t, out[3].Content, "[1] handbook.pdf (page 3, score 0.82)")
	assert.Contains(t, out[3].Content, "Employees accrue twenty days of leave.")
	assert.Contains(t, out[3].Content, "[2] policy.txt (score 0.41)")

	assert.Equal(t, "How much leave do I get?", search.query)
	assert.Equal(t, "conv-1", search.opts.Scope)
	assert.Equal(t, domain.DefaultMaxContextChunks, search.opts.Limit)
}

func TestContextAssembler_NoResultsPassesThrough(t *testing.T) {
	a := NewContextAssembler(&mockSearchService{}, domain.DefaultAppSettings())
	in := conversation()

	out, err := a.Assemble(context.Background(), in, "conv-1")

	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestContextAssembler_SearchErrorPassesThrough(t *testing.T) {
	a := NewContextAssembler(&mockSearchService{err: errors.New("boom")}, domain.DefaultAppSettings())
	in := conversation()

	out, err := a.Assemble(context.Background(), in, "conv-1")

	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestContextAssembler_NoUserTurn(t *testing.T) {
	search := &mockSearchService{results: []domain.RankedChunk{ranked("a.txt", 0, 0.9, "text")}}
	a := NewContextAssembler(search, domain.DefaultAppSettings())
	in := []domain.ChatMessage{{Role: domain.RoleSystem, Content: "sys"}}

	out, err := a.Assemble(context.Background(), in, "conv-1")

	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Zero(t, search.calls)
}

func TestContextAssembler_CapsChunks(t *testing.T) {
	search := &mockSearchService{results: []domain.RankedChunk{
		ranked("a.txt", 0, 0.9, "first"),
		ranked("b.txt", 0, 0.8, "second"),
		ranked("c.txt", 0, 0.7, "third"),
	}}
	settings := domain.DefaultAppSettings()
	settings.Retrieval.MaxContextChunks = 2
	a := NewContextAssembler(search, settings)

	out, err := a.Assemble(context.Background(), conversation(), "conv-1")

	require.NoError(t, err)
	assert.Equal(t, 2, search.opts.Limit)
	assert.Contains(t, out[3].Content, "second")
	assert.NotContains(t, out[3].Content, "third")
}

func TestContextAssembler_DoesNotMutateInput(t *testing.T) {
	search := &mockSearchService{results: []domain.RankedChunk{ranked("a.txt", 0, 0.9, "text")}}
	a := NewContextAssembler(search, domain.DefaultAppSettings())
	in := conversation()
	snapshot := append([]domain.ChatMessage(nil), in...)

	_, err := a.Assemble(context.Background(), in, "conv-1")

	require.NoError(t, err)
	assert.Equal(t, snapshot, in)
}

func TestContextAssembler_EndToEnd(t *testing.T) {
	r := newTestRig(t)
	r.upload(t, "conv-1", "handbook.txt", handbook)
	a := NewContextAssembler(r.search, r.settings)

	withContext, err := a.Assemble(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "Can unused leave be carried over into the next year?"},
	}, "conv-1")
	require.NoError(t, err)
	require.Len(t, withContext, 2)
	assert.Contains(t, withContext[0].Content, "handbook.txt")

	unrelated := []domain.ChatMessage{{Role: domain.RoleUser, Content: "xyz-unrelated-term"}}
	out, err := a.Assemble(context.Background(), unrelated, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, unrelated, out)
}
