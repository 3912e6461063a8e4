package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure ContextAssembler implements the interface.
var _ driving.ContextAssembler = (*ContextAssembler)(nil)

// contextHeader opens the injected context message.
const contextHeader = "Relevant excerpts from uploaded documents:"

// ContextAssembler injects retrieved chunks into a conversation.
type ContextAssembler struct {
	search   driving.SearchService
	settings domain.AppSettings
}

// NewContextAssembler creates a new context assembler.
func NewContextAssembler(search driving.SearchService, settings domain.AppSettings) *ContextAssembler {
	return &ContextAssembler{search: search, settings: settings}
}

// Assemble searches the scope with the last user turn and inserts one system
// message before it. Search failures pass the conversation through unchanged.
func (a *ContextAssembler) Assemble(
	ctx context.Context, messages []domain.ChatMessage, scope string,
) ([]domain.ChatMessage, error) {
	out := append([]domain.ChatMessage(nil), messages...)

	last := domain.LastUserTurn(out)
	if last < 0 || strings.TrimSpace(out[last].Content) == "" {
		return out, nil
	}

	limit := a.settings.ForScope(scope).Retrieval.MaxContextChunks
	if limit <= 0 {
		limit = domain.DefaultMaxContextChunks
	}

	results, err := a.search.Search(ctx, out[last].Content, domain.SearchOptions{Scope: scope, Limit: limit})
	if err != nil {
		logger.Warn("Context search failed, passing conversation through: %v", err)
		return out, nil
	}
	if len(results) == 0 {
		logger.Debug("No relevant chunks for scope %q", scope)
		return out, nil
	}
	if len(results) > limit {
		results = results[:limit]
	}

	msg := domain.ChatMessage{Role: domain.RoleSystem, Content: FormatContext(results)}
	out = append(out[:last], append([]domain.ChatMessage{msg}, out[last:]...)...)
	logger.Debug("Injected %d chunks before turn %d", len(results), last)
	return out, nil
}

// FormatContext renders ranked chunks as one context block. Each excerpt
// names its document, page when known, and score.
func FormatContext(results []domain.RankedChunk) string {
	var b strings.Builder
	b.WriteString(contextHeader)
	for i, r := range results {
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "[%d] %s", i+1, sourceLabel(r))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(r.Chunk.Content))
	}
	return b.String()
}

// sourceLabel returns "name (page N, score 0.82)".
func sourceLabel(r domain.RankedChunk) string {
	name := "unknown"
	if r.Document != nil && r.Document.Filename != "" {
		name = r.Document.Filename
	}
	var attrs []string
	if page := r.Chunk.PageNumber(); page > 0 {
		attrs = append(attrs, fmt.Sprintf("page %d", page))
	}
	if section := r.Chunk.Section(); section != "" {
		attrs = append(attrs, fmt.Sprintf("section %q", section))
	}
	attrs = append(attrs, fmt.Sprintf("score %.2f", r.Score))
	return name + " (" + strings.Join(attrs, ", ") + ")"
}
