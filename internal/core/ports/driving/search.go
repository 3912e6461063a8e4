package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SearchService provides semantic retrieval to external actors.
type SearchService interface {
	// Search embeds the query and ranks the scope's chunks against it.
	// Results are strictly descending by score and never below the floor.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RankedChunk, error)
}

// ContextAssembler injects retrieved chunks into a conversation.
type ContextAssembler interface {
	// Assemble returns the conversation with at most one context message
	// inserted before the last user turn. With no qualifying results the
	// conversation is returned unmodified.
	Assemble(ctx context.Context, messages []domain.ChatMessage, scope string) ([]domain.ChatMessage, error)
}
