package chunker

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Semantic accumulates paragraphs until the next one would exceed the size.
// Each chunk after the first opens with a tail of the previous chunk.
// The size budget counts paragraph text only; the carried tail and the
// paragraph separators are not charged against it.
type Semantic struct {
	cfg config
}

// NewSemantic creates a semantic chunker.
func NewSemantic(opts ...Option) *Semantic {
	return &Semantic{cfg: newConfig(opts)}
}

// Strategy returns the strategy name.
func (s *Semantic) Strategy() domain.ChunkStrategy {
	return domain.ChunkSemantic
}

// Chunk splits elements into paragraph-aligned chunks.
func (s *Semantic) Chunk(ctx context.Context, elements []domain.Element) ([]domain.Chunk, error) {
	var paragraphs []unit
	for _, u := range units(elements) {
		paragraphs = append(paragraphs, splitParagraphs(u.text, u)...)
	}
	return accumulate(ctx, paragraphs, s.cfg)
}

// accumulate packs units into chunks. It is shared with the markdown
// strategy for oversized sections.
func accumulate(ctx context.Context, paragraphs []unit, cfg config) ([]domain.Chunk, error) {
	var (
		chunks []domain.Chunk
		parts  []string
		first  unit
		budget int
		carry  string
	)

	flush := func() {
		if len(parts) == 0 {
			return
		}
		body := strings.Join(parts, paragraphSep)
		content := body
		if carry != "" {
			content = carry + paragraphSep + body
		}
		chunks = append(chunks, newChunk(content, first))
		carry = overlapTail(body, cfg.overlap)
		parts = parts[:0]
		budget = 0
	}

	for _, p := range paragraphs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := runeLen(p.text)
		if len(parts) > 0 && budget+n > cfg.size {
			flush()
		}
		if len(parts) == 0 {
			first = p
		}
		parts = append(parts, p.text)
		budget += n
	}
	flush()
	return chunks, nil
}
