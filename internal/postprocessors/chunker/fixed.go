package chunker

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// snapWindow is how far a window edge may move to land on whitespace.
const snapWindow = 20

// Fixed is a sliding character window with overlap.
// Chunks are exact substrings of the joined element text and record their
// rune offsets, so the source can be rebuilt from them.
type Fixed struct {
	cfg config
}

// NewFixed creates a fixed-window chunker.
func NewFixed(opts ...Option) *Fixed {
	return &Fixed{cfg: newConfig(opts)}
}

// Strategy returns the strategy name.
func (f *Fixed) Strategy() domain.ChunkStrategy {
	return domain.ChunkFixed
}

// Chunk slides the window over the joined element text.
func (f *Fixed) Chunk(ctx context.Context, elements []domain.Element) ([]domain.Chunk, error) {
	text, spans := joinRunes(units(elements))
	n := len(text)
	if n == 0 {
		return nil, nil
	}

	var chunks []domain.Chunk
	start := 0
	for start < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + f.cfg.size
		if end >= n {
			end = n
		} else {
			end = snapEnd(text, start, end)
		}

		c := newChunk(string(text[start:end]), unitAt(spans, start))
		c.Metadata[domain.ChunkStart] = start
		c.Metadata[domain.ChunkEnd] = end
		chunks = append(chunks, c)

		if end == n {
			break
		}
		next := snapStart(text, end-f.cfg.overlap, end)
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks, nil
}

// span maps a rune range of the joined text back to its unit.
type span struct {
	start, end int
	unit       unit
}

// joinRunes joins unit texts with paragraph separators.
func joinRunes(us []unit) ([]rune, []span) {
	var (
		sb    strings.Builder
		spans []span
		pos   int
	)
	for i, u := range us {
		if i > 0 {
			sb.WriteString(paragraphSep)
			pos += len(paragraphSep)
		}
		l := runeLen(u.text)
		spans = append(spans, span{start: pos, end: pos + l, unit: u})
		sb.WriteString(u.text)
		pos += l
	}
	return []rune(sb.String()), spans
}

// unitAt returns the unit covering offset, or the next one after a separator.
func unitAt(spans []span, offset int) unit {
	for _, s := range spans {
		if offset < s.end {
			return s.unit
		}
	}
	if len(spans) > 0 {
		return spans[len(spans)-1].unit
	}
	return unit{}
}

// snapEnd pulls the window end back to whitespace so words are not cut.
// The end never moves forward, keeping chunks within size.
func snapEnd(text []rune, start, end int) int {
	if unicode.IsSpace(text[end]) || unicode.IsSpace(text[end-1]) {
		return end
	}
	for i := end - 1; i > start && i >= end-snapWindow; i-- {
		if unicode.IsSpace(text[i]) {
			return i + 1
		}
	}
	return end
}

// snapStart moves a window start forward to the next word, staying before limit.
func snapStart(text []rune, start, limit int) int {
	if start <= 0 || unicode.IsSpace(text[start-1]) {
		return start
	}
	for i := start; i < limit && i < start+snapWindow; i++ {
		if unicode.IsSpace(text[i]) {
			return i + 1
		}
	}
	return start
}
