package chunker

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Markdown splits on heading boundaries. Sections larger than the chunk
// size fall back to semantic accumulation under the same heading.
type Markdown struct {
	cfg    config
	parser goldmark.Markdown
}

// NewMarkdown creates a markdown-aware chunker.
func NewMarkdown(opts ...Option) *Markdown {
	return &Markdown{cfg: newConfig(opts), parser: goldmark.New()}
}

// Strategy returns the strategy name.
func (m *Markdown) Strategy() domain.ChunkStrategy {
	return domain.ChunkMarkdown
}

// section is the text between two headings.
type section struct {
	heading string
	body    string
}

// Chunk emits one chunk per section, or several for oversized sections.
func (m *Markdown) Chunk(ctx context.Context, elements []domain.Element) ([]domain.Chunk, error) {
	us := units(elements)
	if len(us) == 0 {
		return nil, nil
	}
	parts := make([]string, len(us))
	for i, u := range us {
		parts[i] = u.text
	}
	base := us[0]
	src := []byte(strings.Join(parts, paragraphSep))

	var chunks []domain.Chunk
	for _, sec := range m.sections(src) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u := base
		u.section = sec.heading
		u.typ = domain.ElementNarrativeText
		if sec.heading != "" {
			u.typ = domain.ElementTitle
		}

		if runeLen(sec.body) <= m.cfg.size {
			u.text = sec.body
			chunks = append(chunks, newChunk(sec.body, u))
			continue
		}
		sub, err := accumulate(ctx, splitParagraphs(sec.body, u), m.cfg)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, sub...)
	}
	return chunks, nil
}

// sections parses src and cuts it at the start of every heading line.
func (m *Markdown) sections(src []byte) []section {
	doc := m.parser.Parser().Parse(text.NewReader(src))

	type mark struct {
		offset  int
		heading string
	}
	var marks []mark
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)
		lineStart := bytes.LastIndexByte(src[:seg.Start], '\n') + 1
		marks = append(marks, mark{offset: lineStart, heading: string(h.Text(src))})
	}

	var out []section
	add := func(body []byte, heading string) {
		if b := strings.TrimSpace(string(body)); b != "" {
			out = append(out, section{heading: heading, body: b})
		}
	}
	if len(marks) == 0 {
		add(src, "")
		return out
	}
	add(src[:marks[0].offset], "")
	for i, mk := range marks {
		end := len(src)
		if i+1 < len(marks) {
			end = marks[i+1].offset
		}
		add(src[mk.offset:end], mk.heading)
	}
	return out
}
