package chunker

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// carryLines is how many lines an oversized block carries into its next chunk.
const carryLines = 3

var (
	declarationLine = regexp.MustCompile(`^(?:func|type|var|const|package|import|class|def|async\s+def|fn|pub(?:\([a-z]+\))?\s|struct|enum|impl|trait|interface|module|export|public|private|protected|static|abstract|@\w+)\b`)
	commentLine     = regexp.MustCompile(`^\s*(?://|#|/\*|\*|--)`)
)

// Code splits source on top-level declarations and packs small
// declarations together. Oversized declarations fall back to line
// accumulation, carrying the last few lines forward.
type Code struct {
	cfg config
}

// NewCode creates a code-aware chunker.
func NewCode(opts ...Option) *Code {
	return &Code{cfg: newConfig(opts)}
}

// Strategy returns the strategy name.
func (c *Code) Strategy() domain.ChunkStrategy {
	return domain.ChunkCode
}

// block is one top-level declaration with its leading comments.
type block struct {
	lines []string
	name  string
}

func (b block) text() string {
	return strings.Join(b.lines, "\n")
}

// Chunk splits source into declaration-aligned chunks.
func (c *Code) Chunk(ctx context.Context, elements []domain.Element) ([]domain.Chunk, error) {
	us := units(elements)
	if len(us) == 0 {
		return nil, nil
	}
	parts := make([]string, len(us))
	for i, u := range us {
		parts[i] = u.text
	}
	base := us[0]
	base.typ = domain.ElementCode

	var (
		chunks []domain.Chunk
		packed []string
		first  block
		budget int
	)
	emit := func(content, name string) {
		u := base
		u.section = name
		chunks = append(chunks, newChunk(content, u))
	}
	flush := func() {
		if len(packed) > 0 {
			emit(strings.Join(packed, "\n\n"), first.name)
			packed = packed[:0]
			budget = 0
		}
	}

	for _, b := range splitBlocks(strings.Join(parts, "\n")) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := strings.Trim(b.text(), "\n")
		if text == "" {
			continue
		}
		n := runeLen(text)
		if n > c.cfg.size {
			flush()
			for _, part := range accumulateLines(b.lines, c.cfg.size) {
				emit(part, b.name)
			}
			continue
		}
		if len(packed) > 0 && budget+n+2 > c.cfg.size {
			flush()
		}
		if len(packed) == 0 {
			first = b
		}
		packed = append(packed, text)
		budget += n + 2
	}
	flush()
	return chunks, nil
}

// splitBlocks cuts source lines at top-level declarations. Comment lines
// directly above a declaration move into its block.
func splitBlocks(src string) []block {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	var (
		blocks []block
		cur    block
	)
	for _, line := range lines {
		if declarationLine.MatchString(line) && hasCode(cur.lines) {
			// Leading comments belong to the declaration below them.
			cut := len(cur.lines)
			for cut > 0 && commentLine.MatchString(cur.lines[cut-1]) {
				cut--
			}
			lead := append([]string(nil), cur.lines[cut:]...)
			cur.lines = cur.lines[:cut]
			blocks = append(blocks, cur)
			cur = block{lines: lead}
		}
		if cur.name == "" && declarationLine.MatchString(line) {
			cur.name = signature(line)
		}
		cur.lines = append(cur.lines, line)
	}
	return append(blocks, cur)
}

// hasCode reports whether lines contain anything besides comments and blanks.
func hasCode(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" && !commentLine.MatchString(l) {
			return true
		}
	}
	return false
}

// accumulateLines packs lines up to size, starting each chunk after the
// first with the previous chunk's last lines. Every chunk takes at least
// one new line, so the loop always advances.
func accumulateLines(lines []string, size int) []string {
	var (
		out    []string
		buf    []string
		length int
		fresh  int
	)
	for _, line := range lines {
		l := runeLen(line) + 1
		if fresh > 0 && length+l > size {
			out = append(out, strings.Join(buf, "\n"))
			keep := carryLines
			if keep > len(buf)-1 {
				keep = len(buf) - 1
			}
			buf = append([]string(nil), buf[len(buf)-keep:]...)
			length = 0
			for _, b := range buf {
				length += runeLen(b) + 1
			}
			if length+l > size {
				buf, length = nil, 0
			}
			fresh = 0
		}
		buf = append(buf, line)
		length += l
		fresh++
	}
	if fresh > 0 {
		out = append(out, strings.Join(buf, "\n"))
	}
	return out
}

func signature(line string) string {
	line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), "{"))
	if runeLen(line) > 80 {
		line = string([]rune(line)[:80])
	}
	return line
}
