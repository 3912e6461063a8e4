package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// paragraphSep joins paragraphs within a chunk.
const paragraphSep = "\n\n"

// tailSentences is how many trailing sentences the semantic tail prefers.
const tailSentences = 2

var blankLines = regexp.MustCompile(`\n[ \t]*\n+`)

// unit is one indivisible piece of text with the metadata it carries.
type unit struct {
	text    string
	page    int
	section string
	typ     domain.ElementType
}

// units converts elements into trimmed units, tracking the current section.
func units(elements []domain.Element) []unit {
	var out []unit
	section := ""
	for _, el := range elements {
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		if el.Type == domain.ElementTitle {
			section = firstLine(text)
		}
		out = append(out, unit{text: text, page: el.PageNumber, section: section, typ: el.Type})
	}
	return out
}

// splitParagraphs breaks a block of text on blank lines.
func splitParagraphs(text string, base unit) []unit {
	var out []unit
	for _, p := range blankLines.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			u := base
			u.text = p
			out = append(out, u)
		}
	}
	return out
}

// newChunk builds a chunk with metadata inherited from its first unit.
func newChunk(content string, from unit) domain.Chunk {
	meta := map[string]any{}
	if from.page > 0 {
		meta[domain.ChunkPage] = from.page
	}
	if from.section != "" {
		meta[domain.ChunkSection] = from.section
	}
	if from.typ != "" {
		meta[domain.ChunkType] = string(from.typ)
	}
	return domain.Chunk{Content: content, Metadata: meta}
}

// overlapTail returns the carried context for the next chunk: the last
// two sentences when they fit the overlap, else the last overlap
// characters starting at a word boundary.
func overlapTail(text string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	text = strings.TrimSpace(text)
	if s := sentenceTail(text, tailSentences); s != "" && runeLen(s) <= overlap {
		return s
	}
	return wordTail(text, overlap)
}

// sentenceTail returns the last n sentences of text. Text with fewer
// sentences is returned whole.
func sentenceTail(text string, n int) string {
	found := 0
	for i := len(text) - 2; i >= 0; i-- {
		if isTerminator(text[i]) && isSpaceByte(text[i+1]) {
			found++
			if found == n {
				return strings.TrimSpace(text[i+1:])
			}
		}
	}
	return text
}

// wordTail returns at most limit trailing runes, dropping a leading partial word.
func wordTail(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	start := len(runes) - limit
	if !unicode.IsSpace(runes[start-1]) {
		for i := start; i < len(runes); i++ {
			if unicode.IsSpace(runes[i]) {
				start = i + 1
				break
			}
		}
	}
	return strings.TrimSpace(string(runes[start:]))
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(strings.TrimLeft(s, "#"))
	if runeLen(s) > 120 {
		s = string([]rune(s)[:120])
	}
	return s
}
