package chunker

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// codeLineRatio is the share of non-blank lines that must look like code.
const codeLineRatio = 0.3

var (
	fenceLine    = regexp.MustCompile("(?m)^\\s*(```|~~~)")
	headingLine  = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	codeLikeLine = regexp.MustCompile(`^\s*(?:func |def |class |import |package |#include|public |private |return\b|const |let |var |fn |}|.*[{;]\s*$)`)
)

// Detect picks a strategy from content signatures: code tokens or
// fences mean code, heading markers mean markdown, anything else is
// semantic. Fenced code inside a document that also has headings is
// treated as markdown.
func Detect(elements []domain.Element) domain.ChunkStrategy {
	var sb strings.Builder
	codeElements := 0
	for _, el := range elements {
		if el.Type == domain.ElementCode {
			codeElements++
		}
		sb.WriteString(el.Text)
		sb.WriteString("\n")
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return domain.ChunkSemantic
	}
	if codeElements > 0 && codeElements == len(elements) {
		return domain.ChunkCode
	}

	headings := headingLine.MatchString(text)
	fences := fenceLine.MatchString(text)
	if headings && fences {
		return domain.ChunkMarkdown
	}
	if fences || looksLikeCode(text) {
		return domain.ChunkCode
	}
	if headings {
		return domain.ChunkMarkdown
	}
	return domain.ChunkSemantic
}

func looksLikeCode(text string) bool {
	total, code := 0, 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		if codeLikeLine.MatchString(line) {
			code++
		}
	}
	return total > 0 && float64(code)/float64(total) >= codeLineRatio
}
