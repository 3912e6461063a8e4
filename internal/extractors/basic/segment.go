package basic

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	blankLines  = regexp.MustCompile(`\n[ \t]*\n+`)
	multiSpaces = regexp.MustCompile(`[ \t]+`)
	listMarker  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	headingLike = regexp.MustCompile(`^#{1,6}\s+\S`)
)

const maxTitleLen = 80

// Paragraphs splits text on blank lines into classified elements.
// Every element carries the given page number.
func Paragraphs(text string, page int) []domain.Element {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var elements []domain.Element
	for _, block := range blankLines.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		elements = append(elements, domain.Element{
			Text:       block,
			Type:       classify(block),
			PageNumber: page,
		})
	}
	return elements
}

// classify guesses an element type from the shape of a paragraph.
func classify(block string) domain.ElementType {
	if headingLike.MatchString(block) {
		return domain.ElementTitle
	}
	if listMarker.MatchString(block) {
		return domain.ElementListItem
	}
	if !strings.Contains(block, "\n") && len(block) <= maxTitleLen && looksLikeTitle(block) {
		return domain.ElementTitle
	}
	return domain.ElementNarrativeText
}

// looksLikeTitle is true for short lines without terminal punctuation
// that start with an upper-case letter.
func looksLikeTitle(line string) bool {
	last := line[len(line)-1]
	if strings.ContainsRune(".,;:!?", rune(last)) {
		return false
	}
	for _, r := range line {
		return unicode.IsUpper(r) || unicode.IsDigit(r)
	}
	return false
}

// collapseSpaces normalises runs of spaces and tabs inside lines.
func collapseSpaces(s string) string {
	return multiSpaces.ReplaceAllString(s, " ")
}
