package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func narrative(texts ...string) []domain.Element {
	out := make([]domain.Element, len(texts))
	for i, t := range texts {
		out[i] = domain.Element{Text: t, Type: domain.ElementNarrativeText}
	}
	return out
}

// paragraph returns a single-sentence paragraph of exactly n characters.
func paragraph(n int, letter string) string {
	return strings.Repeat(letter, n-1) + "."
}

func TestNewConfig(t *testing.T) {
	c := newConfig(nil)
	assert.Equal(t, domain.DefaultChunkSize, c.size)
	assert.Equal(t, domain.DefaultChunkOverlap, c.overlap)

	c = newConfig([]Option{WithChunkSize(100), WithOverlap(150)})
	assert.Equal(t, 25, c.overlap, "overlap at or above size is reduced")

	c = newConfig([]Option{WithChunkSize(0), WithOverlap(-1)})
	assert.Equal(t, domain.DefaultChunkSize, c.size)
	assert.Equal(t, domain.DefaultChunkOverlap, c.overlap)
}

func TestSemantic_ThreeParagraphs(t *testing.T) {
	p1, p2, p3 := paragraph(600, "a"), paragraph(400, "b"), paragraph(900, "c")
	s := NewSemantic(WithChunkSize(1000), WithOverlap(200))

	chunks, err := s.Chunk(context.Background(), narrative(p1, p2, p3))

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, p1+"\n\n"+p2, chunks[0].Content)

	tail := p2[len(p2)-200:]
	assert.Equal(t, tail+"\n\n"+p3, chunks[1].Content)
	assert.Equal(t, domain.ChunkSemantic, s.Strategy())
}

func TestSemantic_OversizedParagraphEmittedWhole(t *testing.T) {
	big := paragraph(1500, "z")
	chunks, err := NewSemantic().Chunk(context.Background(), narrative("Short intro.", big, "Short outro."))

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Short intro.", chunks[0].Content)
	assert.True(t, strings.HasSuffix(chunks[1].Content, big))
	assert.Contains(t, chunks[2].Content, "Short outro.")
}

func TestSemantic_TailPrefersSentences(t *testing.T) {
	first := "Leave accrues monthly. Unused days roll over. Carry-over is capped at five days."
	second := paragraph(80, "q")
	chunks, err := NewSemantic(WithChunkSize(90), WithOverlap(60)).Chunk(context.Background(), narrative(first, second))

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Unused days roll over. Carry-over is capped at five days.\n\n"+second, chunks[1].Content)
}

func TestSemantic_InheritsMetadata(t *testing.T) {
	elements := []domain.Element{
		{Text: "Benefits", Type: domain.ElementTitle, PageNumber: 3},
		{Text: "Dental cover is included.", Type: domain.ElementNarrativeText, PageNumber: 3},
	}
	chunks, err := NewSemantic().Chunk(context.Background(), elements)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 3, chunks[0].PageNumber())
	assert.Equal(t, "Benefits", chunks[0].Section())
	assert.Equal(t, "Title", chunks[0].Metadata[domain.ChunkType])
}

func TestSemantic_Empty(t *testing.T) {
	chunks, err := NewSemantic().Chunk(context.Background(), narrative("  ", ""))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestFixed_ChunksRebuildSource(t *testing.T) {
	var words []string
	for i := 0; i < 300; i++ {
		words = append(words, fmt.Sprintf("w%d", i))
	}
	text := strings.Join(words, " ")
	runes := []rune(text)

	chunks, err := NewFixed(WithChunkSize(100), WithOverlap(30)).Chunk(context.Background(), narrative(text))

	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	prevStart, prevEnd := -1, 0
	for i, c := range chunks {
		start := c.Metadata[domain.ChunkStart].(int)
		end := c.Metadata[domain.ChunkEnd].(int)
		assert.Equal(t, string(runes[start:end]), c.Content, "chunk %d", i)
		assert.LessOrEqual(t, end-start, 100)
		assert.Greater(t, start, prevStart, "start must advance")
		assert.LessOrEqual(t, start, prevEnd, "no gaps between chunks")
		prevStart, prevEnd = start, end
	}
	assert.Equal(t, 0, chunks[0].Metadata[domain.ChunkStart])
	assert.Equal(t, len(runes), prevEnd)
}

func TestFixed_DoesNotCutWords(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 40)
	chunks, err := NewFixed(WithChunkSize(50), WithOverlap(10)).Chunk(context.Background(), narrative(text))

	require.NoError(t, err)
	for _, c := range chunks[:len(chunks)-1] {
		last := c.Content[len(c.Content)-1]
		assert.True(t, last == ' ' || strings.HasSuffix(c.Content, "a"), "chunk ends mid-word: %q", c.Content)
	}
}

func TestFixed_PathologicalOverlapTerminates(t *testing.T) {
	text := strings.Repeat("x", 500)
	chunks, err := NewFixed(WithChunkSize(100), WithOverlap(99)).Chunk(context.Background(), narrative(text))

	require.NoError(t, err)
	assert.Len(t, chunks, 401)
	for i := 1; i < len(chunks); i++ {
		assert.Greater(t, chunks[i].Metadata[domain.ChunkStart], chunks[i-1].Metadata[domain.ChunkStart])
	}
}

func TestFixed_PageMetadata(t *testing.T) {
	elements := []domain.Element{
		{Text: strings.Repeat("one ", 30), PageNumber: 1},
		{Text: strings.Repeat("two ", 30), PageNumber: 2},
	}
	chunks, err := NewFixed(WithChunkSize(100), WithOverlap(0)).Chunk(context.Background(), elements)

	require.NoError(t, err)
	assert.Equal(t, 1, chunks[0].PageNumber())
	assert.Equal(t, 2, chunks[len(chunks)-1].PageNumber())
}

func TestMarkdown_SplitsOnHeadings(t *testing.T) {
	src := "Preface line.\n\n# Intro\n\nWelcome text.\n\n## Install\n\nRun the installer."
	chunks, err := NewMarkdown().Chunk(context.Background(), []domain.Element{{Text: src}})

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Preface line.", chunks[0].Content)
	assert.Equal(t, "", chunks[0].Section())
	assert.Equal(t, "# Intro\n\nWelcome text.", chunks[1].Content)
	assert.Equal(t, "Intro", chunks[1].Section())
	assert.Equal(t, "Install", chunks[2].Section())
	assert.Equal(t, domain.ChunkMarkdown, NewMarkdown().Strategy())
}

func TestMarkdown_OversizedSectionFallsBack(t *testing.T) {
	var body []string
	for i := 0; i < 5; i++ {
		body = append(body, fmt.Sprintf("Usage paragraph %d explains one more option in some detail for readers.", i))
	}
	src := "## Usage\n\n" + strings.Join(body, "\n\n")

	chunks, err := NewMarkdown(WithChunkSize(200)).Chunk(context.Background(), []domain.Element{{Text: src}})

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.Equal(t, "Usage", c.Section())
	}
	assert.True(t, strings.HasPrefix(chunks[0].Content, "## Usage"))
}

const goSource = `package billing

// Total sums the invoice lines.
func Total(lines []int) int {
	sum := 0
	for _, l := range lines {
		sum += l
	}
	return sum
}

func Tax(v int) int {
	return v / 5
}`

func TestCode_SplitsOnDeclarations(t *testing.T) {
	elements := []domain.Element{{Text: goSource, Type: domain.ElementCode}}

	chunks, err := NewCode(WithChunkSize(100), WithOverlap(20)).Chunk(context.Background(), elements)

	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, "package billing", chunks[0].Content)

	assert.Equal(t, "func Total(lines []int) int", chunks[1].Section())
	assert.True(t, strings.HasPrefix(chunks[1].Content, "// Total sums"), "leading comment stays with its declaration")
	assert.Equal(t, "func Total(lines []int) int", chunks[2].Section())
	assert.True(t, strings.HasPrefix(chunks[2].Content, "func Total"), "oversized block carries lines forward")

	assert.Equal(t, "func Tax(v int) int", chunks[3].Section())
	assert.True(t, strings.HasPrefix(chunks[3].Content, "func Tax"))
	for _, c := range chunks {
		assert.LessOrEqual(t, runeLen(c.Content), 100)
		assert.Equal(t, "CodeSnippet", c.Metadata[domain.ChunkType])
	}
}

func TestCode_PacksSmallDeclarations(t *testing.T) {
	chunks, err := NewCode().Chunk(context.Background(), []domain.Element{{Text: goSource}})

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "package billing", chunks[0].Section())
}

func TestAccumulateLines(t *testing.T) {
	long := strings.Repeat("y", 50)
	out := accumulateLines([]string{"a", long, "b"}, 20)

	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0])
	assert.Equal(t, long, out[1], "a line longer than size is kept whole")
	assert.Equal(t, "b", out[2])

	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, fmt.Sprintf("line %02d", i))
	}
	out = accumulateLines(lines, 30)
	assert.Greater(t, len(out), 10)
	assert.True(t, strings.HasSuffix(out[len(out)-1], "line 49"))
}

func TestOverlapTail(t *testing.T) {
	assert.Equal(t, "Two is here. Three ends.", overlapTail("One. Two is here. Three ends.", 100))
	assert.Equal(t, "", overlapTail("anything", 0))
	assert.Equal(t, "lazy dog", wordTail("the quick brown fox jumps over the lazy dog", 10))
	assert.Equal(t, "short", wordTail("short", 10))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		elements []domain.Element
		expected domain.ChunkStrategy
	}{
		{"empty", nil, domain.ChunkSemantic},
		{"prose", narrative("Holiday policy applies to all staff.", "Ask your manager."), domain.ChunkSemantic},
		{"headings", []domain.Element{{Text: "# Title\n\nBody text.\n\n## Part\n\nMore."}}, domain.ChunkMarkdown},
		{"fenced only", []domain.Element{{Text: "Example:\n```\nls -la\n```"}}, domain.ChunkCode},
		{"fences with headings", []domain.Element{{Text: "# Setup\n\n```sh\nmake\n```\n\nDone."}}, domain.ChunkMarkdown},
		{"code elements", []domain.Element{{Text: "x = 1", Type: domain.ElementCode}}, domain.ChunkCode},
		{"code tokens", []domain.Element{{Text: goSource}}, domain.ChunkCode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Detect(tc.elements))
		})
	}
}
