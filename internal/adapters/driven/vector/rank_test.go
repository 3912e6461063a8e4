package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func TestSortHits_TiesBrokenByPosition(t *testing.T) {
	hits := []driven.VectorHit{
		{ChunkID: "c", Position: 2, Similarity: 0.5},
		{ChunkID: "a", Position: 0, Similarity: 0.9},
		{ChunkID: "b", Position: 1, Similarity: 0.5},
	}

	SortHits(hits)

	assert.Equal(t, []string{"a", "b", "c"}, []string{hits[0].ChunkID, hits[1].ChunkID, hits[2].ChunkID})
}

func TestLimit(t *testing.T) {
	hits := make([]driven.VectorHit, 5)
	assert.Len(t, Limit(hits, 3), 3)
	assert.Len(t, Limit(hits, 0), 5)
	assert.Len(t, Limit(hits, 10), 5)
}

func TestMatchesDocument(t *testing.T) {
	assert.True(t, MatchesDocument(nil, "doc-1"))
	assert.True(t, MatchesDocument([]string{"doc-1", "doc-2"}, "doc-2"))
	assert.False(t, MatchesDocument([]string{"doc-1"}, "doc-3"))
}
