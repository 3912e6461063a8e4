package vector

import (
	"sort"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// SortHits orders hits by descending similarity, breaking ties by
// ascending position and then chunk ID so the order is stable.
func SortHits(hits []driven.VectorHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].Position != hits[j].Position {
			return hits[i].Position < hits[j].Position
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
}

// Limit truncates hits to at most n entries. n <= 0 keeps all.
func Limit(hits []driven.VectorHit, n int) []driven.VectorHit {
	if n > 0 && len(hits) > n {
		return hits[:n]
	}
	return hits
}

// MatchesDocument reports whether id passes a document filter.
func MatchesDocument(ids []string, id string) bool {
	if len(ids) == 0 {
		return true
	}
	for _, want := range ids {
		if want == id {
			return true
		}
	}
	return false
}
