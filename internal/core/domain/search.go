package domain

import (
	"math"
	"strconv"
)

// SearchOptions configures a retrieval request.
type SearchOptions struct {
	// Scope restricts the search to documents uploaded into this scope.
	Scope string

	// Limit caps the number of results.
	Limit int

	// MinScore overrides the relevance floor when positive.
	MinScore float64
}

// RankedChunk is a chunk scored against a query.
type RankedChunk struct {
	// Document is the chunk's parent document.
	Document *Document

	// Chunk is the matched chunk.
	Chunk *Chunk

	// Score is the cosine similarity to the query vector.
	Score float64
}

// VectorRecord is a chunk embedding as stored in the vector store.
type VectorRecord struct {
	// ChunkID identifies the chunk this vector represents.
	ChunkID string

	// DocumentID links to the chunk's document.
	DocumentID string

	// Scope is copied from the document for filtered search.
	Scope string

	// Position is the chunk's ordinal within its document.
	Position int

	// Embedding is the vector. Its length is the provider dimension.
	Embedding []float32
}

// Dimensions returns the vector length.
func (r VectorRecord) Dimensions() int {
	return len(r.Embedding)
}

// VectorFilter narrows a vector search.
type VectorFilter struct {
	// Scope keeps only records in this scope. Empty matches all.
	Scope string

	// DocumentIDs keeps only records for these documents. Empty matches all.
	DocumentIDs []string
}

// EmbeddingIdentity names the provider, model and dimension that produced a vector.
type EmbeddingIdentity struct {
	Provider   AIProvider
	Model      string
	Dimensions int
}

// IsZero reports whether no embedding was recorded.
func (e EmbeddingIdentity) IsZero() bool {
	return e.Provider == "" && e.Dimensions == 0
}

// Matches reports whether vectors from both identities are comparable.
func (e EmbeddingIdentity) Matches(other EmbeddingIdentity) bool {
	return e.Provider == other.Provider && e.Model == other.Model && e.Dimensions == other.Dimensions
}

// String returns "provider/model@dims".
func (e EmbeddingIdentity) String() string {
	if e.IsZero() {
		return "none"
	}
	return string(e.Provider) + "/" + e.Model + "@" + strconv.Itoa(e.Dimensions)
}

// CollectionName returns the vector collection for one embedding dimension.
// Vectors of different lengths never share a collection.
func CollectionName(base string, dimensions int) string {
	return base + "_" + strconv.Itoa(dimensions)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different lengths are not comparable and return ErrDimensionMismatch.
// A zero vector scores 0 against everything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// IsPlaceholder reports whether v is an empty or all-zero vector.
// Chunks stored while the vector store was down carry placeholders.
func IsPlaceholder(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
