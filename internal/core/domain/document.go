package domain

import "time"

// Document is an uploaded file tracked through the ingestion pipeline.
// It is the registry record; chunks and vectors hang off its ID.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the name the file was uploaded with.
	Filename string

	// Size is the raw file size in bytes.
	Size int64

	// MIMEType is the declared type supplied at upload.
	MIMEType string

	// ContentType is resolved once from MIMEType and Filename at ingestion entry.
	ContentType ContentType

	// Scope groups documents that are searched together (a conversation or collection).
	Scope string

	// ChunkCount equals the number of live chunks for this document.
	ChunkCount int

	// State is the processing state of the current run.
	State ProcessingState

	// LastError carries the reason for a failed run.
	LastError string

	// Revision counts pipeline runs. Reprocessing starts a new revision.
	Revision int

	// Embedding records the provider that actually produced the chunk vectors.
	// Queries against this document must embed with a matching provider.
	Embedding EmbeddingIdentity

	// IndexStatus reports how much of the document reached the vector store.
	IndexStatus IndexStatus

	// FailedBatches counts vector write batches that were skipped.
	FailedBatches int

	// Metadata contains arbitrary key-value pairs (extraction method, strategy).
	Metadata map[string]any

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document record last changed.
	UpdatedAt time.Time
}

// Document metadata keys written by the pipeline.
const (
	MetaExtractionMethod  = "extraction_method"
	MetaChunkStrategy     = "chunk_strategy"
	MetaElementCount      = "element_count"
	MetaRequestedStrategy = "requested_strategy"
)

// Chunk represents a searchable unit within a document.
// Documents are split into chunks for granular search results.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation for semantic search.
	// Empty when the vector store was unavailable at ingestion.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs (see Chunk* keys).
	Metadata map[string]any
}

// Chunk metadata keys.
const (
	ChunkPage        = "page_number"
	ChunkSection     = "section"
	ChunkType        = "element_type"
	ChunkStrategyKey = "strategy"
	ChunkStart       = "start_offset"
	ChunkEnd         = "end_offset"
)

// Clone returns a copy of the document that shares no metadata map with d.
func (d *Document) Clone() *Document {
	out := *d
	if d.Metadata != nil {
		out.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// PageNumber returns the chunk's page, or 0 when unknown.
func (c *Chunk) PageNumber() int {
	return metaInt(c.Metadata, ChunkPage)
}

// Section returns the heading the chunk falls under, if any.
func (c *Chunk) Section() string {
	if c.Metadata == nil {
		return ""
	}
	s, _ := c.Metadata[ChunkSection].(string)
	return s
}

// metaInt reads an integer from metadata that may have been decoded from JSON.
func metaInt(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// IndexStatus describes whether a document's vectors reached the vector store.
type IndexStatus string

// Index statuses.
const (
	// IndexStatusNone means no vectors have been written yet.
	IndexStatusNone IndexStatus = ""

	// IndexStatusIndexed means every batch was written.
	IndexStatusIndexed IndexStatus = "indexed"

	// IndexStatusPartial means at least one batch failed and was skipped.
	IndexStatusPartial IndexStatus = "partial"

	// IndexStatusDegraded means the store was unavailable; chunks carry placeholder vectors.
	IndexStatusDegraded IndexStatus = "degraded"
)

// BatchResult is the outcome of writing one batch of vector records.
type BatchResult struct {
	// Index is the zero-based batch number.
	Index int

	// Size is the number of records in the batch.
	Size int

	// Err is non-nil if the batch was skipped.
	Err error
}

// OK reports whether the batch was written.
func (b BatchResult) OK() bool {
	return b.Err == nil
}

// SummariseBatches derives an IndexStatus and failure count from batch results.
func SummariseBatches(results []BatchResult) (IndexStatus, int) {
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	if failed > 0 {
		return IndexStatusPartial, failed
	}
	return IndexStatusIndexed, 0
}
