package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates a file type no extraction method handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptyContent indicates extraction produced no usable text.
	ErrEmptyContent = errors.New("no extractable content")

	// ErrExtractionFailed indicates every extraction method failed.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmbeddingUnavailable indicates no embedding provider could serve the request.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store did not answer its probe.
	// Ingestion continues with placeholder vectors.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrDimensionMismatch indicates vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidTransition indicates a processing state change that would regress a run.
	ErrInvalidTransition = errors.New("invalid processing state transition")

	// ErrProcessing indicates the document is mid-run and cannot be changed.
	ErrProcessing = errors.New("document is being processed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
