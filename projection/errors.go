package projection

import "errors"

var (
	// ErrSegmentRepositoryRequired is returned when a segment repository is not provided.
	ErrSegmentRepositoryRequired = errors.New("segment repository required")

	// ErrDimensionMismatch is returned when vectors to be projected differ in length.
	ErrDimensionMismatch = errors.New("vectors have different dimensions")

	// ErrEmbeddingCount is returned when an embedder returns the wrong number of vectors.
	ErrEmbeddingCount = errors.New("embedding count does not match input count")
)
