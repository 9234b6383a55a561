package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrSegmentRepositoryRequired is returned when a segment repository is not provided.
	ErrSegmentRepositoryRequired = errors.New("segment repository required")

	// ErrModelManagerRequired is returned when a model manager is not provided.
	ErrModelManagerRequired = errors.New("model manager required")

	// ErrUnsupportedFormat is returned by LoadFile for file types it cannot read.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoText is returned when a source yields no text to index.
	ErrNoText = errors.New("no text to index")
)
