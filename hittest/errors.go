package hittest

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrSegmentRepositoryRequired is returned when a segment repository is not provided.
	ErrSegmentRepositoryRequired = errors.New("segment repository required")

	// ErrQueryLogRepositoryRequired is returned when a query log repository is not provided.
	ErrQueryLogRepositoryRequired = errors.New("query log repository required")

	// ErrModelManagerRequired is returned when a model manager is not provided.
	ErrModelManagerRequired = errors.New("model manager required")

	// ErrDatasetRequired is returned when Retrieve is called without a dataset.
	ErrDatasetRequired = errors.New("dataset required")

	// ErrAccountRequired is returned when Retrieve is called without an account.
	ErrAccountRequired = errors.New("account required")
)
