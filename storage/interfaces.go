package storage

import (
	"context"

	"github.com/poiesic/probe/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// DatasetRepository provides operations for managing datasets.
type DatasetRepository interface {
	Repository
	// AddDatasets stores new datasets, assigning IDs from a sequence.
	AddDatasets(ctx context.Context, datasets ...*core.Dataset) ([]*core.Dataset, error)

	// UpdateDatasets updates existing datasets.
	// Returns ErrNotFound if any dataset doesn't exist.
	UpdateDatasets(ctx context.Context, datasets ...*core.Dataset) ([]*core.Dataset, error)

	// DeleteDatasets removes datasets by their IDs.
	DeleteDatasets(ctx context.Context, ids ...core.ID) error

	// GetDataset retrieves a dataset by ID.
	// Returns ErrNotFound if the dataset doesn't exist.
	GetDataset(ctx context.Context, id core.ID) (*core.Dataset, error)

	// FindDatasetByName finds a tenant's dataset by name.
	// Returns ErrNotFound if no dataset matches.
	FindDatasetByName(ctx context.Context, tenantID, name string) (*core.Dataset, error)

	// ListDatasets returns every dataset ordered by ID.
	ListDatasets(ctx context.Context) ([]*core.Dataset, error)
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository
	// AddDocuments stores new documents, assigning IDs from a sequence.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentsByDataset returns the documents of a dataset ordered by ID.
	GetDocumentsByDataset(ctx context.Context, datasetID core.ID) ([]*core.Document, error)

	// CountAvailableDocuments counts enabled, unarchived, completed documents.
	CountAvailableDocuments(ctx context.Context, datasetID core.ID) (int, error)
}

// SegmentRepository provides operations for managing segments and searching them.
type SegmentRepository interface {
	Repository
	// AddSegments stores new segments, assigning IDs from a sequence.
	// Index node IDs must be unique within a dataset; a clash returns ErrDuplicateKey.
	AddSegments(ctx context.Context, segments ...*core.Segment) ([]*core.Segment, error)

	// UpdateSegments updates existing segments and their term index entries.
	// Returns ErrNotFound if any segment doesn't exist.
	UpdateSegments(ctx context.Context, segments ...*core.Segment) ([]*core.Segment, error)

	// DeleteSegments removes segments and their index entries.
	// Returns ErrNotFound if any segment doesn't exist.
	DeleteSegments(ctx context.Context, ids ...core.ID) error

	// GetSegment retrieves a segment by ID.
	// Returns ErrNotFound if the segment doesn't exist.
	GetSegment(ctx context.Context, id core.ID) (*core.Segment, error)

	// GetSegments retrieves multiple segments, skipping missing IDs.
	GetSegments(ctx context.Context, ids ...core.ID) ([]*core.Segment, error)

	// GetSegmentByIndexNode looks up a segment by its index node ID.
	// Returns ErrNotFound if no segment has that node ID.
	GetSegmentByIndexNode(ctx context.Context, datasetID core.ID, nodeID string) (*core.Segment, error)

	// FindAvailableByIndexNode looks up an available segment by index node ID.
	// Returns nil, nil when the segment is missing, disabled, or not completed.
	FindAvailableByIndexNode(ctx context.Context, datasetID core.ID, nodeID string) (*core.Segment, error)

	// GetSegmentsByDocument returns a document's segments ordered by position.
	GetSegmentsByDocument(ctx context.Context, documentID core.ID) ([]*core.Segment, error)

	// GetSegmentsByDataset returns a dataset's segments ordered by ID.
	GetSegmentsByDataset(ctx context.Context, datasetID core.ID) ([]*core.Segment, error)

	// MaxPosition returns the highest segment position of a document, or 0 if it has none.
	MaxPosition(ctx context.Context, documentID core.ID) (int, error)

	// CountAvailableSegments counts enabled, completed segments of a dataset.
	CountAvailableSegments(ctx context.Context, datasetID core.ID) (int, error)

	// FindSimilar finds available segments similar to the given vector.
	// Returns segments with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, datasetID core.ID, vector []float32, minSimilarity float32, limit int) ([]*core.SegmentMatch, error)

	// FindByTerms finds available segments containing any of the terms.
	// Score is the fraction of distinct terms a segment contains; ties favor
	// higher total term frequency. Results are ordered by score, highest first.
	FindByTerms(ctx context.Context, datasetID core.ID, terms []string, limit int) ([]*core.SegmentMatch, error)
}

// QueryLogRepository records queries issued against datasets.
type QueryLogRepository interface {
	Repository
	// AddQueryLog appends an entry, assigning its ID and InsertedAt.
	AddQueryLog(ctx context.Context, entry *core.QueryLogEntry) (*core.QueryLogEntry, error)

	// GetQueryLogs returns a dataset's most recent entries, newest first.
	GetQueryLogs(ctx context.Context, datasetID core.ID, limit int) ([]*core.QueryLogEntry, error)
}
