// Package docstore exposes a dataset's segments as a document store keyed by
// index node ID, the shape index builders read and write.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage"
)

var (
	// ErrDocumentExists is returned by AddDocuments when a node exists and updates are not allowed.
	ErrDocumentExists = errors.New("document already exists")

	// ErrDocumentNotFound is returned when a node ID has no segment.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDatasetRequired is returned when a store is created without a dataset.
	ErrDatasetRequired = errors.New("dataset required")

	// ErrSegmentRepositoryRequired is returned when a segment repository is not provided.
	ErrSegmentRepositoryRequired = errors.New("segment repository required")
)

// Store reads and writes the segments of one dataset. New segments are
// attached to the store's document.
type Store struct {
	dataset    *core.Dataset
	userID     string
	documentID core.ID
	segments   storage.SegmentRepository
	counter    ai.TokenCounter
	logger     *slog.Logger
}

// NewStore creates a store over dataset's segments. counter prices segment
// tokens for high quality datasets and may be nil otherwise.
func NewStore(dataset *core.Dataset, userID string, documentID core.ID, segments storage.SegmentRepository, counter ai.TokenCounter) (*Store, error) {
	if dataset == nil {
		return nil, ErrDatasetRequired
	}
	if segments == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	return &Store{
		dataset:    dataset,
		userID:     userID,
		documentID: documentID,
		segments:   segments,
		counter:    counter,
		logger:     slog.Default().With("component", "docstore", "dataset", dataset.Id),
	}, nil
}

// DatasetID returns the ID of the store's dataset.
func (s *Store) DatasetID() core.ID {
	return s.dataset.Id
}

// UserID returns the user recorded as creator of new segments.
func (s *Store) UserID() string {
	return s.userID
}

// Docs returns every segment of the dataset keyed by index node ID.
func (s *Store) Docs(ctx context.Context) (map[string]core.IndexNode, error) {
	segments, err := s.segments.GetSegmentsByDataset(ctx, s.dataset.Id)
	if err != nil {
		return nil, err
	}
	docs := make(map[string]core.IndexNode, len(segments))
	for _, segment := range segments {
		docs[segment.IndexNodeID] = indexNode(segment)
	}
	return docs, nil
}

// AddDocuments stores nodes as segments of the store's document and returns
// the segments written.
//
// A node without a segment becomes a new disabled segment, positioned after
// the document's last one and waiting to be indexed. A node with a segment
// replaces its content, hash, counts and (when given) answer, unless
// allowUpdate is false, in which case ErrDocumentExists is returned.
func (s *Store) AddDocuments(ctx context.Context, nodes []core.IndexNode, allowUpdate bool) ([]*core.Segment, error) {
	maxPosition, err := s.segments.MaxPosition(ctx, s.documentID)
	if err != nil {
		return nil, err
	}

	written := make([]*core.Segment, 0, len(nodes))
	for _, node := range nodes {
		segment, err := s.GetDocumentSegment(ctx, node.DocID)
		if err != nil {
			return written, err
		}
		if segment != nil && !allowUpdate {
			return written, fmt.Errorf("%w: doc_id %s, allow updates to overwrite", ErrDocumentExists, node.DocID)
		}

		tokens := s.countTokens(node.Content)

		if segment == nil {
			maxPosition++
			segment = &core.Segment{
				TenantID:      s.dataset.TenantID,
				DatasetID:     s.dataset.Id,
				DocumentID:    s.documentID,
				IndexNodeID:   node.DocID,
				IndexNodeHash: node.DocHash,
				Position:      maxPosition,
				Content:       node.Content,
				Answer:        node.Answer,
				WordCount:     utf8.RuneCountInString(node.Content),
				Tokens:        tokens,
				Enabled:       false,
				Status:        core.StatusWaiting,
				CreatedBy:     s.userID,
			}
			added, err := s.segments.AddSegments(ctx, segment)
			if err != nil {
				return written, err
			}
			written = append(written, added...)
			continue
		}

		segment.Content = node.Content
		if node.Answer != "" {
			segment.Answer = node.Answer
		}
		segment.IndexNodeHash = node.DocHash
		segment.WordCount = utf8.RuneCountInString(node.Content)
		segment.Tokens = tokens
		updated, err := s.segments.UpdateSegments(ctx, segment)
		if err != nil {
			return written, err
		}
		written = append(written, updated...)
	}

	s.logger.Debug("added documents", "document", s.documentID, "count", len(written))
	return written, nil
}

func (s *Store) countTokens(content string) int {
	if s.dataset.IndexingTechnique != core.IndexingHighQuality || s.counter == nil {
		return 0
	}
	return s.counter.CountTokens(s.dataset.EmbeddingModel, content)
}

// DocumentExists reports whether docID has a segment.
func (s *Store) DocumentExists(ctx context.Context, docID string) (bool, error) {
	segment, err := s.GetDocumentSegment(ctx, docID)
	return segment != nil, err
}

// GetDocument returns the node stored under docID. A missing node is
// ErrDocumentNotFound when raiseError is set, and nil otherwise.
func (s *Store) GetDocument(ctx context.Context, docID string, raiseError bool) (*core.IndexNode, error) {
	segment, err := s.GetDocumentSegment(ctx, docID)
	if err != nil {
		return nil, err
	}
	if segment == nil {
		if raiseError {
			return nil, fmt.Errorf("%w: doc_id %s", ErrDocumentNotFound, docID)
		}
		return nil, nil
	}
	node := indexNode(segment)
	return &node, nil
}

// DeleteDocument removes the segment stored under docID. A missing node is
// ErrDocumentNotFound when raiseError is set, and ignored otherwise.
func (s *Store) DeleteDocument(ctx context.Context, docID string, raiseError bool) error {
	segment, err := s.GetDocumentSegment(ctx, docID)
	if err != nil {
		return err
	}
	if segment == nil {
		if raiseError {
			return fmt.Errorf("%w: doc_id %s", ErrDocumentNotFound, docID)
		}
		return nil
	}
	return s.segments.DeleteSegments(ctx, segment.Id)
}

// SetDocumentHash records hash for docID. Missing nodes are ignored.
func (s *Store) SetDocumentHash(ctx context.Context, docID, hash string) error {
	segment, err := s.GetDocumentSegment(ctx, docID)
	if err != nil || segment == nil {
		return err
	}
	segment.IndexNodeHash = hash
	_, err = s.segments.UpdateSegments(ctx, segment)
	return err
}

// GetDocumentHash returns the stored hash for docID and whether the node exists.
func (s *Store) GetDocumentHash(ctx context.Context, docID string) (string, bool, error) {
	segment, err := s.GetDocumentSegment(ctx, docID)
	if err != nil || segment == nil {
		return "", false, err
	}
	return segment.IndexNodeHash, true, nil
}

// GetDocumentSegment returns the dataset's segment for docID, or nil if there is none.
func (s *Store) GetDocumentSegment(ctx context.Context, docID string) (*core.Segment, error) {
	segment, err := s.segments.GetSegmentByIndexNode(ctx, s.dataset.Id, docID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return segment, err
}

func indexNode(segment *core.Segment) core.IndexNode {
	return core.IndexNode{
		Content:    segment.Content,
		DocID:      segment.IndexNodeID,
		DocHash:    segment.IndexNodeHash,
		DocumentID: segment.DocumentID,
		DatasetID:  segment.DatasetID,
		Answer:     segment.Answer,
	}
}
