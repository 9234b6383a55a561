package badger

import (
	"cmp"
	"context"
	"encoding/binary"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage"
)

// SegmentRepository implements storage.SegmentRepository for BadgerDB.
//
// Besides the primary record, each segment is indexed by dataset, by document,
// by index node ID, and by the terms of its content. The term index backs
// full-text search.
type SegmentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.SegmentRepository = (*SegmentRepository)(nil)

// NewSegmentRepository creates a new SegmentRepository.
func NewSegmentRepository(backend *Backend) (*SegmentRepository, error) {
	idSeq, err := backend.GetSequence(segmentIDSeq)
	if err != nil {
		return nil, err
	}

	return &SegmentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *SegmentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *SegmentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddSegments stores new segments and indexes them.
func (r *SegmentRepository) AddSegments(ctx context.Context, segments ...*core.Segment) ([]*core.Segment, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, segment := range segments {
			if err := core.ValidateSegment(segment); err != nil {
				return err
			}

			nodeKey := makeSegmentNodeKey(segment.DatasetID, segment.IndexNodeID)
			if _, err := tx.Get(nodeKey); err == nil {
				return storage.ErrDuplicateKey
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			segment.Id = id
			segment.InsertedAt = time.Now().UTC()
			segment.UpdatedAt = segment.InsertedAt

			if err := tx.Set(makeSegmentKey(segment.Id), storage.MarshalSegment(segment)); err != nil {
				return err
			}
			if err := r.writeIndexes(tx, segment); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return segments, err
}

// UpdateSegments updates existing segments, rewriting index entries whose inputs changed.
func (r *SegmentRepository) UpdateSegments(ctx context.Context, segments ...*core.Segment) ([]*core.Segment, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, segment := range segments {
			key := makeSegmentKey(segment.Id)
			old, err := readRecord(tx, key, storage.UnmarshalSegment)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			segment.InsertedAt = old.InsertedAt
			segment.UpdatedAt = time.Now().UTC()
			if err := tx.Set(key, storage.MarshalSegment(segment)); err != nil {
				return err
			}

			if indexesChanged(old, segment) {
				if err := r.deleteIndexes(tx, old); err != nil {
					return err
				}
				if err := r.writeIndexes(tx, segment); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return segments, err
}

// DeleteSegments removes segments and their index entries.
func (r *SegmentRepository) DeleteSegments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeSegmentKey(id)
			segment, err := readRecord(tx, key, storage.UnmarshalSegment)
			if err != nil {
				return err
			}
			if segment == nil {
				return storage.ErrNotFound
			}
			if err := r.deleteIndexes(tx, segment); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetSegment retrieves a segment by ID.
func (r *SegmentRepository) GetSegment(ctx context.Context, id core.ID) (*core.Segment, error) {
	var result *core.Segment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeSegmentKey(id), storage.UnmarshalSegment)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetSegments retrieves multiple segments by their IDs.
func (r *SegmentRepository) GetSegments(ctx context.Context, ids ...core.ID) ([]*core.Segment, error) {
	var results []*core.Segment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = readSegments(tx, ids)
		return err
	}, false)
	return results, err
}

// GetSegmentByIndexNode looks up a segment by its index node ID.
func (r *SegmentRepository) GetSegmentByIndexNode(ctx context.Context, datasetID core.ID, nodeID string) (*core.Segment, error) {
	var result *core.Segment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readSegmentByNode(tx, datasetID, nodeID)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindAvailableByIndexNode looks up an enabled, completed segment by index node ID.
func (r *SegmentRepository) FindAvailableByIndexNode(ctx context.Context, datasetID core.ID, nodeID string) (*core.Segment, error) {
	var result *core.Segment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		segment, err := readSegmentByNode(tx, datasetID, nodeID)
		if err != nil {
			return err
		}
		if segment != nil && segment.Available() {
			result = segment
		}
		return nil
	}, false)
	return result, err
}

// GetSegmentsByDocument returns a document's segments ordered by position.
func (r *SegmentRepository) GetSegmentsByDocument(ctx context.Context, documentID core.ID) ([]*core.Segment, error) {
	var results []*core.Segment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := scanIDs(tx, makeParentPrefix(segmentDocPrefix, documentID))
		if err != nil {
			return err
		}
		results, err = readSegments(tx, ids)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b *core.Segment) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return results, nil
}

// GetSegmentsByDataset returns a dataset's segments ordered by ID.
func (r *SegmentRepository) GetSegmentsByDataset(ctx context.Context, datasetID core.ID) ([]*core.Segment, error) {
	var results []*core.Segment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = readDatasetSegments(tx, datasetID)
		return err
	}, false)
	return results, err
}

// MaxPosition returns the highest segment position of a document, or 0 if it has none.
func (r *SegmentRepository) MaxPosition(ctx context.Context, documentID core.ID) (int, error) {
	segments, err := r.GetSegmentsByDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if len(segments) == 0 {
		return 0, nil
	}
	return segments[len(segments)-1].Position, nil
}

// CountAvailableSegments counts enabled, completed segments of a dataset.
func (r *SegmentRepository) CountAvailableSegments(ctx context.Context, datasetID core.ID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		segments, err := readDatasetSegments(tx, datasetID)
		if err != nil {
			return err
		}
		for _, segment := range segments {
			if segment.Available() {
				count++
			}
		}
		return nil
	}, false)
	return count, err
}

// FindSimilar finds available segments of a dataset similar to the given vector.
// Vectors are expected to be normalized, so the dot product is the cosine similarity.
func (r *SegmentRepository) FindSimilar(ctx context.Context, datasetID core.ID, vector []float32, minSimilarity float32, limit int) ([]*core.SegmentMatch, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.SegmentMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		segments, err := readDatasetSegments(tx, datasetID)
		if err != nil {
			return err
		}

		for _, segment := range segments {
			// Skip unavailable segments and those without embeddings
			if !segment.Available() || len(segment.Vector) == 0 {
				continue
			}

			similarity := dotProduct(vector, segment.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.SegmentMatch{
					Segment: segment,
					Score:   similarity,
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortMatches(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FindByTerms finds available segments containing any of the terms.
func (r *SegmentRepository) FindByTerms(ctx context.Context, datasetID core.ID, terms []string, limit int) ([]*core.SegmentMatch, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	distinct := slices.Compact(slices.Sorted(slices.Values(terms)))
	if len(distinct) == 0 {
		return nil, nil
	}

	type posting struct {
		matched   int
		frequency uint64
	}

	var results []*core.SegmentMatch
	frequencies := make(map[*core.SegmentMatch]uint64)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		postings := make(map[core.ID]*posting)
		for _, term := range distinct {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeTermPrefix(datasetID, term)
			iter := tx.NewIterator(opts)

			for iter.Rewind(); iter.Valid(); iter.Next() {
				item := iter.Item()
				id := segmentIDFromTermKey(item.Key())
				var tf uint64
				if err := item.Value(func(val []byte) error {
					tf = binary.BigEndian.Uint64(val)
					return nil
				}); err != nil {
					iter.Close()
					return err
				}

				p, ok := postings[id]
				if !ok {
					p = &posting{}
					postings[id] = p
				}
				p.matched++
				p.frequency += tf
			}
			iter.Close()
		}

		for id, p := range postings {
			segment, err := readRecord(tx, makeSegmentKey(id), storage.UnmarshalSegment)
			if err != nil {
				return err
			}
			if segment == nil || !segment.Available() {
				continue
			}
			match := &core.SegmentMatch{
				Segment: segment,
				Score:   float32(p.matched) / float32(len(distinct)),
			}
			frequencies[match] = p.frequency
			results = append(results, match)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.SegmentMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(frequencies[b], frequencies[a]); c != 0 {
			return c
		}
		return cmp.Compare(a.Segment.Id, b.Segment.Id)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Helper methods

// writeIndexes adds the dataset, document, node, and term index entries of a segment.
func (r *SegmentRepository) writeIndexes(tx *badger.Txn, segment *core.Segment) error {
	value := storage.MarshalID(segment.Id)
	keys := [][]byte{
		makeIDPairKey(segmentDSPrefix, segment.DatasetID, segment.Id),
		makeIDPairKey(segmentDocPrefix, segment.DocumentID, segment.Id),
		makeSegmentNodeKey(segment.DatasetID, segment.IndexNodeID),
	}
	for _, key := range keys {
		if err := tx.Set(key, value); err != nil {
			return err
		}
	}

	for term, tf := range core.TermFrequencies(segment.Content) {
		buf := binary.BigEndian.AppendUint64(nil, uint64(tf))
		if err := tx.Set(makeTermKey(segment.DatasetID, term, segment.Id), buf); err != nil {
			return err
		}
	}
	return nil
}

// deleteIndexes removes every index entry written by writeIndexes.
func (r *SegmentRepository) deleteIndexes(tx *badger.Txn, segment *core.Segment) error {
	keys := [][]byte{
		makeIDPairKey(segmentDSPrefix, segment.DatasetID, segment.Id),
		makeIDPairKey(segmentDocPrefix, segment.DocumentID, segment.Id),
		makeSegmentNodeKey(segment.DatasetID, segment.IndexNodeID),
	}
	for term := range core.TermFrequencies(segment.Content) {
		keys = append(keys, makeTermKey(segment.DatasetID, term, segment.Id))
	}
	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// indexesChanged reports whether any indexed field differs.
func indexesChanged(old, updated *core.Segment) bool {
	return old.DatasetID != updated.DatasetID ||
		old.DocumentID != updated.DocumentID ||
		old.IndexNodeID != updated.IndexNodeID ||
		old.Content != updated.Content
}

func readSegments(tx *badger.Txn, ids []core.ID) ([]*core.Segment, error) {
	segments := make([]*core.Segment, 0, len(ids))
	for _, id := range ids {
		segment, err := readRecord(tx, makeSegmentKey(id), storage.UnmarshalSegment)
		if err != nil {
			return nil, err
		}
		if segment != nil {
			segments = append(segments, segment)
		}
	}
	return segments, nil
}

func readDatasetSegments(tx *badger.Txn, datasetID core.ID) ([]*core.Segment, error) {
	ids, err := scanIDs(tx, makeParentPrefix(segmentDSPrefix, datasetID))
	if err != nil {
		return nil, err
	}
	return readSegments(tx, ids)
}

func readSegmentByNode(tx *badger.Txn, datasetID core.ID, nodeID string) (*core.Segment, error) {
	item, err := tx.Get(makeSegmentNodeKey(datasetID, nodeID))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var id core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}
	return readRecord(tx, makeSegmentKey(id), storage.UnmarshalSegment)
}

// sortMatches orders matches by score, highest first.
func sortMatches(matches []*core.SegmentMatch) {
	slices.SortFunc(matches, func(a, b *core.SegmentMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
}
