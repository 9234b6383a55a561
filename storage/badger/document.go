package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments stores new documents.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			doc.Id = id
			doc.InsertedAt = time.Now().UTC()
			doc.UpdatedAt = doc.InsertedAt

			if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
				return err
			}
			indexKey := makeIDPairKey(documentDSPrefix, doc.DatasetID, doc.Id)
			if err := tx.Set(indexKey, storage.MarshalID(doc.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// UpdateDocuments updates existing documents.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			key := makeDocumentKey(doc.Id)
			old, err := readRecord(tx, key, storage.UnmarshalDocument)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			doc.InsertedAt = old.InsertedAt
			doc.UpdatedAt = time.Now().UTC()
			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}

			if old.DatasetID != doc.DatasetID {
				if err := tx.Delete(makeIDPairKey(documentDSPrefix, old.DatasetID, old.Id)); err != nil {
					return err
				}
				if err := tx.Set(makeIDPairKey(documentDSPrefix, doc.DatasetID, doc.Id), storage.MarshalID(doc.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)
			doc, err := readRecord(tx, key, storage.UnmarshalDocument)
			if err != nil {
				return err
			}
			if doc == nil {
				return storage.ErrNotFound
			}
			if err := tx.Delete(makeIDPairKey(documentDSPrefix, doc.DatasetID, doc.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeDocumentKey(id), storage.UnmarshalDocument)
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

// GetDocumentsByDataset returns the documents of a dataset ordered by ID.
func (r *DocumentRepository) GetDocumentsByDataset(ctx context.Context, datasetID core.ID) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = r.readDatasetDocuments(tx, datasetID)
		return err
	}, false)
	return results, err
}

// CountAvailableDocuments counts enabled, unarchived, completed documents of a dataset.
func (r *DocumentRepository) CountAvailableDocuments(ctx context.Context, datasetID core.ID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		docs, err := r.readDatasetDocuments(tx, datasetID)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if doc.Available() {
				count++
			}
		}
		return nil
	}, false)
	return count, err
}

// readDatasetDocuments walks the dataset index. Keys end in big-endian IDs,
// so results come back in ID order.
func (r *DocumentRepository) readDatasetDocuments(tx *badger.Txn, datasetID core.ID) ([]*core.Document, error) {
	ids, err := scanIDs(tx, makeParentPrefix(documentDSPrefix, datasetID))
	if err != nil {
		return nil, err
	}

	docs := make([]*core.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := readRecord(tx, makeDocumentKey(id), storage.UnmarshalDocument)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
