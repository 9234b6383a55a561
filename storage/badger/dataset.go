package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage"
)

// DatasetRepository implements storage.DatasetRepository for BadgerDB.
type DatasetRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DatasetRepository = (*DatasetRepository)(nil)

// NewDatasetRepository creates a new DatasetRepository.
func NewDatasetRepository(backend *Backend) (*DatasetRepository, error) {
	idSeq, err := backend.GetSequence(datasetIDSeq)
	if err != nil {
		return nil, err
	}

	return &DatasetRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DatasetRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DatasetRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDatasets stores new datasets.
// Returns storage.ErrDuplicateKey if a tenant already has a dataset with the same name.
func (r *DatasetRepository) AddDatasets(ctx context.Context, datasets ...*core.Dataset) ([]*core.Dataset, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, dataset := range datasets {
			nameKey := makeDatasetNameKey(dataset.TenantID, dataset.Name)
			if _, err := tx.Get(nameKey); err == nil {
				return storage.ErrDuplicateKey
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			id, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			dataset.Id = id
			dataset.InsertedAt = time.Now().UTC()
			dataset.UpdatedAt = dataset.InsertedAt

			if err := tx.Set(makeDatasetKey(dataset.Id), storage.MarshalDataset(dataset)); err != nil {
				return err
			}
			if err := tx.Set(nameKey, storage.MarshalID(dataset.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return datasets, err
}

// UpdateDatasets updates existing datasets.
func (r *DatasetRepository) UpdateDatasets(ctx context.Context, datasets ...*core.Dataset) ([]*core.Dataset, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, dataset := range datasets {
			key := makeDatasetKey(dataset.Id)
			old, err := readRecord(tx, key, storage.UnmarshalDataset)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			dataset.InsertedAt = old.InsertedAt
			dataset.UpdatedAt = time.Now().UTC()
			if err := tx.Set(key, storage.MarshalDataset(dataset)); err != nil {
				return err
			}

			// Rename moves the name index entry
			if old.TenantID != dataset.TenantID || old.Name != dataset.Name {
				if err := tx.Delete(makeDatasetNameKey(old.TenantID, old.Name)); err != nil {
					return err
				}
				if err := tx.Set(makeDatasetNameKey(dataset.TenantID, dataset.Name), storage.MarshalID(dataset.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return datasets, err
}

// DeleteDatasets removes datasets by their IDs.
// Documents and segments belonging to the dataset are not removed.
func (r *DatasetRepository) DeleteDatasets(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDatasetKey(id)
			dataset, err := readRecord(tx, key, storage.UnmarshalDataset)
			if err != nil {
				return err
			}
			if dataset == nil {
				return storage.ErrNotFound
			}
			if err := tx.Delete(makeDatasetNameKey(dataset.TenantID, dataset.Name)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDataset retrieves a dataset by ID.
func (r *DatasetRepository) GetDataset(ctx context.Context, id core.ID) (*core.Dataset, error) {
	var result *core.Dataset
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeDatasetKey(id), storage.UnmarshalDataset)
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

// FindDatasetByName finds a tenant's dataset by name.
func (r *DatasetRepository) FindDatasetByName(ctx context.Context, tenantID, name string) (*core.Dataset, error) {
	var result *core.Dataset
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDatasetNameKey(tenantID, name))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readRecord(tx, makeDatasetKey(id), storage.UnmarshalDataset)
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

// ListDatasets returns every dataset.
// Keys are decimal, so iteration order is not numeric; results are sorted by ID.
func (r *DatasetRepository) ListDatasets(ctx context.Context) ([]*core.Dataset, error) {
	var results []*core.Dataset
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(datasetPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var dataset *core.Dataset
			err := iter.Item().Value(func(val []byte) error {
				var err error
				dataset, err = storage.UnmarshalDataset(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, dataset)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortByID(results, func(d *core.Dataset) core.ID { return d.Id })
	return results, nil
}
