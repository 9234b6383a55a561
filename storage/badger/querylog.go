package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage"
)

// QueryLogRepository implements storage.QueryLogRepository for BadgerDB.
// Entries are keyed by dataset then ID, so a reverse scan yields newest first.
type QueryLogRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.QueryLogRepository = (*QueryLogRepository)(nil)

// NewQueryLogRepository creates a new QueryLogRepository.
func NewQueryLogRepository(backend *Backend) (*QueryLogRepository, error) {
	idSeq, err := backend.GetSequence(queryLogIDSeq)
	if err != nil {
		return nil, err
	}

	return &QueryLogRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *QueryLogRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *QueryLogRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddQueryLog appends an entry to the log.
func (r *QueryLogRepository) AddQueryLog(ctx context.Context, entry *core.QueryLogEntry) (*core.QueryLogEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		entry.Id = id
		entry.InsertedAt = time.Now().UTC()

		key := makeIDPairKey(queryLogPrefix, entry.DatasetID, entry.Id)
		if err := tx.Set(key, storage.MarshalQueryLog(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetQueryLogs returns up to limit of a dataset's most recent entries, newest first.
// A limit <= 0 returns every entry.
func (r *QueryLogRepository) GetQueryLogs(ctx context.Context, datasetID core.ID, limit int) ([]*core.QueryLogEntry, error) {
	var results []*core.QueryLogEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeParentPrefix(queryLogPrefix, datasetID)

		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible key with this prefix
		seekKey := append(append([]byte{}, prefix...), 0xff)
		for iter.Seek(seekKey); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}

			var entry *core.QueryLogEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalQueryLog(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, entry)
		}
		return nil
	}, false)
	return results, err
}
