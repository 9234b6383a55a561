package badger

import (
	"context"
	"testing"

	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepositories(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func TestDatasetRepository(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	added, err := repos.Datasets.AddDatasets(ctx,
		&core.Dataset{TenantID: "t1", Name: "handbook", IndexingTechnique: core.IndexingEconomy},
		&core.Dataset{TenantID: "t1", Name: "faq", IndexingTechnique: core.IndexingEconomy},
	)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.NotZero(t, added[0].Id)
	assert.False(t, added[0].InsertedAt.IsZero())

	t.Run("get by id", func(t *testing.T) {
		got, err := repos.Datasets.GetDataset(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Equal(t, "handbook", got.Name)
	})

	t.Run("find by name", func(t *testing.T) {
		got, err := repos.Datasets.FindDatasetByName(ctx, "t1", "faq")
		require.NoError(t, err)
		assert.Equal(t, added[1].Id, got.Id)

		_, err = repos.Datasets.FindDatasetByName(ctx, "t2", "faq")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := repos.Datasets.AddDatasets(ctx, &core.Dataset{TenantID: "t1", Name: "faq"})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("update saves retrieval config and renames", func(t *testing.T) {
		ds := added[0]
		ds.Name = "manual"
		ds.RetrievalConfig = &core.RetrievalConfig{SearchMethod: core.SearchMethodFullText, TopK: 3}
		_, err := repos.Datasets.UpdateDatasets(ctx, ds)
		require.NoError(t, err)

		got, err := repos.Datasets.FindDatasetByName(ctx, "t1", "manual")
		require.NoError(t, err)
		require.NotNil(t, got.RetrievalConfig)
		assert.Equal(t, 3, got.RetrievalConfig.TopK)

		_, err = repos.Datasets.FindDatasetByName(ctx, "t1", "handbook")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("list ordered by id", func(t *testing.T) {
		list, err := repos.Datasets.ListDatasets(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Less(t, list[0].Id, list[1].Id)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repos.Datasets.DeleteDatasets(ctx, added[1].Id))
		_, err := repos.Datasets.GetDataset(ctx, added[1].Id)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, repos.Datasets.DeleteDatasets(ctx, added[1].Id), storage.ErrNotFound)
	})
}

func TestDocumentRepository(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	docs, err := repos.Documents.AddDocuments(ctx,
		&core.Document{DatasetID: 1, Name: "a.md", Enabled: true, IndexingStatus: core.StatusCompleted},
		&core.Document{DatasetID: 1, Name: "b.md", Enabled: true, IndexingStatus: core.StatusIndexing},
		&core.Document{DatasetID: 1, Name: "c.md", Enabled: true, Archived: true, IndexingStatus: core.StatusCompleted},
		&core.Document{DatasetID: 2, Name: "d.md", Enabled: true, IndexingStatus: core.StatusCompleted},
	)
	require.NoError(t, err)

	byDataset, err := repos.Documents.GetDocumentsByDataset(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byDataset, 3)
	assert.Equal(t, "a.md", byDataset[0].Name)

	count, err := repos.Documents.CountAvailableDocuments(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	docs[1].IndexingStatus = core.StatusCompleted
	_, err = repos.Documents.UpdateDocuments(ctx, docs[1])
	require.NoError(t, err)

	count, err = repos.Documents.CountAvailableDocuments(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = repos.Documents.UpdateDocuments(ctx, &core.Document{Id: 999})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, repos.Documents.DeleteDocuments(ctx, docs[0].Id))
	_, err = repos.Documents.GetDocument(ctx, docs[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
