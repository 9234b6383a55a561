package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/ai/openai"
	"github.com/poiesic/probe/audio"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T, opts ...DatabaseOption) *Database {
	t.Helper()
	db, err := NewDatabase("", append([]DatabaseOption{WithInMemory()}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify components are initialized
		assert.NotNil(t, db.DatasetRepository())
		assert.NotNil(t, db.DocumentRepository())
		assert.NotNil(t, db.SegmentRepository())
		assert.NotNil(t, db.QueryLogRepository())
		assert.NotNil(t, db.Registry())
		assert.Equal(t, []string{openai.ProviderName}, db.Models().Providers())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a database at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("error with invalid ai config", func(t *testing.T) {
		db, err := NewDatabase("", WithInMemory(), WithAIConfig(ai.NewConfig(ai.WithCacheEntries(0))))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, db)

	assert.NoError(t, db.Close())
}

func TestDatabase_CreateDataset(t *testing.T) {
	db := newTestDatabase(t, WithAIConfig(ai.NewConfig(ai.WithEmbeddingModel("nomic-embed-text"))))
	ctx := context.Background()

	dataset, err := db.CreateDataset(ctx, &core.Dataset{TenantID: "acme", Name: "handbook"})
	require.NoError(t, err)
	assert.NotZero(t, dataset.Id)
	assert.Equal(t, core.IndexingHighQuality, dataset.IndexingTechnique)
	assert.Equal(t, core.ModelRef{Provider: openai.ProviderName, Model: "nomic-embed-text"}, dataset.EmbeddingModelRef())

	_, err = db.CreateDataset(ctx, &core.Dataset{TenantID: "acme", Name: "handbook"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = db.CreateDataset(ctx, &core.Dataset{TenantID: "other", Name: "handbook"})
	assert.NoError(t, err, "names are unique per tenant")

	_, err = db.CreateDataset(ctx, &core.Dataset{Name: "no tenant"})
	assert.ErrorIs(t, err, core.ErrInvalidDataset)
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := db.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create hit tester", func(t *testing.T) {
		service, err := db.NewHitTester()
		require.NoError(t, err)
		require.NotNil(t, service)
		defer service.Close()

		dataset, err := db.CreateDataset(ctx, &core.Dataset{TenantID: "acme", Name: "empty"})
		require.NoError(t, err)

		result, err := service.Retrieve(ctx, dataset, "anything", &core.Account{Id: 1}, nil, 10)
		require.NoError(t, err)
		assert.Empty(t, result.Records)
	})

	t.Run("can create reembedder", func(t *testing.T) {
		dataset, err := db.CreateDataset(ctx, &core.Dataset{TenantID: "acme", Name: "embedded"})
		require.NoError(t, err)

		reembedder, err := db.NewReembedder(ctx, dataset, nil, nil)
		require.NoError(t, err)
		require.NotNil(t, reembedder)
	})

	t.Run("economy datasets cannot be reembedded", func(t *testing.T) {
		dataset, err := db.CreateDataset(ctx, &core.Dataset{TenantID: "acme", Name: "keywords", IndexingTechnique: core.IndexingEconomy})
		require.NoError(t, err)

		_, err = db.NewReembedder(ctx, dataset, nil, nil)
		assert.ErrorIs(t, err, core.ErrInvalidDataset)
	})

	t.Run("can create audio service", func(t *testing.T) {
		service, err := db.NewAudioService()
		require.NoError(t, err)
		require.NotNil(t, service)
	})
}

func TestDatabase_AudioWithoutHost(t *testing.T) {
	cfg := ai.DefaultConfig()
	cfg.AudioHost = ""
	db := newTestDatabase(t, WithAIConfig(cfg))

	service, err := db.NewAudioService()
	require.NoError(t, err)

	_, err = service.Transcribe(context.Background(), &core.App{}, &audio.Upload{Filename: "a.mp3", Data: []byte("x")})
	assert.ErrorIs(t, err, audio.ErrProviderNotSupportSpeechToText)
}
