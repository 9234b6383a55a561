// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/ai/hugot"
	"github.com/poiesic/probe/ai/openai"
	"github.com/poiesic/probe/audio"
	audioopenai "github.com/poiesic/probe/audio/openai"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/extdata"
	"github.com/poiesic/probe/hittest"
	"github.com/poiesic/probe/ingestion"
	"github.com/poiesic/probe/reembed"
	"github.com/poiesic/probe/storage"
	"github.com/poiesic/probe/storage/badger"
)

// Database is a probe workspace: the storage of every dataset plus the
// models used to index and search them.
type Database struct {
	repos    *badger.Repositories
	models   *ai.Manager
	cache    *ai.EmbeddingCache
	aiConfig *ai.Config
	registry *extdata.Registry
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	modelDir string
	inMemory bool
}

// WithAIConfig sets the model provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithModelDir enables the local hugot provider, storing ONNX models in dir.
func WithModelDir(dir string) DatabaseOption {
	return func(o *databaseOptions) {
		o.modelDir = dir
	}
}

// WithInMemory keeps all data in memory; filePath is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens the workspace stored at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := options.aiConfig.Validate(); err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repos, err := badger.OpenRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	models := ai.NewManager()
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		repos.Close()
		return nil, err
	}
	models.Register(openai.ProviderName, provider)

	if options.modelDir != "" {
		local, err := hugot.NewProvider(options.modelDir)
		if err != nil {
			models.Close()
			repos.Close()
			return nil, err
		}
		models.Register(hugot.ProviderName, local)
	}

	cache, err := ai.NewEmbeddingCache(options.aiConfig.CacheEntries)
	if err != nil {
		models.Close()
		repos.Close()
		return nil, err
	}

	return &Database{
		repos:    repos,
		models:   models,
		cache:    cache,
		aiConfig: options.aiConfig,
		registry: extdata.NewRegistry(),
		logger:   slog.Default(),
	}, nil
}

// Close releases models, the embedding cache and storage.
func (db *Database) Close() error {
	// Close AI providers first
	if err := db.models.Close(); err != nil {
		db.logger.Error("error closing model providers", "err", err)
	}
	db.cache.Close()

	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DatasetRepository() storage.DatasetRepository {
	return db.repos.Datasets
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.repos.Documents
}

func (db *Database) SegmentRepository() storage.SegmentRepository {
	return db.repos.Segments
}

func (db *Database) QueryLogRepository() storage.QueryLogRepository {
	return db.repos.QueryLogs
}

// Models returns the model manager shared by every service.
func (db *Database) Models() *ai.Manager {
	return db.models
}

// Registry returns the extended data API registry.
func (db *Database) Registry() *extdata.Registry {
	return db.registry
}

// CreateDataset validates and stores a new dataset. Datasets without an
// embedding model get the workspace's default; economy datasets still need
// one to project hit-testing queries.
func (db *Database) CreateDataset(ctx context.Context, dataset *core.Dataset) (*core.Dataset, error) {
	if dataset.IndexingTechnique == "" {
		dataset.IndexingTechnique = core.IndexingHighQuality
	}
	if dataset.EmbeddingModel == "" {
		dataset.EmbeddingProvider = openai.ProviderName
		dataset.EmbeddingModel = db.aiConfig.EmbeddingModel
	}
	if err := core.ValidateDataset(dataset); err != nil {
		return nil, err
	}

	existing, err := db.repos.Datasets.FindDatasetByName(ctx, dataset.TenantID, dataset.Name)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: dataset %q (id %d)", storage.ErrDuplicateKey, existing.Name, existing.Id)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	added, err := db.repos.Datasets.AddDatasets(ctx, dataset)
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// NewHitTester creates a hit-testing service sharing the workspace's embedding cache.
func (db *Database) NewHitTester(opts ...hittest.Option) (*hittest.Service, error) {
	opts = append([]hittest.Option{hittest.WithEmbeddingCache(db.cache)}, opts...)
	return hittest.NewService(db.repos.Documents, db.repos.Segments, db.repos.QueryLogs, db.models, opts...)
}

// NewIngestionPipeline creates a pipeline that prices segments with tiktoken.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithTokenCounter(ai.TiktokenCounter{})}, opts...)
	return ingestion.NewPipeline(db.repos.Documents, db.repos.Segments, db.models, opts...)
}

// NewReembedder creates a reembedder using dataset's embedding model.
func (db *Database) NewReembedder(ctx context.Context, dataset *core.Dataset, cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if dataset.IndexingTechnique != core.IndexingHighQuality {
		return nil, fmt.Errorf("%w: dataset %d is not embedded", core.ErrInvalidDataset, dataset.Id)
	}
	embedder, err := db.models.Embedder(ctx, dataset.TenantID, dataset.EmbeddingModelRef())
	if err != nil {
		return nil, err
	}
	return reembed.NewReembedder(db.repos.Segments, embedder, cfg, progress), nil
}

// NewAudioService creates an audio service on the configured audio host.
// Without an audio host every audio operation reports missing support.
func (db *Database) NewAudioService() (*audio.Service, error) {
	if db.aiConfig.AudioHost == "" {
		return audio.NewService(nil, nil, nil, audio.WithLogger(db.logger))
	}
	backend, err := audioopenai.NewBackend(db.aiConfig)
	if err != nil {
		return nil, err
	}
	return audio.NewService(backend, backend, backend, audio.WithLogger(db.logger))
}
