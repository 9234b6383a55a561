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


// Package hittest runs hit-testing retrievals: a query is searched against a
// dataset with the dataset's retrieval settings, logged, and returned with a
// 2D projection of the query and every hit.
package hittest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/projection"
	"github.com/poiesic/probe/search"
	"github.com/poiesic/probe/storage"
	"golang.org/x/sync/errgroup"
)

// CreatedByRoleAccount tags query log entries written on behalf of an account.
const CreatedByRoleAccount = "account"

// DefaultCacheEntries sizes the embedding cache a Service creates for itself.
const DefaultCacheEntries = 10000

// Service is the hit-testing retrieval orchestrator.
// It is safe for concurrent use.
type Service struct {
	documents  storage.DocumentRepository
	segments   storage.SegmentRepository
	queryLogs  storage.QueryLogRepository
	models     ai.ModelManager
	cache      *ai.EmbeddingCache
	ownsCache  bool
	engine     *projection.Engine
	strategies map[core.SearchMethod]search.Strategy
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithEmbeddingCache shares cache with other services.
// The caller keeps ownership and must close it.
func WithEmbeddingCache(cache *ai.EmbeddingCache) Option {
	return func(s *Service) error {
		s.cache = cache
		return nil
	}
}

// WithEngine sets the projection engine.
func WithEngine(engine *projection.Engine) Option {
	return func(s *Service) error {
		s.engine = engine
		return nil
	}
}

// WithStrategy replaces the strategy used for strategy.Method().
func WithStrategy(strategy search.Strategy) Option {
	return func(s *Service) error {
		if strategy == nil {
			return fmt.Errorf("nil strategy")
		}
		s.strategies[strategy.Method()] = strategy
		return nil
	}
}

// NewService creates a hit-testing service.
func NewService(
	documents storage.DocumentRepository,
	segments storage.SegmentRepository,
	queryLogs storage.QueryLogRepository,
	models ai.ModelManager,
	opts ...Option,
) (*Service, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if segments == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	if queryLogs == nil {
		return nil, ErrQueryLogRepositoryRequired
	}
	if models == nil {
		return nil, ErrModelManagerRequired
	}

	s := &Service{
		documents:  documents,
		segments:   segments,
		queryLogs:  queryLogs,
		models:     models,
		strategies: make(map[core.SearchMethod]search.Strategy),
		logger:     slog.Default(),
		now:        time.Now,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	searchOpts := []search.Option{search.WithLogger(s.logger), search.WithModelManager(models)}
	if _, ok := s.strategies[core.SearchMethodSemantic]; !ok {
		semantic, err := search.NewSemanticStrategy(segments, searchOpts...)
		if err != nil {
			return nil, err
		}
		s.strategies[core.SearchMethodSemantic] = semantic
	}
	if _, ok := s.strategies[core.SearchMethodFullText]; !ok {
		fullText, err := search.NewFullTextStrategy(segments, searchOpts...)
		if err != nil {
			return nil, err
		}
		s.strategies[core.SearchMethodFullText] = fullText
	}

	if s.engine == nil {
		engine, err := projection.NewEngine(segments, projection.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.engine = engine
	}

	if s.cache == nil {
		cache, err := ai.NewEmbeddingCache(DefaultCacheEntries)
		if err != nil {
			return nil, err
		}
		s.cache = cache
		s.ownsCache = true
	}

	return s, nil
}

// CheckArgs validates a hit-testing query.
func CheckArgs(query string) error {
	return core.ValidateQuery(query)
}

// Retrieve runs query against dataset for account.
// See RetrieveWithMonitor.
func (s *Service) Retrieve(ctx context.Context, dataset *core.Dataset, query string, account *core.Account, cfg *core.RetrievalConfig, limit int) (*core.RetrievalResult, error) {
	return s.RetrieveWithMonitor(ctx, dataset, query, account, cfg, limit, nil)
}

// RetrieveWithMonitor runs query against dataset for account, reporting each
// stage to monitor.
//
// cfg overrides the dataset's saved retrieval settings; when both are nil the
// default settings apply. A dataset with no available documents or segments
// yields an empty result without searching or logging. Otherwise exactly one
// query log entry is written. A positive limit caps the number of hits that
// are projected.
func (s *Service) RetrieveWithMonitor(
	ctx context.Context,
	dataset *core.Dataset,
	query string,
	account *core.Account,
	cfg *core.RetrievalConfig,
	limit int,
	monitor Monitor,
) (*core.RetrievalResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if err := CheckArgs(query); err != nil {
		return nil, err
	}
	if dataset == nil {
		return nil, ErrDatasetRequired
	}
	if account == nil {
		return nil, ErrAccountRequired
	}

	start := s.now()
	defer func() {
		s.logger.Debug("hit testing retrieve", "dataset", dataset.Id, "elapsed", s.now().Sub(start))
	}()

	empty, err := s.isEmpty(ctx, dataset.Id)
	if err != nil {
		return nil, err
	}
	if empty {
		return emptyResult(query), nil
	}

	cfg, err = resolveConfig(cfg, dataset)
	if err != nil {
		return nil, err
	}
	monitor.Start(query, cfg)

	modelRef := dataset.EmbeddingModelRef()
	embedder, err := s.models.Embedder(ctx, dataset.TenantID, modelRef)
	if err != nil {
		s.logger.Error("error resolving embedding model", "model", modelRef.String(), "err", err)
		return nil, err
	}

	req := &search.Request{
		DatasetID:      dataset.Id,
		TenantID:       dataset.TenantID,
		Query:          query,
		TopK:           cfg.TopK,
		ScoreThreshold: cfg.EffectiveThreshold(),
		RerankingModel: cfg.EffectiveRerankingModel(),
		SearchMethod:   cfg.SearchMethod,
		Embedder:       s.cache.Wrap(modelRef, embedder),
		User:           account.UserTag(),
	}

	fragments, err := s.search(ctx, req, monitor)
	if err != nil {
		return nil, err
	}

	if cfg.SearchMethod == core.SearchMethodHybrid {
		// Hybrid results are always reranked when a model is configured,
		// whether or not reranking is enabled for the single strategies.
		fragments, err = s.rerank(ctx, req, cfg.RerankingModel, fragments)
		if err != nil {
			return nil, err
		}
		monitor.AfterRerank(fragments)
	}

	if _, err := s.queryLogs.AddQueryLog(ctx, &core.QueryLogEntry{
		DatasetID:     dataset.Id,
		Content:       query,
		Source:        core.QuerySourceHitTesting,
		CreatedByRole: CreatedByRoleAccount,
		CreatedBy:     account.Id,
		InsertedAt:    s.now().UTC(),
	}); err != nil {
		s.logger.Error("error writing query log", "dataset", dataset.Id, "err", err)
		return nil, err
	}

	if limit > 0 && len(fragments) > limit {
		fragments = fragments[:limit]
	}

	result, err := s.engine.Project(ctx, req.Embedder, dataset.Id, query, fragments)
	if err != nil {
		return nil, err
	}
	monitor.Finish(result)

	return result, nil
}

// Close releases the embedding cache if the service created it.
func (s *Service) Close() {
	if s.ownsCache {
		s.cache.Close()
	}
}

func (s *Service) isEmpty(ctx context.Context, datasetID core.ID) (bool, error) {
	docs, err := s.documents.CountAvailableDocuments(ctx, datasetID)
	if err != nil {
		return false, err
	}
	if docs == 0 {
		return true, nil
	}
	segments, err := s.segments.CountAvailableSegments(ctx, datasetID)
	if err != nil {
		return false, err
	}
	return segments == 0, nil
}

// search runs the strategies selected by the request's method. Two strategies
// run concurrently; one runs inline. Results are pooled in strategy order.
func (s *Service) search(ctx context.Context, req *search.Request, monitor Monitor) ([]*core.ScoredFragment, error) {
	var methods []core.SearchMethod
	switch req.SearchMethod {
	case core.SearchMethodSemantic, core.SearchMethodFullText:
		methods = []core.SearchMethod{req.SearchMethod}
	case core.SearchMethodHybrid:
		methods = []core.SearchMethod{core.SearchMethodSemantic, core.SearchMethodFullText}
	default:
		return nil, fmt.Errorf("%w: %w", core.ErrConfigurationBroken, core.ValidateSearchMethod(req.SearchMethod))
	}

	results := make([][]*core.ScoredFragment, len(methods))
	if len(methods) == 1 {
		fragments, err := s.strategies[methods[0]].Search(ctx, req)
		if err != nil {
			return nil, err
		}
		results[0] = fragments
	} else {
		var g errgroup.Group
		for i, method := range methods {
			strategy := s.strategies[method]
			g.Go(func() error {
				fragments, err := strategy.Search(ctx, req)
				if err != nil {
					return err
				}
				results[i] = fragments
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			s.logger.Error("search strategy failed", "dataset", req.DatasetID, "err", err)
			return nil, err
		}
	}

	var pooled []*core.ScoredFragment
	for i, fragments := range results {
		monitor.StrategyFinished(methods[i], fragments)
		pooled = append(pooled, fragments...)
	}
	return pooled, nil
}

// rerank merges hybrid results with model, or without one when model is nil.
func (s *Service) rerank(ctx context.Context, req *search.Request, model *core.ModelRef, fragments []*core.ScoredFragment) ([]*core.ScoredFragment, error) {
	if model == nil {
		return search.Merge(fragments, req.ScoreThreshold, req.TopK), nil
	}

	reranker, err := s.models.Reranker(ctx, req.TenantID, *model)
	if err != nil {
		s.logger.Error("error resolving reranking model", "model", model.String(), "err", err)
		return nil, err
	}
	runner, err := search.NewRerankRunner(reranker, search.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx, req.Query, fragments, req.ScoreThreshold, req.TopK, req.User)
}

func resolveConfig(cfg *core.RetrievalConfig, dataset *core.Dataset) (*core.RetrievalConfig, error) {
	if cfg == nil {
		cfg = dataset.RetrievalConfig
	}
	if cfg == nil {
		return core.DefaultRetrievalConfig(), nil
	}
	if err := core.ValidateRetrievalConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfigurationBroken, err)
	}
	return cfg, nil
}

func emptyResult(query string) *core.RetrievalResult {
	return &core.RetrievalResult{
		Query:   core.QueryPosition{Content: query},
		Records: []*core.HitRecord{},
	}
}
