package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/core"
)

// Request is one strategy invocation.
type Request struct {
	DatasetID      core.ID
	TenantID       string
	Query          string
	TopK           int
	ScoreThreshold *float32       // nil unless thresholding is enabled
	RerankingModel *core.ModelRef // nil unless reranking is enabled
	SearchMethod   core.SearchMethod
	Embedder       ai.Embedder // Shared handle for the dataset's embedding model
	User           string      // Passed to the reranker
}

// Strategy retrieves scored fragments for a request.
// Implementations must be safe for concurrent use.
type Strategy interface {
	Method() core.SearchMethod
	Search(ctx context.Context, req *Request) ([]*core.ScoredFragment, error)
}

// Option configures a strategy or rerank runner.
type Option func(*options) error

type options struct {
	logger *slog.Logger
	models ai.ModelManager
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithModelManager sets the manager strategies use to obtain rerankers
// for in-index reranking.
func WithModelManager(models ai.ModelManager) Option {
	return func(o *options) error {
		o.models = models
		return nil
	}
}

func applyOptions(opts []Option) (*options, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// fragmentsFromMatches converts index matches into fragments tagged with method.
func fragmentsFromMatches(matches []*core.SegmentMatch, method core.SearchMethod) []*core.ScoredFragment {
	fragments := make([]*core.ScoredFragment, 0, len(matches))
	for _, match := range matches {
		score := match.Score
		fragments = append(fragments, &core.ScoredFragment{
			FragmentID: match.Segment.IndexNodeID,
			Text:       match.Segment.Content,
			Score:      &score,
			Source:     method,
		})
	}
	return fragments
}

// rerankInIndex reranks a single strategy's results when the request asks for it.
// Hybrid requests are reranked by the caller after pooling.
func rerankInIndex(ctx context.Context, o *options, req *Request, fragments []*core.ScoredFragment) ([]*core.ScoredFragment, error) {
	if req.RerankingModel == nil || req.SearchMethod == core.SearchMethodHybrid || len(fragments) == 0 {
		return fragments, nil
	}
	if o.models == nil {
		return nil, ErrModelManagerRequired
	}

	reranker, err := o.models.Reranker(ctx, req.TenantID, *req.RerankingModel)
	if err != nil {
		return nil, err
	}
	runner, err := NewRerankRunner(reranker, WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx, req.Query, fragments, req.ScoreThreshold, req.TopK, req.User)
}
