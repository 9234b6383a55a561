package search

import (
	"context"
	"math"

	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage"
)

// SemanticStrategy ranks available segments by similarity to the query embedding.
type SemanticStrategy struct {
	segments storage.SegmentRepository
	opts     *options
}

var _ Strategy = (*SemanticStrategy)(nil)

// NewSemanticStrategy creates a semantic strategy over segments.
func NewSemanticStrategy(segments storage.SegmentRepository, opts ...Option) (*SemanticStrategy, error) {
	if segments == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &SemanticStrategy{segments: segments, opts: o}, nil
}

// Method returns core.SearchMethodSemantic.
func (s *SemanticStrategy) Method() core.SearchMethod {
	return core.SearchMethodSemantic
}

// Search embeds the query and returns up to TopK segments scoring at least
// the threshold, best first.
func (s *SemanticStrategy) Search(ctx context.Context, req *Request) ([]*core.ScoredFragment, error) {
	if req.Embedder == nil {
		return nil, ErrEmbedderRequired
	}

	embedding, err := req.Embedder.EmbedText(ctx, req.Query)
	if err != nil {
		s.opts.logger.Error("error generating embedding for query", "dataset", req.DatasetID, "err", err)
		return nil, err
	}

	minScore := float32(-math.MaxFloat32)
	if req.ScoreThreshold != nil {
		minScore = *req.ScoreThreshold
	}
	matches, err := s.segments.FindSimilar(ctx, req.DatasetID, embedding, minScore, req.TopK)
	if err != nil {
		s.opts.logger.Error("error querying for similar segments", "dataset", req.DatasetID, "err", err)
		return nil, err
	}
	s.opts.logger.Debug("semantic search", "dataset", req.DatasetID, "hits", len(matches))

	return rerankInIndex(ctx, s.opts, req, fragmentsFromMatches(matches, core.SearchMethodSemantic))
}
