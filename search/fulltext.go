package search

import (
	"context"

	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage"
)

// FullTextStrategy ranks available segments by how many query terms they contain.
type FullTextStrategy struct {
	segments storage.SegmentRepository
	opts     *options
}

var _ Strategy = (*FullTextStrategy)(nil)

// NewFullTextStrategy creates a full-text strategy over segments.
func NewFullTextStrategy(segments storage.SegmentRepository, opts ...Option) (*FullTextStrategy, error) {
	if segments == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &FullTextStrategy{segments: segments, opts: o}, nil
}

// Method returns core.SearchMethodFullText.
func (s *FullTextStrategy) Method() core.SearchMethod {
	return core.SearchMethodFullText
}

// Search returns up to TopK segments matching the query's terms.
// A segment's score is the fraction of distinct query terms it contains.
// Queries made only of stop words match nothing.
func (s *FullTextStrategy) Search(ctx context.Context, req *Request) ([]*core.ScoredFragment, error) {
	terms := core.Terms(req.Query)
	if len(terms) == 0 {
		return []*core.ScoredFragment{}, nil
	}

	matches, err := s.segments.FindByTerms(ctx, req.DatasetID, terms, req.TopK)
	if err != nil {
		s.opts.logger.Error("error querying term index", "dataset", req.DatasetID, "err", err)
		return nil, err
	}

	if req.ScoreThreshold != nil {
		kept := matches[:0]
		for _, match := range matches {
			if match.Score >= *req.ScoreThreshold {
				kept = append(kept, match)
			}
		}
		matches = kept
	}
	s.opts.logger.Debug("full text search", "dataset", req.DatasetID, "terms", len(terms), "hits", len(matches))

	return rerankInIndex(ctx, s.opts, req, fragmentsFromMatches(matches, core.SearchMethodFullText))
}
