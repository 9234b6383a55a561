package search

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/core"
)

// RerankRunner re-scores fragments with a reranking model.
type RerankRunner struct {
	reranker ai.Reranker
	logger   *slog.Logger
}

// NewRerankRunner creates a runner backed by reranker.
func NewRerankRunner(reranker ai.Reranker, opts ...Option) (*RerankRunner, error) {
	if reranker == nil {
		return nil, ErrRerankerRequired
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RerankRunner{reranker: reranker, logger: o.logger}, nil
}

// Run reranks fragments against query and returns new fragments carrying the
// rerank score, best first.
//
// Fragments sharing an ID are reranked once; the first occurrence wins.
// Scores below threshold are dropped, and at most topN fragments are kept
// when topN is positive. The input fragments are not modified.
func (r *RerankRunner) Run(ctx context.Context, query string, fragments []*core.ScoredFragment, threshold *float32, topN int, user string) ([]*core.ScoredFragment, error) {
	unique := make([]*core.ScoredFragment, 0, len(fragments))
	seen := make(map[string]bool, len(fragments))
	for _, f := range fragments {
		if seen[f.FragmentID] {
			continue
		}
		seen[f.FragmentID] = true
		unique = append(unique, f)
	}
	if len(unique) == 0 {
		return []*core.ScoredFragment{}, nil
	}

	docs := make([]string, len(unique))
	for i, f := range unique {
		docs[i] = f.Text
	}

	scores, err := r.reranker.Rerank(ctx, query, docs, user)
	if err != nil {
		r.logger.Error("error reranking fragments", "count", len(docs), "err", err)
		return nil, err
	}

	results := make([]*core.ScoredFragment, 0, len(scores))
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(unique) {
			r.logger.Warn("reranker returned out of range index", "index", s.Index)
			continue
		}
		if threshold != nil && s.Score < *threshold {
			continue
		}
		f := unique[s.Index]
		score := s.Score
		results = append(results, &core.ScoredFragment{
			FragmentID: f.FragmentID,
			Text:       f.Text,
			Score:      &score,
			Source:     f.Source,
		})
	}

	slices.SortStableFunc(results, func(a, b *core.ScoredFragment) int {
		return cmp.Compare(*b.Score, *a.Score)
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}

	r.logger.Debug("reranked fragments", "in", len(fragments), "out", len(results))
	return results, nil
}

// Merge pools fragments without a reranking model. Fragments sharing an ID
// keep their best score; those below threshold are dropped and at most topN
// (when positive) are returned, best first.
func Merge(fragments []*core.ScoredFragment, threshold *float32, topN int) []*core.ScoredFragment {
	best := make(map[string]*core.ScoredFragment, len(fragments))
	order := make([]string, 0, len(fragments))
	for _, f := range fragments {
		prev, ok := best[f.FragmentID]
		if !ok {
			order = append(order, f.FragmentID)
			best[f.FragmentID] = f
			continue
		}
		if scoreOf(f) > scoreOf(prev) {
			best[f.FragmentID] = f
		}
	}

	results := make([]*core.ScoredFragment, 0, len(order))
	for _, id := range order {
		f := best[id]
		if threshold != nil && scoreOf(f) < *threshold {
			continue
		}
		results = append(results, f)
	}
	slices.SortStableFunc(results, func(a, b *core.ScoredFragment) int {
		return cmp.Compare(scoreOf(b), scoreOf(a))
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

func scoreOf(f *core.ScoredFragment) float32 {
	if f.Score == nil {
		return 0
	}
	return *f.Score
}
