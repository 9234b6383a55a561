package projection

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage"
)

// Engine projects retrieval results onto a 2D plane.
// It is safe for concurrent use.
type Engine struct {
	segments storage.SegmentRepository
	logger   *slog.Logger

	mu  sync.Mutex // guards rng; held only to derive per-call sources
	rng *rand.Rand

	layout func(vectors [][]float32, src rand.Source) ([]core.Position2D, error)
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithRand sets the randomness source for perturbation and t-SNE.
// Default is a time-seeded PCG source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) error {
		if rng != nil {
			e.rng = rng
		}
		return nil
	}
}

// NewEngine creates an engine resolving fragments through segments.
func NewEngine(segments storage.SegmentRepository, opts ...Option) (*Engine, error) {
	if segments == nil {
		return nil, ErrSegmentRepositoryRequired
	}

	seed := uint64(time.Now().UnixNano())
	e := &Engine{
		segments: segments,
		logger:   slog.Default(),
		rng:      rand.New(rand.NewPCG(seed, seed>>1|1)),
		layout:   Positions,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Project embeds query and fragments with embedder, lays them out in 2D and
// resolves each fragment to its available segment in datasetID.
//
// The query is position 0 and fragment i is position i+1. Fragments whose
// segment cannot be found are dropped without disturbing that alignment.
func (e *Engine) Project(ctx context.Context, embedder ai.Embedder, datasetID core.ID, query string, fragments []*core.ScoredFragment) (*core.RetrievalResult, error) {
	queryVec, err := embedder.EmbedText(ctx, query)
	if err != nil {
		e.logger.Error("error embedding query", "dataset", datasetID, "err", err)
		return nil, err
	}

	var fragmentVecs [][]float32
	if len(fragments) > 0 {
		texts := make([]string, len(fragments))
		for i, f := range fragments {
			texts[i] = f.Text
		}
		fragmentVecs, err = embedder.EmbedTexts(ctx, texts)
		if err != nil {
			e.logger.Error("error embedding fragments", "dataset", datasetID, "count", len(texts), "err", err)
			return nil, err
		}
		if len(fragmentVecs) != len(fragments) {
			return nil, fmt.Errorf("%w: got %d for %d fragments", ErrEmbeddingCount, len(fragmentVecs), len(fragments))
		}
	}

	positions, err := e.positions(queryVec, fragmentVecs)
	if err != nil {
		return nil, err
	}

	result := &core.RetrievalResult{
		Query:   core.QueryPosition{Content: query, Position: positions[0]},
		Records: make([]*core.HitRecord, 0, len(fragments)),
	}
	for i, f := range fragments {
		segment, err := e.segments.FindAvailableByIndexNode(ctx, datasetID, f.FragmentID)
		if err != nil {
			return nil, err
		}
		if segment == nil {
			e.logger.Debug("dropping fragment without available segment", "dataset", datasetID, "node", f.FragmentID)
			continue
		}
		result.Records = append(result.Records, &core.HitRecord{
			Segment:  segment,
			Score:    f.Score,
			Position: positions[i+1],
		})
	}

	return result, nil
}

func (e *Engine) positions(queryVec []float32, fragmentVecs [][]float32) ([]core.Position2D, error) {
	src := e.source()

	vectors := make([][]float32, 0, len(fragmentVecs)+1)
	vectors = append(vectors, queryVec)
	vectors = append(vectors, separateFromQuery(queryVec, fragmentVecs, src)...)
	return e.layout(vectors, src)
}

// source derives an independent source for one projection.
func (e *Engine) source() rand.Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	return rand.NewPCG(e.rng.Uint64(), e.rng.Uint64())
}
