package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/probe/ai/mock"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataset = core.ID(1)

var testContents = []string{
	"Badger stores keys in an LSM tree",
	"Gophers dig tunnels under the garden",
	"The garden needs water every morning",
}

func newTestSegments(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	for i, content := range testContents {
		_, err := repos.Segments.AddSegments(context.Background(), &core.Segment{
			DatasetID:   testDataset,
			DocumentID:  core.ID(10),
			IndexNodeID: []string{"node-a", "node-b", "node-c"}[i],
			Position:    i + 1,
			Content:     content,
			Enabled:     true,
			Status:      core.StatusCompleted,
			Vector:      mock.DeterministicVector(content, mock.DefaultDimensions),
		})
		require.NoError(t, err)
	}
	return repos
}

func float32Ptr(v float32) *float32 {
	return &v
}

func TestNewStrategies(t *testing.T) {
	repos := newTestSegments(t)

	t.Run("semantic", func(t *testing.T) {
		s, err := NewSemanticStrategy(repos.Segments)
		require.NoError(t, err)
		assert.Equal(t, core.SearchMethodSemantic, s.Method())
	})

	t.Run("full text with custom logger", func(t *testing.T) {
		s, err := NewFullTextStrategy(repos.Segments, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.Equal(t, core.SearchMethodFullText, s.Method())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		_, err := NewSemanticStrategy(repos.Segments, WithLogger(nil))
		require.NoError(t, err)
	})

	t.Run("nil segment repository", func(t *testing.T) {
		_, err := NewSemanticStrategy(nil)
		assert.Equal(t, ErrSegmentRepositoryRequired, err)
		_, err = NewFullTextStrategy(nil)
		assert.Equal(t, ErrSegmentRepositoryRequired, err)
	})
}

func TestSemanticStrategy_Search(t *testing.T) {
	repos := newTestSegments(t)
	ctx := context.Background()
	strategy, err := NewSemanticStrategy(repos.Segments)
	require.NoError(t, err)

	t.Run("exact content ranks first", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		results, err := strategy.Search(ctx, &Request{
			DatasetID:    testDataset,
			Query:        testContents[1],
			TopK:         3,
			SearchMethod: core.SearchMethodSemantic,
			Embedder:     embedder,
		})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "node-b", results[0].FragmentID)
		assert.InDelta(t, 1.0, *results[0].Score, 1e-5)
		for _, r := range results {
			assert.Equal(t, core.SearchMethodSemantic, r.Source)
		}
		assert.Equal(t, 1, embedder.TextCalls())
	})

	t.Run("threshold filters weak matches", func(t *testing.T) {
		results, err := strategy.Search(ctx, &Request{
			DatasetID:      testDataset,
			Query:          testContents[0],
			TopK:           3,
			ScoreThreshold: float32Ptr(0.99),
			SearchMethod:   core.SearchMethodSemantic,
			Embedder:       mock.NewMockEmbedder(),
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "node-a", results[0].FragmentID)
	})

	t.Run("top k caps results", func(t *testing.T) {
		results, err := strategy.Search(ctx, &Request{
			DatasetID: testDataset, Query: "anything", TopK: 1,
			SearchMethod: core.SearchMethodSemantic, Embedder: mock.NewMockEmbedder(),
		})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("missing embedder", func(t *testing.T) {
		_, err := strategy.Search(ctx, &Request{DatasetID: testDataset, Query: "q", TopK: 1})
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("embedder error surfaces", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		boom := errors.New("boom")
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, boom
		}
		_, err := strategy.Search(ctx, &Request{DatasetID: testDataset, Query: "q", TopK: 1, Embedder: embedder})
		assert.ErrorIs(t, err, boom)
	})
}

func TestFullTextStrategy_Search(t *testing.T) {
	repos := newTestSegments(t)
	ctx := context.Background()
	strategy, err := NewFullTextStrategy(repos.Segments)
	require.NoError(t, err)

	t.Run("scores by matched terms", func(t *testing.T) {
		results, err := strategy.Search(ctx, &Request{
			DatasetID:    testDataset,
			Query:        "garden water",
			TopK:         5,
			SearchMethod: core.SearchMethodFullText,
		})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "node-c", results[0].FragmentID)
		assert.InDelta(t, 1.0, *results[0].Score, 1e-6)
		assert.Equal(t, "node-b", results[1].FragmentID)
		assert.InDelta(t, 0.5, *results[1].Score, 1e-6)
		assert.Equal(t, core.SearchMethodFullText, results[0].Source)
	})

	t.Run("threshold", func(t *testing.T) {
		results, err := strategy.Search(ctx, &Request{
			DatasetID:      testDataset,
			Query:          "garden water",
			TopK:           5,
			ScoreThreshold: float32Ptr(0.75),
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "node-c", results[0].FragmentID)
	})

	t.Run("stop words only", func(t *testing.T) {
		results, err := strategy.Search(ctx, &Request{DatasetID: testDataset, Query: "the and of", TopK: 5})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestInIndexRerank(t *testing.T) {
	repos := newTestSegments(t)
	ctx := context.Background()
	models := mock.NewMockModelManager()
	models.Rerank.Scores = map[string]float32{
		testContents[1]: 0.2,
		testContents[2]: 0.9,
	}
	ref := &core.ModelRef{Provider: "mock", Model: "rerank"}

	strategy, err := NewFullTextStrategy(repos.Segments, WithModelManager(models))
	require.NoError(t, err)

	t.Run("non hybrid reranks in index", func(t *testing.T) {
		results, err := strategy.Search(ctx, &Request{
			DatasetID:      testDataset,
			Query:          "gophers garden",
			TopK:           5,
			RerankingModel: ref,
			SearchMethod:   core.SearchMethodFullText,
			User:           "account-7",
		})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "node-c", results[0].FragmentID)
		assert.InDelta(t, 0.9, *results[0].Score, 1e-6)
		assert.Equal(t, 1, models.Rerank.CallCount())
		assert.Equal(t, "account-7", models.Rerank.Calls()[0].User)
		assert.Equal(t, []core.ModelRef{*ref}, models.RerankerRefs())
	})

	t.Run("hybrid leaves reranking to the caller", func(t *testing.T) {
		before := models.Rerank.CallCount()
		_, err := strategy.Search(ctx, &Request{
			DatasetID:      testDataset,
			Query:          "gophers garden",
			TopK:           5,
			RerankingModel: ref,
			SearchMethod:   core.SearchMethodHybrid,
		})
		require.NoError(t, err)
		assert.Equal(t, before, models.Rerank.CallCount())
	})

	t.Run("no model manager", func(t *testing.T) {
		bare, err := NewFullTextStrategy(repos.Segments)
		require.NoError(t, err)
		_, err = bare.Search(ctx, &Request{
			DatasetID: testDataset, Query: "garden", TopK: 5,
			RerankingModel: ref, SearchMethod: core.SearchMethodFullText,
		})
		assert.ErrorIs(t, err, ErrModelManagerRequired)
	})
}
