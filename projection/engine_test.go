package projection

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/probe/ai/mock"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataset = core.ID(3)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *badger.Repositories) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	engine, err := NewEngine(repos.Segments, append([]Option{WithRand(seeded(42))}, opts...)...)
	require.NoError(t, err)
	return engine, repos
}

func addSegment(t *testing.T, repos *badger.Repositories, node, content string, enabled bool) {
	t.Helper()
	_, err := repos.Segments.AddSegments(context.Background(), &core.Segment{
		DatasetID:   testDataset,
		DocumentID:  core.ID(1),
		IndexNodeID: node,
		Content:     content,
		Enabled:     enabled,
		Status:      core.StatusCompleted,
	})
	require.NoError(t, err)
}

func scored(id, text string, score float32) *core.ScoredFragment {
	return &core.ScoredFragment{FragmentID: id, Text: text, Score: &score, Source: core.SearchMethodSemantic}
}

// indexLayout places vector i at (i, -i).
func indexLayout(vectors [][]float32, _ rand.Source) ([]core.Position2D, error) {
	positions := make([]core.Position2D, len(vectors))
	for i := range vectors {
		positions[i] = core.Position2D{X: float64(i), Y: -float64(i)}
	}
	return positions, nil
}

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Equal(t, ErrSegmentRepositoryRequired, err)

	_, repos := newTestEngine(t)
	engine, err := NewEngine(repos.Segments, WithLogger(nil), WithRand(nil))
	require.NoError(t, err)
	assert.NotNil(t, engine.rng)
}

func TestProject_NoFragments(t *testing.T) {
	engine, _ := newTestEngine(t)
	embedder := mock.NewMockEmbedder()

	result, err := engine.Project(context.Background(), embedder, testDataset, "lonely query", nil)
	require.NoError(t, err)
	assert.Equal(t, "lonely query", result.Query.Content)
	assert.Equal(t, core.Position2D{}, result.Query.Position)
	assert.NotNil(t, result.Records)
	assert.Empty(t, result.Records)
	assert.Equal(t, 1, embedder.TextCalls())
	assert.Equal(t, 0, embedder.TextsCalls())
}

func TestProject_AlignmentWithDroppedFragment(t *testing.T) {
	engine, repos := newTestEngine(t)
	engine.layout = indexLayout
	addSegment(t, repos, "n1", "first", true)
	addSegment(t, repos, "n3", "third", true)

	fragments := []*core.ScoredFragment{
		scored("n1", "first", 0.9),
		scored("n2", "second", 0.8),
		scored("n3", "third", 0.7),
	}
	embedder := mock.NewMockEmbedder()

	result, err := engine.Project(context.Background(), embedder, testDataset, "query", fragments)
	require.NoError(t, err)

	assert.Equal(t, core.Position2D{X: 0, Y: 0}, result.Query.Position)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "n1", result.Records[0].Segment.IndexNodeID)
	assert.Equal(t, core.Position2D{X: 1, Y: -1}, result.Records[0].Position)
	assert.Equal(t, "n3", result.Records[1].Segment.IndexNodeID)
	assert.Equal(t, core.Position2D{X: 3, Y: -3}, result.Records[1].Position)
	assert.InDelta(t, 0.7, *result.Records[1].Score, 1e-6)

	assert.Equal(t, 1, embedder.TextCalls())
	assert.Equal(t, [][]string{{"first", "second", "third"}}, embedder.Batches())
}

func TestProject_UnavailableSegmentDropped(t *testing.T) {
	engine, repos := newTestEngine(t)
	addSegment(t, repos, "on", "enabled text", true)
	addSegment(t, repos, "off", "disabled text", false)

	result, err := engine.Project(context.Background(), mock.NewMockEmbedder(), testDataset, "query",
		[]*core.ScoredFragment{scored("on", "enabled text", 1), scored("off", "disabled text", 1)})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "on", result.Records[0].Segment.IndexNodeID)
}

func TestProject_SeparatesQueryDuplicates(t *testing.T) {
	engine, repos := newTestEngine(t)
	addSegment(t, repos, "dup", "same text", true)

	var captured [][]float32
	engine.layout = func(vectors [][]float32, src rand.Source) ([]core.Position2D, error) {
		captured = vectors
		return indexLayout(vectors, src)
	}

	fixed := []float32{0.6, 0.8}
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return slices.Clone(fixed), nil
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{slices.Clone(fixed)}, nil
	}

	_, err := engine.Project(context.Background(), embedder, testDataset, "same text",
		[]*core.ScoredFragment{scored("dup", "same text", 1)})
	require.NoError(t, err)

	require.Len(t, captured, 2)
	assert.Equal(t, fixed, captured[0])
	assert.False(t, slices.Equal(captured[0], captured[1]))
	for d := range fixed {
		assert.InDelta(t, fixed[d], captured[1][d], 1e-3)
	}
}

func TestProject_EmbeddingCountMismatch(t *testing.T) {
	engine, _ := newTestEngine(t)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, nil
	}

	_, err := engine.Project(context.Background(), embedder, testDataset, "query",
		[]*core.ScoredFragment{scored("x", "text", 1)})
	assert.ErrorIs(t, err, ErrEmbeddingCount)
}

func TestProject_RealLayout(t *testing.T) {
	engine, repos := newTestEngine(t)
	addSegment(t, repos, "a", "alpha", true)
	addSegment(t, repos, "b", "bravo", true)

	result, err := engine.Project(context.Background(), mock.NewMockEmbedder(), testDataset, "query",
		[]*core.ScoredFragment{scored("a", "alpha", 1), scored("b", "bravo", 0.5)})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.NotEqual(t, result.Records[0].Position, result.Records[1].Position)
}

func TestProject_ConcurrentLayoutsDoNotSerialize(t *testing.T) {
	engine, _ := newTestEngine(t)

	var inside sync.WaitGroup
	inside.Add(2)
	release := make(chan struct{})
	engine.layout = func(vectors [][]float32, src rand.Source) ([]core.Position2D, error) {
		inside.Done()
		<-release
		return indexLayout(vectors, src)
	}

	errs := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := engine.Project(context.Background(), mock.NewMockEmbedder(), testDataset, "query", nil)
			errs <- err
		}()
	}

	both := make(chan struct{})
	go func() {
		inside.Wait()
		close(both)
	}()
	select {
	case <-both:
	case <-time.After(5 * time.Second):
		t.Fatal("second projection did not start while the first was laying out")
	}
	close(release)
	for range 2 {
		require.NoError(t, <-errs)
	}
}

func TestProject_SeededEnginesAgree(t *testing.T) {
	project := func() *core.RetrievalResult {
		engine, repos := newTestEngine(t)
		addSegment(t, repos, "a", "alpha", true)
		addSegment(t, repos, "b", "bravo", true)
		result, err := engine.Project(context.Background(), mock.NewMockEmbedder(), testDataset, "query",
			[]*core.ScoredFragment{scored("a", "alpha", 1), scored("b", "bravo", 0.5)})
		require.NoError(t, err)
		return result
	}

	first, second := project(), project()
	assert.Equal(t, first.Query.Position, second.Query.Position)
	for i := range first.Records {
		assert.Equal(t, first.Records[i].Position, second.Records[i].Position)
	}
}
