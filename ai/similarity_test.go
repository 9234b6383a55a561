package ai_test

import (
	"context"
	"testing"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scale invariant", []float32{1, 1}, []float32{3, 3}, 1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ai.CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestSimilarityReranker(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	vectors := map[string][]float32{
		"query": {1, 0},
		"close": {0.9, 0.1},
		"far":   {0, 1},
	}
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vectors[text], nil
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = vectors[text]
		}
		return out, nil
	}

	reranker := ai.NewSimilarityReranker(embedder)
	scores, err := reranker.Rerank(ctx, "query", []string{"far", "close"}, "account-1")
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.Equal(t, 0, scores[0].Index)
	assert.InDelta(t, 0, scores[0].Score, 1e-6)
	assert.Equal(t, 1, scores[1].Index)
	assert.Greater(t, scores[1].Score, float32(0.9))

	empty, err := reranker.Rerank(ctx, "query", nil, "account-1")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
