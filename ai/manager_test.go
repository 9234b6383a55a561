package ai_test

import (
	"context"
	"testing"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/ai/mock"
	"github.com/poiesic/probe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	ctx := context.Background()
	provider := mock.NewMockProvider()

	manager := ai.NewManager()
	manager.Register("mock", provider)
	defer manager.Close()

	t.Run("routes by provider name", func(t *testing.T) {
		embedder, err := manager.Embedder(ctx, "tenant", core.ModelRef{Provider: "mock", Model: "embed"})
		require.NoError(t, err)
		assert.Same(t, provider.GetMockEmbedder(), embedder)

		reranker, err := manager.Reranker(ctx, "tenant", core.ModelRef{Provider: "mock", Model: "rerank"})
		require.NoError(t, err)
		assert.Same(t, provider.GetMockReranker(), reranker)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := manager.Embedder(ctx, "tenant", core.ModelRef{Provider: "nope", Model: "embed"})
		assert.ErrorIs(t, err, ai.ErrUnknownProvider)
	})

	t.Run("provider without reranker", func(t *testing.T) {
		manager.Register("embed-only", mock.NewMockProviderWithServices(mock.NewMockEmbedder(), nil))
		_, err := manager.Reranker(ctx, "tenant", core.ModelRef{Provider: "embed-only", Model: "x"})
		assert.ErrorIs(t, err, ai.ErrModelCurrentlyUnsupported)
	})

	assert.ElementsMatch(t, []string{"mock", "embed-only"}, manager.Providers())
}
