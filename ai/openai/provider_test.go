package openai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/probe/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := ai.DefaultConfig()
	cfg.EmbeddingHost = ""

	_, err := NewProvider(cfg)
	require.Error(t, err)
}

func TestProvider_EmbedderPerModel(t *testing.T) {
	provider, err := NewProvider(ai.NewConfig(ai.WithHost("http://localhost:11434")))
	require.NoError(t, err)
	defer provider.Close()

	a1, err := provider.Embedder("model-a")
	require.NoError(t, err)
	a2, err := provider.Embedder("model-a")
	require.NoError(t, err)
	b, err := provider.Embedder("model-b")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)

	reranker, err := provider.Reranker("model-a")
	require.NoError(t, err)
	assert.IsType(t, &ai.SimilarityReranker{}, reranker)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", errors.New("API returned unexpected status code: 401: invalid key"), ai.ErrModelNotInitialized},
		{"rate limited", errors.New("API returned unexpected status code: 429"), ai.ErrModelQuotaExceeded},
		{"missing model", errors.New("status code 404: model not found"), ai.ErrModelCurrentlyUnsupported},
		{"connection refused", errors.New("dial tcp: connection refused"), ai.ErrModelInvocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.err), tt.want)
		})
	}

	canceled := fmt.Errorf("embed: %w", context.Canceled)
	assert.Equal(t, canceled, translateError(canceled))
}
