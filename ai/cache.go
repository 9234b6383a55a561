package ai

import (
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/poiesic/probe/core"
)

// EmbeddingCache memoizes embeddings across calls, keyed by model and text.
// One cache is shared by every handle it wraps.
type EmbeddingCache struct {
	cache *ristretto.Cache[string, []float32]
}

// NewEmbeddingCache creates a cache holding roughly maxEntries embeddings.
func NewEmbeddingCache(maxEntries int64) (*EmbeddingCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// Cost counts entries, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &EmbeddingCache{cache: cache}, nil
}

// Wrap returns an Embedder that consults the cache before calling embedder.
func (c *EmbeddingCache) Wrap(ref core.ModelRef, embedder Embedder) *CachedEmbedder {
	return &CachedEmbedder{
		cache:    c,
		prefix:   ref.String() + "\x00",
		embedder: embedder,
	}
}

// Wait blocks until pending writes are visible to readers.
func (c *EmbeddingCache) Wait() {
	c.cache.Wait()
}

// Close stops the cache's background goroutines.
func (c *EmbeddingCache) Close() {
	c.cache.Close()
}

// CachedEmbedder is an Embedder backed by an EmbeddingCache.
// Returned vectors are copies; callers may modify them.
type CachedEmbedder struct {
	cache    *EmbeddingCache
	prefix   string
	embedder Embedder
}

var _ Embedder = (*CachedEmbedder)(nil)

// EmbedText returns the cached embedding of text, computing it on a miss.
func (e *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := e.prefix + text
	if vec, ok := e.cache.cache.Get(key); ok {
		return slices.Clone(vec), nil
	}

	vec, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.cache.Set(key, slices.Clone(vec), 1)
	return vec, nil
}

// EmbedTexts returns embeddings in input order, sending only misses to the
// underlying embedder in one batch.
func (e *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if vec, ok := e.cache.cache.Get(e.prefix + text); ok {
			results[i] = slices.Clone(vec)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return results, nil
	}

	vecs, err := e.embedder.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrModelInvocation, len(vecs), len(missing))
	}
	for j, vec := range vecs {
		results[missingIdx[j]] = vec
		e.cache.cache.Set(e.prefix+missing[j], slices.Clone(vec), 1)
	}
	return results, nil
}
