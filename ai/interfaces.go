package ai

import (
	"context"

	"github.com/poiesic/probe/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RerankScore is the relevance of one document to a query.
type RerankScore struct {
	// Index is the document's position in the slice passed to Rerank.
	Index int

	// Score is the relevance; higher is more relevant.
	Score float32
}

// Reranker scores documents against a query.
// Implementations must be thread-safe for concurrent use.
type Reranker interface {
	// Rerank scores every document against query. Scores may be returned in
	// any order; Index identifies the document. user identifies the caller
	// to the provider for abuse tracking.
	Rerank(ctx context.Context, query string, docs []string, user string) ([]RerankScore, error)
}

// TokenCounter estimates how many tokens a model consumes for a text.
type TokenCounter interface {
	CountTokens(model, text string) int
}

// ModelManager resolves model handles for a tenant.
type ModelManager interface {
	// Embedder returns an embedding handle for the model.
	Embedder(ctx context.Context, tenantID string, ref core.ModelRef) (Embedder, error)

	// Reranker returns a rerank handle for the model.
	Reranker(ctx context.Context, tenantID string, ref core.ModelRef) (Reranker, error)
}

// Provider creates model handles for one model provider.
// A ModelManager routes ModelRef.Provider to a registered Provider.
type Provider interface {
	// Embedder returns the embedding service for a model.
	// The returned Embedder is safe for concurrent use.
	Embedder(model string) (Embedder, error)

	// Reranker returns the rerank service for a model.
	// Providers without reranking return ErrModelCurrentlyUnsupported.
	Reranker(model string) (Reranker, error)

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
