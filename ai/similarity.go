package ai

import (
	"context"
	"fmt"
	"math"
)

// SimilarityReranker scores documents by cosine similarity of their
// embeddings to the query embedding. It serves providers that expose
// embeddings but no dedicated rerank endpoint.
type SimilarityReranker struct {
	embedder Embedder
}

var _ Reranker = (*SimilarityReranker)(nil)

// NewSimilarityReranker creates a reranker backed by embedder.
func NewSimilarityReranker(embedder Embedder) *SimilarityReranker {
	return &SimilarityReranker{embedder: embedder}
}

// Rerank embeds query and docs and returns one score per document, in input order.
func (r *SimilarityReranker) Rerank(ctx context.Context, query string, docs []string, user string) ([]RerankScore, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	queryVec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	docVecs, err := r.embedder.EmbedTexts(ctx, docs)
	if err != nil {
		return nil, err
	}
	if len(docVecs) != len(docs) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d documents", ErrModelInvocation, len(docVecs), len(docs))
	}

	scores := make([]RerankScore, len(docs))
	for i, vec := range docVecs {
		scores[i] = RerankScore{Index: i, Score: CosineSimilarity(queryVec, vec)}
	}
	return scores, nil
}

// CosineSimilarity returns the cosine of the angle between a and b,
// or 0 if either is a zero vector or their lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
