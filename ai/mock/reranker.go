package mock

import (
	"context"
	"sync"

	"github.com/poiesic/probe/ai"
)

// RerankCall records one Rerank invocation.
type RerankCall struct {
	Query string
	Docs  []string
	User  string
}

// MockReranker is a test double for ai.Reranker.
// Safe for concurrent use.
type MockReranker struct {
	// RerankFunc is called by Rerank if set.
	// If nil, scores are assigned from Scores by document text, defaulting to 0.
	RerankFunc func(ctx context.Context, query string, docs []string, user string) ([]ai.RerankScore, error)

	// Scores maps document text to the score the default behavior returns.
	Scores map[string]float32

	mu    sync.Mutex
	calls []RerankCall
}

var _ ai.Reranker = (*MockReranker)(nil)

// NewMockReranker creates a reranker that returns the given score per document text.
func NewMockReranker(scores map[string]float32) *MockReranker {
	return &MockReranker{Scores: scores}
}

// Rerank records the call and returns scores in input order.
func (m *MockReranker) Rerank(ctx context.Context, query string, docs []string, user string) ([]ai.RerankScore, error) {
	m.mu.Lock()
	m.calls = append(m.calls, RerankCall{Query: query, Docs: append([]string(nil), docs...), User: user})
	fn := m.RerankFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, query, docs, user)
	}

	scores := make([]ai.RerankScore, len(docs))
	for i, doc := range docs {
		scores[i] = ai.RerankScore{Index: i, Score: m.Scores[doc]}
	}
	return scores, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockReranker) Calls() []RerankCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RerankCall(nil), m.calls...)
}

// CallCount returns the number of Rerank calls.
func (m *MockReranker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
