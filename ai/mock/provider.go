// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import (
	"context"
	"sync"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/core"
)

// MockProvider is a test double for ai.Provider.
// Every model name resolves to the same embedder and reranker.
type MockProvider struct {
	embedder *MockEmbedder
	reranker *MockReranker
}

var _ ai.Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock provider with default mock services.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		reranker: NewMockReranker(nil),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// A nil reranker makes Reranker report the model as unsupported.
func NewMockProviderWithServices(embedder *MockEmbedder, reranker *MockReranker) *MockProvider {
	return &MockProvider{
		embedder: embedder,
		reranker: reranker,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder(model string) (ai.Embedder, error) {
	return p.embedder, nil
}

// Reranker returns the mock reranker.
func (p *MockProvider) Reranker(model string) (ai.Reranker, error) {
	if p.reranker == nil {
		return nil, ai.ErrModelCurrentlyUnsupported
	}
	return p.reranker, nil
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockReranker returns the underlying mock reranker for test assertions.
func (p *MockProvider) GetMockReranker() *MockReranker {
	return p.reranker
}

// MockModelManager is a test double for ai.ModelManager.
// It hands out the same embedder and reranker for every tenant and model,
// and records the refs it was asked for.
type MockModelManager struct {
	Embed  *MockEmbedder
	Rerank *MockReranker

	// EmbedderErr and RerankerErr, when set, are returned instead of a handle.
	EmbedderErr error
	RerankerErr error

	mu           sync.Mutex
	embedderRefs []core.ModelRef
	rerankerRefs []core.ModelRef
}

var _ ai.ModelManager = (*MockModelManager)(nil)

// NewMockModelManager creates a manager backed by a default embedder and reranker.
func NewMockModelManager() *MockModelManager {
	return &MockModelManager{
		Embed:  NewMockEmbedder(),
		Rerank: NewMockReranker(nil),
	}
}

// Embedder returns the mock embedder.
func (m *MockModelManager) Embedder(ctx context.Context, tenantID string, ref core.ModelRef) (ai.Embedder, error) {
	m.mu.Lock()
	m.embedderRefs = append(m.embedderRefs, ref)
	m.mu.Unlock()
	if m.EmbedderErr != nil {
		return nil, m.EmbedderErr
	}
	return m.Embed, nil
}

// Reranker returns the mock reranker.
func (m *MockModelManager) Reranker(ctx context.Context, tenantID string, ref core.ModelRef) (ai.Reranker, error) {
	m.mu.Lock()
	m.rerankerRefs = append(m.rerankerRefs, ref)
	m.mu.Unlock()
	if m.RerankerErr != nil {
		return nil, m.RerankerErr
	}
	return m.Rerank, nil
}

// EmbedderRefs returns the refs passed to Embedder.
func (m *MockModelManager) EmbedderRefs() []core.ModelRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.ModelRef(nil), m.embedderRefs...)
}

// RerankerRefs returns the refs passed to Reranker.
func (m *MockModelManager) RerankerRefs() []core.ModelRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.ModelRef(nil), m.rerankerRefs...)
}
