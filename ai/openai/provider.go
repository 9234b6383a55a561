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


package openai

import (
	"log/slog"
	"sync"

	"github.com/poiesic/probe/ai"
)

// ProviderName is the name the provider registers under in an ai.Manager.
const ProviderName = "openai"

// Provider implements ai.Provider using OpenAI-compatible services.
// It creates one embedder per model on first use and reuses it.
type Provider struct {
	config    *ai.Config
	mu        sync.Mutex
	embedders map[string]*Embedder
	logger    *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		embedders: make(map[string]*Embedder),
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service for model.
func (p *Provider) Embedder(model string) (ai.Embedder, error) {
	return p.embedder(model)
}

// Reranker scores documents by embedding similarity under model.
// OpenAI-compatible servers have no standard rerank endpoint.
func (p *Provider) Reranker(model string) (ai.Reranker, error) {
	embedder, err := p.embedder(model)
	if err != nil {
		return nil, err
	}
	return ai.NewSimilarityReranker(embedder), nil
}

func (p *Provider) embedder(model string) (*Embedder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.embedders[model]; ok {
		return e, nil
	}
	e, err := newEmbedder(p.config, model)
	if err != nil {
		return nil, err
	}
	p.embedders[model] = e
	return e, nil
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
