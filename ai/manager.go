package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/probe/core"
)

// Manager implements ModelManager by routing each ModelRef to the Provider
// registered under its provider name. Credentials are configured per provider,
// so every tenant shares the same handles.
type Manager struct {
	mu        sync.RWMutex
	providers map[string]Provider
	logger    *slog.Logger
}

var _ ModelManager = (*Manager)(nil)

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		providers: make(map[string]Provider),
		logger:    slog.Default().With("component", "model-manager"),
	}
}

// Register adds a provider under name, replacing any previous registration.
func (m *Manager) Register(name string, provider Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = provider
}

// Providers returns the registered provider names.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	return names
}

// Embedder returns an embedding handle for ref.
func (m *Manager) Embedder(ctx context.Context, tenantID string, ref core.ModelRef) (Embedder, error) {
	provider, err := m.provider(ref)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("resolving embedder", "tenant", tenantID, "model", ref.String())
	return provider.Embedder(ref.Model)
}

// Reranker returns a rerank handle for ref.
func (m *Manager) Reranker(ctx context.Context, tenantID string, ref core.ModelRef) (Reranker, error) {
	provider, err := m.provider(ref)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("resolving reranker", "tenant", tenantID, "model", ref.String())
	return provider.Reranker(ref.Model)
}

// Close closes every registered provider.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for name, provider := range m.providers {
		if err := provider.Close(); err != nil {
			m.logger.Error("error closing provider", "provider", name, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) provider(ref core.ModelRef) (Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	provider, ok := m.providers[ref.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, ref.Provider)
	}
	return provider, nil
}
