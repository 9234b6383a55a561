// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Reranker,
// ai.TokenCounter, ai.Provider, and ai.ModelManager for use in unit tests.
// The mocks allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior. All mocks are safe for use from
// concurrent search strategies.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	manager := mock.NewMockModelManager()
//	embedder, err := manager.Embedder(ctx, "tenant", ref)
//
//	// Custom behavior injection
//	manager.Embed.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := manager.Embed.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockReranker: Returns the configured score for each document text
//   - MockTokenCounter: One token per four characters
//   - MockProvider, MockModelManager: Hand out the same mocks for every model
package mock
