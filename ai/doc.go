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


// Package ai provides abstractions for AI services used in Probe.
//
// This package defines interfaces for AI operations including text embeddings,
// reranking and token counting. Retrieval and projection depend on these
// abstractions rather than on a concrete provider.
//
// # Design Principles
//
// The package is designed around a few key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Reranker: Scores candidate documents against a query
//   - Provider: Serves model handles for one backend
//   - ModelManager: Resolves a core.ModelRef to a handle for a tenant
//
// Manager is the standard ModelManager; it routes each ModelRef to the
// Provider registered under its provider name. EmbeddingCache memoizes
// embeddings per model and text across requests.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs via langchaingo
//   - ai/hugot: Local ONNX embedding models
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.Provider
//
// Test utility constructors return CONCRETE types to enable test assertions
// and behavior injection via the mock's public fields and methods.
//
//	mockEmbed := mock.NewMockEmbedder()  // returns *mock.MockEmbedder
//	count := mockEmbed.CallCount()       // test assertion
package ai
