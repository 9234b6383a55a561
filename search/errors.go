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
package search

import "errors"

var (
	// ErrSegmentRepositoryRequired is returned when a segment repository is not provided.
	ErrSegmentRepositoryRequired = errors.New("segment repository required")

	// ErrModelManagerRequired is returned when a request needs a model manager the strategy lacks.
	ErrModelManagerRequired = errors.New("model manager required")

	// ErrEmbedderRequired is returned when a semantic request carries no embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRerankerRequired is returned when a rerank runner is built without a reranker.
	ErrRerankerRequired = errors.New("reranker required")
)
