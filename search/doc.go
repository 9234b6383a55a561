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
// Package search runs retrieval strategies against a dataset's segments.
//
// Two strategies implement Strategy:
//   - SemanticStrategy embeds the query and ranks segments by vector similarity
//   - FullTextStrategy ranks segments by the share of query terms they contain
//
// RerankRunner re-scores pooled fragments with a reranking model. A strategy
// uses it on its own results when the request names a reranking model and the
// search is not hybrid; hybrid searches rerank once after pooling.
package search
