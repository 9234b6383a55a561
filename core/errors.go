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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidQuery indicates a retrieval query is empty or too long.
	ErrInvalidQuery = errors.New("query is required and cannot exceed 250 characters")

	// ErrConfigurationBroken indicates a saved dataset or app configuration is malformed.
	ErrConfigurationBroken = errors.New("configuration broken")

	// ErrInvalidRetrievalConfig indicates a RetrievalConfig failed validation.
	ErrInvalidRetrievalConfig = errors.New("invalid retrieval config")

	// ErrInvalidDataset indicates a Dataset failed validation.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrInvalidSegment indicates a Segment failed validation.
	ErrInvalidSegment = errors.New("invalid segment")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrUnknownSearchMethod indicates an unsupported SearchMethod value.
	ErrUnknownSearchMethod = errors.New("unknown search method")

	// ErrInvalidTopK indicates TopK is not a positive integer.
	ErrInvalidTopK = errors.New("top_k must be greater than 0")

	// ErrRerankingModelRequired indicates reranking is enabled without a model.
	ErrRerankingModelRequired = errors.New("reranking model required when reranking is enabled")

	// ErrScoreThresholdRequired indicates thresholding is enabled without a threshold.
	ErrScoreThresholdRequired = errors.New("score threshold required when score threshold is enabled")

	// ErrMissingIndexNodeID indicates a segment has no index node ID.
	ErrMissingIndexNodeID = errors.New("index node id cannot be empty")
)
