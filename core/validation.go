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

import (
	"fmt"
	"unicode/utf8"
)

// MaxQueryLength is the longest accepted retrieval query, in characters.
const MaxQueryLength = 250

// ValidateQuery checks a retrieval query before any work begins.
//
// Validation rules:
//   - Query must not be empty
//   - Query must be at most MaxQueryLength characters (runes, not bytes)
func ValidateQuery(query string) error {
	if query == "" {
		return fmt.Errorf("%w: query is empty", ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(query); n > MaxQueryLength {
		return fmt.Errorf("%w: got %d characters", ErrInvalidQuery, n)
	}
	return nil
}

// ValidateRetrievalConfig validates a RetrievalConfig according to domain rules.
//
// Validation rules:
//   - SearchMethod must be semantic, full text, or hybrid
//   - TopK must be positive
//   - RerankingModel must be set when RerankingEnabled
//   - ScoreThreshold must be set when ScoreThresholdEnabled
func ValidateRetrievalConfig(cfg *RetrievalConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidRetrievalConfig)
	}

	if err := ValidateSearchMethod(cfg.SearchMethod); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRetrievalConfig, err)
	}

	if cfg.TopK <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRetrievalConfig, ErrInvalidTopK)
	}

	if cfg.RerankingEnabled && cfg.RerankingModel == nil {
		return fmt.Errorf("%w: %w", ErrInvalidRetrievalConfig, ErrRerankingModelRequired)
	}

	if cfg.ScoreThresholdEnabled && cfg.ScoreThreshold == nil {
		return fmt.Errorf("%w: %w", ErrInvalidRetrievalConfig, ErrScoreThresholdRequired)
	}

	return nil
}

// ValidateSearchMethod validates that a SearchMethod has a known value.
func ValidateSearchMethod(method SearchMethod) error {
	switch method {
	case SearchMethodSemantic, SearchMethodFullText, SearchMethodHybrid:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownSearchMethod, method)
}

// ValidateDataset validates a Dataset according to domain rules.
//
// Validation rules:
//   - TenantID and Name must not be empty
//   - high quality datasets must name an embedding provider and model
//   - a saved RetrievalConfig, if present, must be valid
func ValidateDataset(dataset *Dataset) error {
	if dataset == nil {
		return fmt.Errorf("%w: dataset is nil", ErrInvalidDataset)
	}
	if dataset.TenantID == "" {
		return fmt.Errorf("%w: tenant id is empty", ErrInvalidDataset)
	}
	if dataset.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidDataset)
	}
	if dataset.IndexingTechnique == IndexingHighQuality {
		if dataset.EmbeddingProvider == "" || dataset.EmbeddingModel == "" {
			return fmt.Errorf("%w: embedding model is required for high quality indexing", ErrInvalidDataset)
		}
	}
	if dataset.RetrievalConfig != nil {
		if err := ValidateRetrievalConfig(dataset.RetrievalConfig); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDataset, err)
		}
	}
	return nil
}

// ValidateSegment validates a Segment according to domain rules.
//
// NOT validated (populated by ingestion):
//   - Vector (empty until embedded)
//   - ID (0 is valid until assigned from the sequence)
func ValidateSegment(segment *Segment) error {
	if segment == nil {
		return fmt.Errorf("%w: segment is nil", ErrInvalidSegment)
	}
	if segment.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, ErrEmptyContent)
	}
	if segment.IndexNodeID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, ErrMissingIndexNodeID)
	}
	return nil
}
