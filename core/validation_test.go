package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr error
	}{
		{"simple query", "what is hit testing", nil},
		{"exactly max length", strings.Repeat("a", MaxQueryLength), nil},
		{"max length in multibyte runes", strings.Repeat("界", MaxQueryLength), nil},
		{"one over max length", strings.Repeat("a", MaxQueryLength+1), ErrInvalidQuery},
		{"empty", "", ErrInvalidQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateQuery() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateQuery() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRetrievalConfig(t *testing.T) {
	threshold := float32(0.3)

	tests := []struct {
		name    string
		cfg     *RetrievalConfig
		wantErr error
	}{
		{
			name:    "default config",
			cfg:     DefaultRetrievalConfig(),
			wantErr: nil,
		},
		{
			name: "hybrid with reranking and threshold",
			cfg: &RetrievalConfig{
				SearchMethod:          SearchMethodHybrid,
				RerankingEnabled:      true,
				RerankingModel:        &ModelRef{Provider: "mock", Model: "rerank"},
				TopK:                  3,
				ScoreThresholdEnabled: true,
				ScoreThreshold:        &threshold,
			},
			wantErr: nil,
		},
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: ErrInvalidRetrievalConfig,
		},
		{
			name:    "unknown search method",
			cfg:     &RetrievalConfig{SearchMethod: "keyword", TopK: 2},
			wantErr: ErrUnknownSearchMethod,
		},
		{
			name:    "zero top k",
			cfg:     &RetrievalConfig{SearchMethod: SearchMethodSemantic},
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "reranking without model",
			cfg:     &RetrievalConfig{SearchMethod: SearchMethodSemantic, TopK: 2, RerankingEnabled: true},
			wantErr: ErrRerankingModelRequired,
		},
		{
			name:    "threshold enabled without value",
			cfg:     &RetrievalConfig{SearchMethod: SearchMethodSemantic, TopK: 2, ScoreThresholdEnabled: true},
			wantErr: ErrScoreThresholdRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRetrievalConfig(tt.cfg)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRetrievalConfig() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateRetrievalConfig() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRetrievalConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDataset(t *testing.T) {
	tests := []struct {
		name    string
		dataset *Dataset
		wantErr error
	}{
		{
			name:    "economy dataset",
			dataset: &Dataset{TenantID: "t", Name: "docs", IndexingTechnique: IndexingEconomy},
			wantErr: nil,
		},
		{
			name: "high quality dataset",
			dataset: &Dataset{
				TenantID:          "t",
				Name:              "docs",
				IndexingTechnique: IndexingHighQuality,
				EmbeddingProvider: "mock",
				EmbeddingModel:    "embed",
			},
			wantErr: nil,
		},
		{
			name:    "nil dataset",
			dataset: nil,
			wantErr: ErrInvalidDataset,
		},
		{
			name:    "missing tenant",
			dataset: &Dataset{Name: "docs"},
			wantErr: ErrInvalidDataset,
		},
		{
			name:    "high quality without model",
			dataset: &Dataset{TenantID: "t", Name: "docs", IndexingTechnique: IndexingHighQuality},
			wantErr: ErrInvalidDataset,
		},
		{
			name: "broken saved config",
			dataset: &Dataset{
				TenantID:        "t",
				Name:            "docs",
				RetrievalConfig: &RetrievalConfig{SearchMethod: SearchMethodSemantic},
			},
			wantErr: ErrInvalidTopK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDataset(tt.dataset)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDataset() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDataset() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSegment(t *testing.T) {
	tests := []struct {
		name    string
		segment *Segment
		wantErr error
	}{
		{"valid segment", &Segment{Content: "text", IndexNodeID: "node"}, nil},
		{"nil segment", nil, ErrInvalidSegment},
		{"empty content", &Segment{IndexNodeID: "node"}, ErrEmptyContent},
		{"missing node id", &Segment{Content: "text"}, ErrMissingIndexNodeID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSegment(tt.segment)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSegment() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSegment() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
