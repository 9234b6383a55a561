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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// AudioHost is the base URL for speech-to-text and text-to-speech.
	AudioHost string

	// APIKey authenticates against the hosts.
	// Local OpenAI-compatible servers accept any value; "none" is the default.
	APIKey string

	// EmbeddingModel is the default model identifier for text embeddings.
	// Datasets normally name their own model.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// TranscriptionModel is the speech-to-text model.
	TranscriptionModel string

	// SpeechModel is the text-to-speech model.
	SpeechModel string

	// CacheEntries bounds the shared embedding cache.
	// Default: 10000
	CacheEntries int64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithAudioHost sets the audio service host URL.
func WithAudioHost(host string) ConfigOption {
	return func(c *Config) {
		c.AudioHost = host
	}
}

// WithHost sets both embedding and audio hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.AudioHost = host
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithTranscriptionModel sets the speech-to-text model.
func WithTranscriptionModel(model string) ConfigOption {
	return func(c *Config) {
		c.TranscriptionModel = model
	}
}

// WithSpeechModel sets the text-to-speech model.
func WithSpeechModel(model string) ConfigOption {
	return func(c *Config) {
		c.SpeechModel = model
	}
}

// WithCacheEntries sets the embedding cache capacity.
func WithCacheEntries(n int64) ConfigOption {
	return func(c *Config) {
		c.CacheEntries = n
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, embedding and audio use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:      defaultHost,
		AudioHost:          defaultHost,
		APIKey:             "none",
		EmbeddingModel:     "embeddinggemma",
		TranscriptionModel: "whisper-1",
		SpeechModel:        "tts-1",
		CacheEntries:       10000,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithEmbeddingModel("text-embedding-3-small"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.AudioHost = normalizeHost(c.AudioHost)
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.AudioHost != "" {
		if c.TranscriptionModel == "" {
			return errors.New("ai config: TranscriptionModel is required when AudioHost is set")
		}
		if c.SpeechModel == "" {
			return errors.New("ai config: SpeechModel is required when AudioHost is set")
		}
	}
	if c.CacheEntries < 1 {
		return errors.New("ai config: CacheEntries must be positive")
	}
	return nil
}
