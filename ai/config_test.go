package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.AudioHost)
	assert.Equal(t, "none", cfg.APIKey)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "whisper-1", cfg.TranscriptionModel)
	assert.Equal(t, "tts-1", cfg.SpeechModel)
	assert.Equal(t, int64(10000), cfg.CacheEntries)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.AudioHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.AudioHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithAudioHost("https://api.openai.com/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "https://api.openai.com/v1", cfg.AudioHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithAPIKey("sk-test"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithTranscriptionModel("whisper-large"),
			WithSpeechModel("tts-1-hd"),
			WithCacheEntries(50),
		)

		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "whisper-large", cfg.TranscriptionModel)
		assert.Equal(t, "tts-1-hd", cfg.SpeechModel)
		assert.Equal(t, int64(50), cfg.CacheEntries)
	})
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"already has /v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing /v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, AudioHost: tt.host}
			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, tt.expected, cfg.AudioHost)
			assert.Equal(t, "none", cfg.APIKey)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "default config is valid",
			modify: func(c *Config) {},
		},
		{
			name:    "missing embedding host",
			modify:  func(c *Config) { c.EmbeddingHost = "" },
			wantErr: "EmbeddingHost is required",
		},
		{
			name:    "missing embedding model",
			modify:  func(c *Config) { c.EmbeddingModel = "" },
			wantErr: "EmbeddingModel is required",
		},
		{
			name:    "audio host without transcription model",
			modify:  func(c *Config) { c.TranscriptionModel = "" },
			wantErr: "TranscriptionModel is required",
		},
		{
			name:   "no audio host needs no audio models",
			modify: func(c *Config) { c.AudioHost = ""; c.TranscriptionModel = ""; c.SpeechModel = "" },
		},
		{
			name:    "zero cache entries",
			modify:  func(c *Config) { c.CacheEntries = 0 },
			wantErr: "CacheEntries must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{401, ErrModelNotInitialized},
		{403, ErrModelNotInitialized},
		{429, ErrModelQuotaExceeded},
		{404, ErrModelCurrentlyUnsupported},
		{500, ErrModelInvocation},
		{0, ErrModelInvocation},
	}

	for _, tt := range tests {
		t.Run(tt.want.Error(), func(t *testing.T) {
			err := ClassifyStatus(tt.status, assert.AnError)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, assert.AnError)
		})
	}

	assert.Equal(t, ErrModelInvocation, ClassifyStatus(500, nil))
}
