// Package config reads and writes probe's YAML configuration file.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/probe/ai"
)

// DatabaseConfig locates the BadgerDB directory.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AIConfig configures model providers.
type AIConfig struct {
	EmbeddingHost      string `yaml:"embedding_host"`
	AudioHost          string `yaml:"audio_host"`
	APIKeyEnv          string `yaml:"api_key_env"`
	EmbeddingModel     string `yaml:"embedding_model"`
	TranscriptionModel string `yaml:"transcription_model"`
	SpeechModel        string `yaml:"speech_model"`
	CacheEntries       int64  `yaml:"cache_entries"`
	ModelDir           string `yaml:"model_dir"` // Local ONNX models; empty disables the hugot provider
}

// ChunkerConfig configures how documents are split into segments.
type ChunkerConfig struct {
	SentencesPerChunk int `yaml:"sentences_per_chunk"`
	OverlapSentences  int `yaml:"overlap_sentences"`
}

// IngestionConfig configures the ingestion worker pool.
type IngestionConfig struct {
	PoolSize       int `yaml:"pool_size"`
	MaxRetries     int `yaml:"max_retries"`
	RetryDelaySecs int `yaml:"retry_delay_secs"`
}

// ReembedConfig configures dataset reembedding.
type ReembedConfig struct {
	BatchSize      int `yaml:"batch_size"`
	MaxRetries     int `yaml:"max_retries"`
	RetryDelaySecs int `yaml:"retry_delay_secs"`
}

// Config is the root configuration structure.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	AI        AIConfig        `yaml:"ai"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Reembed   ReembedConfig   `yaml:"reembed"`
}

// Load reads a config from path. If the file does not exist, returns defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	defaults := ai.DefaultConfig()

	if cfg.Database.Path == "" {
		cfg.Database.Path = "./probe_db"
	}
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = defaults.EmbeddingHost
	}
	if cfg.AI.AudioHost == "" {
		cfg.AI.AudioHost = cfg.AI.EmbeddingHost
	}
	if cfg.AI.APIKeyEnv == "" {
		cfg.AI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = defaults.EmbeddingModel
	}
	if cfg.AI.TranscriptionModel == "" {
		cfg.AI.TranscriptionModel = defaults.TranscriptionModel
	}
	if cfg.AI.SpeechModel == "" {
		cfg.AI.SpeechModel = defaults.SpeechModel
	}
	if cfg.AI.CacheEntries == 0 {
		cfg.AI.CacheEntries = defaults.CacheEntries
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
		if cfg.Chunker.OverlapSentences == 0 {
			cfg.Chunker.OverlapSentences = 1
		}
	}
	if cfg.Ingestion.MaxRetries == 0 {
		cfg.Ingestion.MaxRetries = 3
	}
	if cfg.Ingestion.RetryDelaySecs == 0 {
		cfg.Ingestion.RetryDelaySecs = 1
	}
	if cfg.Reembed.BatchSize == 0 {
		cfg.Reembed.BatchSize = 100
	}
	if cfg.Reembed.MaxRetries == 0 {
		cfg.Reembed.MaxRetries = 3
	}
	if cfg.Reembed.RetryDelaySecs == 0 {
		cfg.Reembed.RetryDelaySecs = 1
	}
}

// ProviderConfig builds the model provider configuration. The API key is
// read from the environment variable named by APIKeyEnv.
func (c *Config) ProviderConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithAudioHost(c.AI.AudioHost),
		ai.WithAPIKey(os.Getenv(c.AI.APIKeyEnv)),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithTranscriptionModel(c.AI.TranscriptionModel),
		ai.WithSpeechModel(c.AI.SpeechModel),
		ai.WithCacheEntries(c.AI.CacheEntries),
	)
}

// RetryDelay returns the ingestion retry base delay.
func (c IngestionConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySecs) * time.Second
}

// RetryDelay returns the reembedding retry base delay.
func (c ReembedConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySecs) * time.Second
}
