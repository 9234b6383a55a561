package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "./probe_db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.Chunker.SentencesPerChunk)
	assert.Equal(t, 1, cfg.Chunker.OverlapSentences)
	assert.Equal(t, "OPENAI_API_KEY", cfg.AI.APIKeyEnv)
}

func TestLoad_PartialFileKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	data := []byte(`
database:
  path: /var/lib/probe
ai:
  embedding_host: http://embed:8080/v1
  embedding_model: text-embedding-3-small
chunker:
  sentences_per_chunk: 3
reembed:
  batch_size: 25
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/probe", cfg.Database.Path)
	assert.Equal(t, "http://embed:8080/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, "http://embed:8080/v1", cfg.AI.AudioHost, "audio host follows embedding host")
	assert.Equal(t, "text-embedding-3-small", cfg.AI.EmbeddingModel)
	assert.Equal(t, 3, cfg.Chunker.SentencesPerChunk)
	assert.Equal(t, 0, cfg.Chunker.OverlapSentences)
	assert.Equal(t, 25, cfg.Reembed.BatchSize)
	assert.Equal(t, time.Second, cfg.Reembed.RetryDelay())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "probe.yaml")
	cfg := Default()
	cfg.AI.ModelDir = "/models"
	cfg.Ingestion.PoolSize = 8

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestProviderConfig(t *testing.T) {
	t.Setenv("PROBE_TEST_KEY", "sk-from-env")

	cfg := Default()
	cfg.AI.APIKeyEnv = "PROBE_TEST_KEY"
	cfg.AI.CacheEntries = 42

	providerCfg := cfg.ProviderConfig()
	assert.Equal(t, "sk-from-env", providerCfg.APIKey)
	assert.Equal(t, cfg.AI.EmbeddingModel, providerCfg.EmbeddingModel)
	assert.Equal(t, int64(42), providerCfg.CacheEntries)
	require.NoError(t, providerCfg.Validate())
}
