package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppConfigDefaults(t *testing.T) {
	cfg := NewAppConfig()

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "main", cfg.Branch())
	assert.Equal(t, DefaultReposDir, cfg.ReposDir())
	assert.Equal(t, DefaultEmbeddingBatch, cfg.Embedding().BatchSize())
	assert.Equal(t, DefaultUpsertBatch, cfg.Vector().UpsertBatch())
	assert.Equal(t, DefaultVectorTimeout, cfg.Vector().Timeout())
	assert.Equal(t, 0, cfg.Vector().Dim())
	assert.False(t, cfg.AllowDataReset())
}

func TestCollectionName(t *testing.T) {
	cfg := NewAppConfig().Apply(WithAppEnv("prod"))

	assert.Equal(t, "git_rag-prod-textembedding3large", cfg.CollectionName("text-embedding-3-large"))
	// Falls back to the configured default model.
	assert.Equal(t, "git_rag-prod-textembedding3large", cfg.CollectionName(""))
}

func TestModelSlug(t *testing.T) {
	assert.Equal(t, "textembedding3small", ModelSlug("Text-Embedding-3-Small"))
	assert.Equal(t, "bgem3", ModelSlug("BAAI bge-m3"))
}

func TestApplyOverrides(t *testing.T) {
	cfg := NewAppConfig().Apply(
		WithHost("127.0.0.1"),
		WithPort(9000),
		WithBranch("develop"),
		WithAllowDataReset(true),
	)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, "develop", cfg.Branch())
	assert.True(t, cfg.AllowDataReset())

	// The original is untouched.
	assert.Equal(t, DefaultPort, NewAppConfig().Port())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("REPOS_DIR", "/srv/repos")
	t.Setenv("EMB_MODEL", "bge-m3")
	t.Setenv("QDRANT_UPSERT_BATCH", "64")
	t.Setenv("QDRANT_TIMEOUT", "12.5")
	t.Setenv("CHUNK_LINES", "80")
	t.Setenv("ALLOW_DATA_RESET", "true")

	envCfg, err := LoadFromEnv()
	require.NoError(t, err)

	cfg := envCfg.ToAppConfig()
	assert.Equal(t, 9191, cfg.Port())
	assert.Equal(t, "/srv/repos", cfg.ReposDir())
	assert.Equal(t, "bge-m3", cfg.Embedding().Model())
	assert.Equal(t, 64, cfg.Vector().UpsertBatch())
	assert.Equal(t, 12500*time.Millisecond, cfg.Vector().Timeout())
	assert.Equal(t, 80, cfg.Chunking().ChunkLines())
	assert.True(t, cfg.AllowDataReset())
	assert.Equal(t, "git_rag-dev-bgem3", cfg.CollectionName(""))
}

func TestEnvDefaultsWhenUnset(t *testing.T) {
	envCfg, err := LoadFromEnv()
	require.NoError(t, err)

	cfg := envCfg.ToAppConfig()
	assert.Equal(t, DefaultEmbeddingBaseURL, cfg.Embedding().BaseURL())
	assert.Equal(t, DefaultVectorURL, cfg.Vector().URL())
	assert.Equal(t, DefaultChunkTokens, cfg.Chunking().ChunkTokens())
}
