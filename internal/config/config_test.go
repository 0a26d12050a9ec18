package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gamefriend-core/internal/chunker"
	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// chdir moves into a fresh directory so no stray .env or gamefriend.yaml is read
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "guides", cfg.GuidesDir)
	assert.Equal(t, "data/embeddings", cfg.EmbeddingsDir)
	assert.Equal(t, chunker.DefaultChunkConfig(), cfg.ChunkConfig())
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, domain.AIProviderOllama, cfg.Embedding.Provider)
	assert.Equal(t, "all-minilm", cfg.Embedding.Model)
	assert.Equal(t, 2*time.Second, cfg.Scraper.Delay)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, domain.SearchOptions{TopK: 5, MaxTokens: 2000}, cfg.SearchOptions())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFiles(t *testing.T) {
	chdir(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	dir := chdir(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))

	assert.Error(t, err)
}

func TestLoad_YAML(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
guides_dir: /srv/guides
chunking:
  size: 200
  overlap: 1
  policy: tokens
embedding:
  provider: openai
  model: text-embedding-3-small
  api_key: sk-file
scraper:
  delay: 500ms
storage:
  backend: postgres
  database_url: postgres://localhost/gamefriend
log:
  format: json
`), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "/srv/guides", cfg.GuidesDir)
	assert.Equal(t, "data/embeddings", cfg.EmbeddingsDir, "unset keys keep defaults")
	assert.Equal(t, chunker.ChunkConfig{ChunkSize: 200, ChunkOverlap: 1, Policy: chunker.SizeTokens}, cfg.ChunkConfig())
	assert.Equal(t, domain.AIProviderOpenAI, cfg.Embedding.Provider)
	assert.Equal(t, "sk-file", cfg.Embedding.APIKey)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.Delay)
	assert.Equal(t, StoragePostgres, cfg.Storage.Backend)
}

func TestLoad_DefaultPathPickedUp(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPath), []byte("batch_size: 8\n"), 0o644))

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.BatchSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPath), []byte("guides_dir: from-file\nbatch_size: 8\n"), 0o644))
	t.Setenv("GAMEFRIEND_GUIDES_DIR", "from-env")
	t.Setenv("GAMEFRIEND_BATCH_SIZE", "16")
	t.Setenv("GAMEFRIEND_FETCH_DELAY", "3s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GuidesDir)
	assert.Equal(t, 16, cfg.BatchSize)
	assert.Equal(t, 3*time.Second, cfg.Scraper.Delay)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "sk-env", cfg.Embedding.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GAMEFRIEND_EMBEDDINGS_DIR=dotenv-dir\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("GAMEFRIEND_EMBEDDINGS_DIR") })

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "dotenv-dir", cfg.EmbeddingsDir)
}

func TestLoad_BadEnvInteger(t *testing.T) {
	chdir(t)
	t.Setenv("GAMEFRIEND_CHUNK_SIZE", "big")

	_, err := Load("")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"overlap not below size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }, domain.ErrInvalidInput},
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }, domain.ErrInvalidInput},
		{"unknown policy", func(c *Config) { c.Chunking.Policy = "words" }, domain.ErrInvalidInput},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, domain.ErrInvalidInput},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }, domain.ErrInvalidProvider},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "s3" }, domain.ErrInvalidInput},
		{"postgres without url", func(c *Config) { c.Storage.Backend = StoragePostgres }, domain.ErrInvalidInput},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, domain.ErrInvalidInput},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, domain.ErrInvalidInput},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log = LogConfig{Level: "debug", Format: "json"}

	cfg.NewLogger(&buf).Debug("generated embeddings", "game_id", "soul-blazer")

	assert.Contains(t, buf.String(), `"game_id":"soul-blazer"`)

	buf.Reset()
	cfg.Log = LogConfig{Level: "warn", Format: "text"}
	cfg.NewLogger(&buf).Info("hidden")
	assert.Empty(t, buf.String())
}
