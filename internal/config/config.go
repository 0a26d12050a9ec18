// Package config loads gamefriend settings from an optional YAML file, an
// optional .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/gamefriend-core/internal/chunker"
	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

// DefaultPath is read when no --config flag is given; a missing file is fine
const DefaultPath = "gamefriend.yaml"

// Storage backends
const (
	StorageFilesystem = "filesystem"
	StoragePostgres   = "postgres"
)

// ChunkingConfig controls how guides are split before embedding
type ChunkingConfig struct {
	Size    int    `yaml:"size"`
	Overlap int    `yaml:"overlap"`
	Policy  string `yaml:"policy"`
}

// SearchConfig holds retrieval defaults
type SearchConfig struct {
	TopK      int `yaml:"top_k"`
	MaxTokens int `yaml:"max_tokens"`
}

// ScraperConfig controls guide downloads
type ScraperConfig struct {
	Delay     time.Duration `yaml:"delay"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// StorageConfig selects where embedding records live
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
}

// RedisConfig enables the distributed lock and cache invalidation when URL is set
type RedisConfig struct {
	URL     string `yaml:"url"`
	Channel string `yaml:"channel"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig configures the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root configuration
type Config struct {
	GuidesDir     string                   `yaml:"guides_dir"`
	EmbeddingsDir string                   `yaml:"embeddings_dir"`
	Chunking      ChunkingConfig           `yaml:"chunking"`
	Embedding     domain.EmbeddingSettings `yaml:"embedding"`
	BatchSize     int                      `yaml:"batch_size"`
	Concurrency   int                      `yaml:"concurrency"`
	Search        SearchConfig             `yaml:"search"`
	Scraper       ScraperConfig            `yaml:"scraper"`
	Storage       StorageConfig            `yaml:"storage"`
	Redis         RedisConfig              `yaml:"redis"`
	Server        ServerConfig             `yaml:"server"`
	LockTTL       time.Duration            `yaml:"lock_ttl"`
	WatchDebounce time.Duration            `yaml:"watch_debounce"`
	Log           LogConfig                `yaml:"log"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		GuidesDir:     "guides",
		EmbeddingsDir: "data/embeddings",
		Chunking: ChunkingConfig{
			Size:    chunker.DefaultChunkSize,
			Overlap: chunker.DefaultChunkOverlap,
			Policy:  string(chunker.SizeChars),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			Model:    "all-minilm",
		},
		BatchSize:   32,
		Concurrency: 1,
		Search: SearchConfig{
			TopK:      domain.DefaultTopK,
			MaxTokens: domain.DefaultMaxTokens,
		},
		Scraper: ScraperConfig{
			Delay:   2 * time.Second,
			Timeout: 30 * time.Second,
		},
		Storage:       StorageConfig{Backend: StorageFilesystem},
		Server:        ServerConfig{Host: "0.0.0.0", Port: 8080},
		LockTTL:       10 * time.Minute,
		WatchDebounce: 2 * time.Second,
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. An explicit path must exist; an empty path
// falls back to DefaultPath when present. A .env file in the working
// directory is loaded first and never overrides variables already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables on top of the file values
func (c *Config) applyEnv() error {
	c.GuidesDir = getEnv("GAMEFRIEND_GUIDES_DIR", c.GuidesDir)
	c.EmbeddingsDir = getEnv("GAMEFRIEND_EMBEDDINGS_DIR", c.EmbeddingsDir)
	c.Chunking.Policy = getEnv("GAMEFRIEND_SIZE_POLICY", c.Chunking.Policy)
	c.Embedding.Provider = domain.AIProvider(getEnv("GAMEFRIEND_EMBEDDING_PROVIDER", string(c.Embedding.Provider)))
	c.Embedding.Model = getEnv("GAMEFRIEND_EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.BaseURL = getEnv("GAMEFRIEND_EMBEDDING_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.APIKey = getEnv("OPENAI_API_KEY", c.Embedding.APIKey)
	c.Storage.Backend = getEnv("GAMEFRIEND_STORAGE", c.Storage.Backend)
	c.Storage.DatabaseURL = getEnv("DATABASE_URL", c.Storage.DatabaseURL)
	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Server.Host = getEnv("GAMEFRIEND_HOST", c.Server.Host)
	c.Scraper.UserAgent = getEnv("GAMEFRIEND_USER_AGENT", c.Scraper.UserAgent)
	c.Log.Level = getEnv("GAMEFRIEND_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("GAMEFRIEND_LOG_FORMAT", c.Log.Format)

	var err error
	ints := []struct {
		key string
		dst *int
	}{
		{"GAMEFRIEND_CHUNK_SIZE", &c.Chunking.Size},
		{"GAMEFRIEND_CHUNK_OVERLAP", &c.Chunking.Overlap},
		{"GAMEFRIEND_BATCH_SIZE", &c.BatchSize},
		{"GAMEFRIEND_CONCURRENCY", &c.Concurrency},
		{"GAMEFRIEND_TOP_K", &c.Search.TopK},
		{"GAMEFRIEND_MAX_TOKENS", &c.Search.MaxTokens},
		{"GAMEFRIEND_PORT", &c.Server.Port},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvInt(v.key, *v.dst); err != nil {
			return err
		}
	}
	if c.Scraper.Delay, err = getEnvDuration("GAMEFRIEND_FETCH_DELAY", c.Scraper.Delay); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	if err := c.ChunkConfig().Validate(); err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", domain.ErrInvalidInput, c.BatchSize)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", domain.ErrInvalidInput, c.Concurrency)
	}
	if c.Embedding.Provider != "" && !c.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidProvider, c.Embedding.Provider)
	}
	switch c.Storage.Backend {
	case StorageFilesystem:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("%w: postgres storage requires database_url", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, c.Storage.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidInput, c.Server.Port)
	}
	if c.Scraper.Delay < 0 {
		return fmt.Errorf("%w: scraper delay must not be negative", domain.ErrInvalidInput)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("%w: log format must be text or json, got %q", domain.ErrInvalidInput, c.Log.Format)
	}
	return nil
}

// ChunkConfig converts the chunking section for the chunker package
func (c *Config) ChunkConfig() chunker.ChunkConfig {
	return chunker.ChunkConfig{
		ChunkSize:    c.Chunking.Size,
		ChunkOverlap: c.Chunking.Overlap,
		Policy:       chunker.SizePolicy(c.Chunking.Policy),
	}
}

// SearchOptions returns the configured retrieval defaults
func (c *Config) SearchOptions() domain.SearchOptions {
	return domain.SearchOptions{TopK: c.Search.TopK, MaxTokens: c.Search.MaxTokens}.Normalize()
}

// NewLogger builds the slog logger described by the log section
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", domain.ErrInvalidInput, s)
	}
	return level, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", domain.ErrInvalidInput, key, value)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", domain.ErrInvalidInput, key, value)
	}
	return d, nil
}
