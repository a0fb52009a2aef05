// Package config loads HealthNav configuration from defaults, config
// files, and environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Embedding provider names accepted in configuration.
const (
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

// Chunking defaults match the retrieval contract: 500-word windows
// advancing by 400 words.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
	DefaultTopK         = 3
)

// Config represents the complete HealthNav configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// StorageConfig configures where per-document index artifacts live.
type StorageConfig struct {
	// Dir is the directory holding {document_id}.index and
	// {document_id}.meta pairs.
	Dir string `yaml:"dir" json:"dir"`
}

// ChunkingConfig configures the word-window chunker.
type ChunkingConfig struct {
	// Size is the chunk window size in words.
	Size int `yaml:"size" json:"size"`
	// Overlap is the number of words shared between adjacent chunks.
	// Must be strictly less than Size.
	Overlap int `yaml:"overlap" json:"overlap"`
}

// EmbeddingsConfig configures the embedding backend.
type EmbeddingsConfig struct {
	// Provider selects the backend: "openai" or "hash".
	// Empty selects the hash fallback (no network dependency).
	Provider string `yaml:"provider" json:"provider"`
	// Model is the remote embedding model name.
	Model string `yaml:"model" json:"model"`
	// Dimensions pins the embedding dimensionality. 0 means use the
	// backend's native dimensionality.
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	// BaseURL overrides the OpenAI-compatible API endpoint.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// APIKey is read from the environment only (OPENAI_API_KEY or
	// HEALTHNAV_OPENAI_API_KEY); it is never written to config files.
	APIKey string `yaml:"-" json:"-"`
	// CacheSize is the number of query embeddings to keep in the LRU
	// cache. 0 uses the default.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// SearchConfig configures similarity search behavior.
type SearchConfig struct {
	// TopK is the default number of chunks returned per query.
	TopK int `yaml:"top_k" json:"top_k"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Storage: StorageConfig{
			Dir: defaultStorageDir(),
		},
		Chunking: ChunkingConfig{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "", // Empty selects the hash fallback
			Model:      "text-embedding-ada-002",
			Dimensions: 0,
			CacheSize:  0,
		},
		Search: SearchConfig{
			TopK: DefaultTopK,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultStorageDir returns the default index artifact directory.
func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".healthnav", "vector_stores")
	}
	return filepath.Join(home, ".healthnav", "vector_stores")
}

// GetUserConfigPath returns the path to the user configuration file,
// following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "healthnav", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "healthnav", "config.yaml")
	}
	return filepath.Join(home, ".config", "healthnav", "config.yaml")
}

// Load loads configuration from the specified directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/healthnav/config.yaml)
//  3. Project config (.healthnav.yaml in dir)
//  4. .env file in dir (loaded into the environment, existing vars win)
//  5. Environment variables (HEALTHNAV_*, OPENAI_API_KEY)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	userPath := GetUserConfigPath()
	if fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	// .env is a convenience for API keys; a missing file is fine.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromDir attempts to load .healthnav.yaml or .healthnav.yml from dir.
func (c *Config) loadFromDir(dir string) error {
	for _, name := range []string{".healthnav.yaml", ".healthnav.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Storage.Dir != "" {
		c.Storage.Dir = other.Storage.Dir
	}
	if other.Chunking.Size != 0 {
		c.Chunking.Size = other.Chunking.Size
	}
	if other.Chunking.Overlap != 0 {
		c.Chunking.Overlap = other.Chunking.Overlap
	}
	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BaseURL != "" {
		c.Embeddings.BaseURL = other.Embeddings.BaseURL
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}
	if other.Search.TopK != 0 {
		c.Search.TopK = other.Search.TopK
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
}

// applyEnvOverrides applies HEALTHNAV_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HEALTHNAV_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("HEALTHNAV_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("HEALTHNAV_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("HEALTHNAV_EMBEDDINGS_BASE_URL"); v != "" {
		c.Embeddings.BaseURL = v
	}
	if v := os.Getenv("HEALTHNAV_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Chunking.Size = n
		}
	}
	if v := os.Getenv("HEALTHNAV_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Chunking.Overlap = n
		}
	}
	if v := os.Getenv("HEALTHNAV_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.TopK = n
		}
	}
	if v := os.Getenv("HEALTHNAV_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	// API key: project-specific var wins over the conventional one.
	if v := os.Getenv("HEALTHNAV_OPENAI_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir must not be empty")
	}

	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must be non-negative, got %d", c.Chunking.Overlap)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap (%d) must be less than chunking.size (%d)",
			c.Chunking.Overlap, c.Chunking.Size)
	}

	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.top_k must be positive, got %d", c.Search.TopK)
	}

	if c.Embeddings.Provider != "" { // Empty string selects the hash fallback
		switch strings.ToLower(c.Embeddings.Provider) {
		case ProviderOpenAI, ProviderHash:
		default:
			return fmt.Errorf("embeddings.provider must be %q, %q, or empty, got %q",
				ProviderOpenAI, ProviderHash, c.Embeddings.Provider)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s",
			c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
