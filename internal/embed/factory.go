package embed

import (
	"os"
	"strings"
	"time"

	"github.com/healthnav/healthnav/internal/config"
)

// ProviderType represents an embedding provider.
type ProviderType string

const (
	// ProviderOpenAI uses an OpenAI-compatible embeddings endpoint.
	ProviderOpenAI ProviderType = "openai"

	// ProviderHash uses deterministic hash-based embeddings
	// (offline fallback, no semantic grounding).
	ProviderHash ProviderType = "hash"
)

// ParseProvider converts a configured provider string to a ProviderType.
// Empty or unrecognized strings select the hash fallback so the tool
// stays usable without credentials.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "openai":
		return ProviderOpenAI
	case "hash", "":
		return ProviderHash
	default:
		return ProviderHash
	}
}

// String returns the string representation of ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// NewEmbedder creates an embedder from the embeddings configuration.
//
// Query embedding caching is enabled by default; set
// HEALTHNAV_EMBED_CACHE=false to disable it.
func NewEmbedder(cfg config.EmbeddingsConfig) (Embedder, error) {
	var (
		embedder Embedder
		err      error
	)

	switch ParseProvider(cfg.Provider) {
	case ProviderOpenAI:
		embedder, err = NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
			Timeout:    embedTimeout(),
		})
	default:
		embedder = NewHashEmbedder()
	}
	if err != nil {
		return nil, err
	}

	if !isCacheDisabled() {
		embedder = NewCachedEmbedder(embedder, cfg.CacheSize)
	}

	return embedder, nil
}

// embedTimeout reads the optional HEALTHNAV_EMBED_TIMEOUT override
// (e.g. "90s", "2m").
func embedTimeout() time.Duration {
	if v := os.Getenv("HEALTHNAV_EMBED_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// isCacheDisabled checks if embedding cache is disabled via environment.
func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("HEALTHNAV_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// Interface conformance checks.
var (
	_ Embedder = (*HashEmbedder)(nil)
	_ Embedder = (*OpenAIEmbedder)(nil)
	_ Embedder = (*CachedEmbedder)(nil)
)
