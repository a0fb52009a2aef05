// Package embed generates vector embeddings for document chunks and
// queries. Two backends are provided: a remote OpenAI-compatible
// service and a deterministic hash fallback that works offline.
package embed

import (
	"context"
	"math"
	"time"
)

// Common embedding constants.
const (
	// DefaultTimeout is the default timeout for remote embedding requests.
	DefaultTimeout = 60 * time.Second

	// MaxBatchSize is the maximum number of texts per remote request
	// (prevents memory exhaustion and oversized payloads).
	MaxBatchSize = 256
)

// Hash fallback constants.
const (
	// HashDimensions is the embedding dimension for the hash fallback:
	// 6 windows of 64 signs each.
	HashDimensions = hashWindows * hashBitsPerWindow

	hashWindows       = 6
	hashWindowSize    = 100 // characters per window
	hashBitsPerWindow = 64
)

// OpenAI constants.
const (
	// DefaultOpenAIModel is the default remote embedding model.
	DefaultOpenAIModel = "text-embedding-ada-002"

	// DefaultOpenAIDimensions is the native dimension of ada-002.
	DefaultOpenAIDimensions = 1536
)

// Embedder generates vector embeddings for text.
// All embeddings inside one index must come from the same Embedder
// configuration; the retrieval manager binds one instance per store.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v // Zero vector stays as-is
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
