package embed

import (
	"context"
	"crypto/md5"
	"fmt"
	"sync"
)

// HashEmbedder generates embeddings using a deterministic hash-based
// approach. Works without external dependencies (no network, no API
// key). The vectors carry no semantic meaning: two texts are "similar"
// only when they share hash windows. This is a known quality
// limitation of the offline fallback, not a bug.
type HashEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

// NewHashEmbedder creates a new hash fallback embedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

// Embed generates an embedding for a single text.
//
// The text is partitioned into 6 fixed-size windows of 100 characters,
// left to right, no overlap; the final window is short when the text
// runs out, and windows past the end are empty. Each window's MD5
// digest is expanded into 64 pseudo-random ±1 values, low bits first,
// giving a 384-dimensional vector that is then L2-normalized.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	runes := []rune(text)
	vector := make([]float32, 0, HashDimensions)

	for w := 0; w < hashWindows; w++ {
		start := w * hashWindowSize
		end := start + hashWindowSize
		if start > len(runes) {
			start = len(runes)
		}
		if end > len(runes) {
			end = len(runes)
		}

		vector = append(vector, windowSigns(string(runes[start:end]))...)
	}

	return normalizeVector(vector), nil
}

// windowSigns hashes one window and expands the digest into 64 ±1
// values. The 128-bit digest is read as a big-endian integer and bits
// 0..63 (least significant first) select the sign.
func windowSigns(window string) []float32 {
	digest := md5.Sum([]byte(window))

	signs := make([]float32, hashBitsPerWindow)
	for j := 0; j < hashBitsPerWindow; j++ {
		// Bit j of the big-endian integer lives in byte 15-j/8.
		bit := (digest[len(digest)-1-j/8] >> (j % 8)) & 1
		if bit == 1 {
			signs[j] = 1.0
		} else {
			signs[j] = -1.0
		}
	}
	return signs
}

// EmbedBatch generates embeddings for multiple texts.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		results[i] = emb
	}

	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return HashDimensions
}

// ModelName returns the model identifier.
func (e *HashEmbedder) ModelName() string {
	return "hash-fallback"
}

// Available checks if the embedder is ready (always true until closed).
func (e *HashEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close releases resources.
func (e *HashEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
