package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	herrors "github.com/healthnav/healthnav/internal/errors"
)

// OpenAIConfig configures the remote embedding backend.
type OpenAIConfig struct {
	// APIKey authenticates against the service. Required.
	APIKey string

	// Model is the embedding model name. Defaults to text-embedding-ada-002.
	Model string

	// BaseURL overrides the API endpoint, for OpenAI-compatible servers
	// and tests. Empty uses the official endpoint.
	BaseURL string

	// Dimensions pins the expected dimensionality. 0 means accept the
	// dimensionality of the first response.
	Dimensions int

	// Timeout bounds each HTTP request. 0 uses DefaultTimeout.
	Timeout time.Duration
}

// OpenAIEmbedder generates embeddings via an OpenAI-compatible
// embeddings endpoint. Responses are returned unmodified (the service
// already normalizes its vectors). Calls are not retried here; retry
// policy belongs to the caller.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string

	mu     sync.RWMutex
	dims   int
	closed bool
}

// NewOpenAIEmbedder creates a remote embedder from cfg.
// It fails fast when no API key is configured.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, herrors.New(herrors.ErrCodeNoEmbedder,
			"openai embedding provider requires an API key", nil).
			WithSuggestion("set OPENAI_API_KEY, or select the 'hash' provider for offline use")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		dims:   cfg.Dimensions,
	}, nil
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request,
// preserving input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, herrors.ValidationError(
			fmt.Sprintf("batch of %d texts exceeds maximum of %d", len(texts), MaxBatchSize), nil)
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, classifyRemoteError(err, e.model)
	}

	if len(resp.Data) != len(texts) {
		return nil, herrors.EmbeddingServiceError(
			fmt.Sprintf("embedding service returned %d vectors for %d inputs",
				len(resp.Data), len(texts)), nil)
	}

	results := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, herrors.EmbeddingServiceError(
				fmt.Sprintf("embedding service returned out-of-range index %d", item.Index), nil)
		}
		if len(item.Embedding) == 0 {
			return nil, herrors.EmbeddingServiceError(
				"embedding service returned an empty vector", nil)
		}
		if err := e.checkDimensions(len(item.Embedding)); err != nil {
			return nil, err
		}
		results[item.Index] = item.Embedding
	}

	for i, vec := range results {
		if vec == nil {
			return nil, herrors.EmbeddingServiceError(
				fmt.Sprintf("embedding service returned no vector for input %d", i), nil)
		}
	}

	return results, nil
}

// checkDimensions records the dimensionality from the first response
// and rejects any later drift.
func (e *OpenAIEmbedder) checkDimensions(got int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dims == 0 {
		e.dims = got
		return nil
	}
	if got != e.dims {
		return herrors.New(herrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("embedding dimension changed from %d to %d", e.dims, got), nil)
	}
	return nil
}

// classifyRemoteError maps transport failures onto stable error codes.
func classifyRemoteError(err error, model string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return herrors.New(herrors.ErrCodeNetworkTimeout,
			fmt.Sprintf("embedding request for model %s timed out", model), err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return herrors.EmbeddingServiceError(
			fmt.Sprintf("embedding service rejected request for model %s", model), err)
	}

	return herrors.New(herrors.ErrCodeNetworkUnavailable,
		fmt.Sprintf("embedding service unreachable for model %s", model), err).
		WithSuggestion("check network connectivity and the configured base URL")
}

// Dimensions returns the embedding dimension, or the model default if
// no response has been seen yet.
func (e *OpenAIEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.dims > 0 {
		return e.dims
	}
	return DefaultOpenAIDimensions
}

// ModelName returns the model identifier.
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Available probes the service with a minimal embedding request.
func (e *OpenAIEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return false
	}
	e.mu.RUnlock()

	_, err := e.Embed(ctx, "ping")
	return err == nil
}

// Close releases resources.
func (e *OpenAIEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
