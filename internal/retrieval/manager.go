// Package retrieval is the single entry point for building, querying,
// and removing per-document vector indexes. It binds one embedder
// configuration per manager so every vector inside an index comes from
// the same model.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/healthnav/healthnav/internal/chunk"
	"github.com/healthnav/healthnav/internal/embed"
	herrors "github.com/healthnav/healthnav/internal/errors"
	"github.com/healthnav/healthnav/internal/store"
)

// Defaults for manager tuning knobs.
const (
	// DefaultTopK is the number of chunks returned per query when the
	// caller does not ask for a specific k.
	DefaultTopK = 3

	// DefaultEmbedBatchSize is the number of chunks embedded per
	// backend call during index builds.
	DefaultEmbedBatchSize = 32

	// DefaultEmbedConcurrency bounds concurrent embedding batches.
	DefaultEmbedConcurrency = 4
)

// Config tunes a Manager. The zero value selects all defaults.
type Config struct {
	// Chunking configures the word-window splitter. Zero uses the
	// standard 500/100 window.
	Chunking chunk.Options

	// TopK is the default result count for Query. Zero uses DefaultTopK.
	TopK int

	// EmbedBatchSize is the number of chunks per embedding call.
	// Zero uses DefaultEmbedBatchSize.
	EmbedBatchSize int

	// EmbedConcurrency bounds in-flight embedding batches.
	// Zero uses DefaultEmbedConcurrency.
	EmbedConcurrency int

	// Logger receives structured build/query events. Nil uses the
	// process default.
	Logger *slog.Logger
}

// Manager combines the chunker, one bound embedder, and the index
// store behind the three retrieval operations.
type Manager struct {
	embedder    embed.Embedder
	store       *store.IndexStore
	chunking    chunk.Options
	topK        int
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// NewManager creates a Manager. The embedder and store are required;
// a manager with no embedding backend cannot do anything useful, so
// this fails fast rather than degrading later.
func NewManager(embedder embed.Embedder, idx *store.IndexStore, cfg Config) (*Manager, error) {
	if embedder == nil {
		return nil, herrors.New(herrors.ErrCodeNoEmbedder,
			"retrieval manager requires an embedding backend", nil).
			WithSuggestion("configure the 'openai' provider or the offline 'hash' fallback")
	}
	if idx == nil {
		return nil, herrors.ValidationError("retrieval manager requires an index store", nil)
	}

	if cfg.Chunking == (chunk.Options{}) {
		cfg.Chunking = chunk.DefaultOptions()
	}
	if err := cfg.Chunking.Validate(); err != nil {
		return nil, err
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = DefaultEmbedBatchSize
	}
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = DefaultEmbedConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Manager{
		embedder:    embedder,
		store:       idx,
		chunking:    cfg.Chunking,
		topK:        cfg.TopK,
		batchSize:   cfg.EmbedBatchSize,
		concurrency: cfg.EmbedConcurrency,
		logger:      cfg.Logger,
	}, nil
}

// BuildIndex chunks rawText, embeds every chunk in original order, and
// persists the index for documentID, fully replacing any previous
// index. A single failed embedding aborts the whole build; no
// partially-indexed document is ever written.
func (m *Manager) BuildIndex(ctx context.Context, documentID, rawText string, metadata map[string]string) error {
	start := time.Now()

	chunks, err := chunk.Split(rawText, m.chunking)
	if err != nil {
		return err
	}
	texts := chunk.Texts(chunks)

	embeddings, err := m.embedAll(ctx, texts)
	if err != nil {
		m.logger.Error("index_build_failed",
			slog.String("document_id", documentID),
			slog.Int("chunks", len(texts)),
			slog.String("error", err.Error()))
		return fmt.Errorf("embed chunks for %s: %w", documentID, err)
	}

	if err := m.store.Create(documentID, texts, embeddings, metadata); err != nil {
		return err
	}

	m.logger.Info("index_built",
		slog.String("document_id", documentID),
		slog.Int("chunks", len(texts)),
		slog.Duration("elapsed", time.Since(start)))

	return nil
}

// embedAll embeds texts in batches with bounded concurrency, keeping
// results in input order. The first failure cancels the rest.
func (m *Manager) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for start := 0; start < len(texts); start += m.batchSize {
		end := start + m.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		start, end := start, end
		g.Go(func() error {
			batch, err := m.embedder.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(embeddings[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// Query embeds questionText with the same embedder configuration used
// at build time and returns the k best-matching chunks. k <= 0 selects
// the configured default. Querying a document that was never built
// returns an empty result, not an error.
func (m *Manager) Query(ctx context.Context, documentID, questionText string, k int) ([]store.SearchResult, error) {
	if strings.TrimSpace(questionText) == "" {
		return nil, herrors.New(herrors.ErrCodeQueryEmpty,
			"question text must not be empty", nil)
	}
	if k <= 0 {
		k = m.topK
	}

	queryVec, err := m.embedder.Embed(ctx, questionText)
	if err != nil {
		return nil, fmt.Errorf("embed query for %s: %w", documentID, err)
	}

	results, err := m.store.Search(documentID, queryVec, k)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("query_executed",
		slog.String("document_id", documentID),
		slog.Int("k", k),
		slog.Int("results", len(results)))

	return results, nil
}

// RemoveIndex deletes the persisted index for documentID. Removing a
// document that was never built is a no-op success.
func (m *Manager) RemoveIndex(documentID string) error {
	return m.store.Delete(documentID)
}

// HasIndex reports whether documentID has a complete persisted index.
func (m *Manager) HasIndex(documentID string) bool {
	return m.store.Exists(documentID)
}

// Embedder returns the bound embedder.
func (m *Manager) Embedder() embed.Embedder {
	return m.embedder
}

// Close releases the bound embedder.
func (m *Manager) Close() error {
	return m.embedder.Close()
}
