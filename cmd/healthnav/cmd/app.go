package cmd

import (
	"log/slog"
	"os"

	"github.com/healthnav/healthnav/internal/chunk"
	"github.com/healthnav/healthnav/internal/config"
	"github.com/healthnav/healthnav/internal/embed"
	"github.com/healthnav/healthnav/internal/retrieval"
	"github.com/healthnav/healthnav/internal/store"
)

// app wires config, embedder, store, and manager for one command run.
type app struct {
	cfg     *config.Config
	store   *store.IndexStore
	manager *retrieval.Manager
}

// newApp loads configuration from the working directory and builds the
// retrieval stack from it.
func newApp() (*app, error) {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()

	idx, err := store.NewIndexStore(cfg.Storage.Dir, logger)
	if err != nil {
		return nil, err
	}

	embedder, err := embed.NewEmbedder(cfg.Embeddings)
	if err != nil {
		return nil, err
	}

	manager, err := retrieval.NewManager(embedder, idx, retrieval.Config{
		Chunking: chunk.Options{
			Size:    cfg.Chunking.Size,
			Overlap: cfg.Chunking.Overlap,
		},
		TopK:   cfg.Search.TopK,
		Logger: logger,
	})
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		store:   idx,
		manager: manager,
	}, nil
}

// Close releases the embedder.
func (a *app) Close() {
	_ = a.manager.Close()
}
