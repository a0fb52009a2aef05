package retrieval

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthnav/healthnav/internal/chunk"
	"github.com/healthnav/healthnav/internal/embed"
	herrors "github.com/healthnav/healthnav/internal/errors"
	"github.com/healthnav/healthnav/internal/store"
)

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	idx, err := store.NewIndexStore(t.TempDir(), logger)
	require.NoError(t, err)

	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	m, err := NewManager(embed.NewHashEmbedder(), idx, cfg)
	require.NoError(t, err)
	return m
}

func TestNewManager_RequiresEmbedder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	idx, err := store.NewIndexStore(t.TempDir(), logger)
	require.NoError(t, err)

	_, err = NewManager(nil, idx, Config{})
	require.Error(t, err)
	assert.Equal(t, herrors.ErrCodeNoEmbedder, herrors.GetCode(err))
	assert.True(t, herrors.IsFatal(err))
}

func TestNewManager_RejectsInvalidChunking(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	idx, err := store.NewIndexStore(t.TempDir(), logger)
	require.NoError(t, err)

	_, err = NewManager(embed.NewHashEmbedder(), idx, Config{
		Chunking: chunk.Options{Size: 10, Overlap: 10},
	})
	require.Error(t, err)
	assert.Equal(t, herrors.ErrCodeInvalidChunking, herrors.GetCode(err))
}

func TestBuildIndexAndQuery_SmallReport(t *testing.T) {
	m := newTestManager(t, Config{})
	defer func() { _ = m.Close() }()

	report := "Hemoglobin is 13.2 g/dL. White blood cells are 11.5 x10^3/uL."
	require.NoError(t, m.BuildIndex(context.Background(), "report-1", report,
		map[string]string{"filename": "labs.pdf"}))
	assert.True(t, m.HasIndex("report-1"))

	// The report fits one chunk, so k=3 clamps to a single result.
	results, err := m.Query(context.Background(), "report-1", "What is my hemoglobin?", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 0, results[0].ChunkIndex)
	assert.Equal(t, report, results[0].Text)
	assert.Equal(t, "labs.pdf", results[0].Metadata["filename"])
}

func TestBuildIndex_MultiChunkOrderPreserved(t *testing.T) {
	m := newTestManager(t, Config{
		Chunking:       chunk.Options{Size: 5, Overlap: 1},
		EmbedBatchSize: 2,
	})
	defer func() { _ = m.Close() }()

	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu"
	require.NoError(t, m.BuildIndex(context.Background(), "doc", text, nil))

	chunks, err := chunk.Split(text, chunk.Options{Size: 5, Overlap: 1})
	require.NoError(t, err)

	// Querying with a chunk's exact text must return that chunk first
	// with zero distance; the hash embedding is deterministic.
	for _, c := range chunks {
		results, err := m.Query(context.Background(), "doc", c.Text, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, c.Index, results[0].ChunkIndex, "chunk %d", c.Index)
		assert.Equal(t, float32(0), results[0].Score)
	}
}

// failingEmbedder fails on a chosen text to simulate a mid-build
// embedding service outage.
type failingEmbedder struct {
	*embed.HashEmbedder
	failOn string
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, text := range texts {
		if text == f.failOn {
			return nil, herrors.EmbeddingServiceError("service unavailable", nil)
		}
	}
	return f.HashEmbedder.EmbedBatch(ctx, texts)
}

func TestBuildIndex_PartialEmbeddingFailureAbortsWhole(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	idx, err := store.NewIndexStore(t.TempDir(), logger)
	require.NoError(t, err)

	embedder := &failingEmbedder{
		HashEmbedder: embed.NewHashEmbedder(),
		failOn:       "e f g h",
	}
	m, err := NewManager(embedder, idx, Config{
		Chunking:       chunk.Options{Size: 4, Overlap: 0},
		EmbedBatchSize: 1,
		Logger:         logger,
	})
	require.NoError(t, err)

	err = m.BuildIndex(context.Background(), "doc", "a b c d e f g h i j k l", nil)
	require.Error(t, err)
	assert.Equal(t, herrors.ErrCodeEmbeddingService, herrors.GetCode(err))

	// No partially-indexed document: nothing was persisted.
	assert.False(t, m.HasIndex("doc"))
	results, err := m.Query(context.Background(), "doc", "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQuery_UnbuiltDocumentReturnsEmpty(t *testing.T) {
	m := newTestManager(t, Config{})
	defer func() { _ = m.Close() }()

	results, err := m.Query(context.Background(), "ghost", "anything at all", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQuery_EmptyQuestionRejected(t *testing.T) {
	m := newTestManager(t, Config{})
	defer func() { _ = m.Close() }()

	for _, q := range []string{"", "   ", "\n"} {
		_, err := m.Query(context.Background(), "doc", q, 3)
		require.Error(t, err, "question %q", q)
		assert.Equal(t, herrors.ErrCodeQueryEmpty, herrors.GetCode(err))
	}
}

func TestQuery_DefaultTopK(t *testing.T) {
	m := newTestManager(t, Config{
		Chunking: chunk.Options{Size: 2, Overlap: 0},
		TopK:     2,
	})
	defer func() { _ = m.Close() }()

	require.NoError(t, m.BuildIndex(context.Background(), "doc",
		"a b c d e f g h i j", nil))

	results, err := m.Query(context.Background(), "doc", "c d", 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRemoveIndex_Idempotent(t *testing.T) {
	m := newTestManager(t, Config{})
	defer func() { _ = m.Close() }()

	require.NoError(t, m.BuildIndex(context.Background(), "doc", "some text", nil))
	require.NoError(t, m.RemoveIndex("doc"))
	assert.False(t, m.HasIndex("doc"))
	require.NoError(t, m.RemoveIndex("doc"))
}

func TestBuildIndex_FullRebuildReplacesIndex(t *testing.T) {
	m := newTestManager(t, Config{})
	defer func() { _ = m.Close() }()

	require.NoError(t, m.BuildIndex(context.Background(), "doc", "old content", nil))
	require.NoError(t, m.BuildIndex(context.Background(), "doc", "new content", nil))

	results, err := m.Query(context.Background(), "doc", "content", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new content", results[0].Text)
}
