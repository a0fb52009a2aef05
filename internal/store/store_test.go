package store

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herrors "github.com/healthnav/healthnav/internal/errors"
)

func newTestStore(t *testing.T) *IndexStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewIndexStore(t.TempDir(), logger)
	require.NoError(t, err)
	return s
}

func TestCreateAndSearch_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	chunks := []string{"hemoglobin normal", "glucose elevated", "cholesterol borderline"}
	embeddings := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	metadata := map[string]string{"filename": "labs.pdf"}

	require.NoError(t, s.Create("doc1", chunks, embeddings, metadata))

	results, err := s.Search("doc1", []float32{0, 1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Exact match first with zero distance.
	assert.Equal(t, "glucose elevated", results[0].Text)
	assert.Equal(t, 1, results[0].ChunkIndex)
	assert.Equal(t, float32(0), results[0].Score)
	assert.Equal(t, "labs.pdf", results[0].Metadata["filename"])

	// Scores ascend.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestSearch_SquaredL2Scores(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Create("doc1",
		[]string{"a", "b"},
		[][]float32{{0, 0}, {3, 4}},
		nil))

	results, err := s.Search("doc1", []float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, float32(0), results[0].Score)
	// Distance 5 squared, not 5.
	assert.Equal(t, float32(25), results[1].Score)
}

func TestSearch_TiesBrokenByLowerChunkIndex(t *testing.T) {
	s := newTestStore(t)

	// Three identical vectors: order must follow chunk index.
	vec := []float32{0.5, 0.5}
	require.NoError(t, s.Create("doc1",
		[]string{"first", "second", "third"},
		[][]float32{vec, vec, vec},
		nil))

	results, err := s.Search("doc1", vec, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.ChunkIndex)
	}
}

func TestSearch_KClampedToChunkCount(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Create("doc1",
		[]string{"only chunk"},
		[][]float32{{1, 2, 3}},
		nil))

	results, err := s.Search("doc1", []float32{1, 2, 3}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = s.Search("doc1", []float32{1, 2, 3}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_AbsentIndexReturnsEmpty(t *testing.T) {
	s := newTestStore(t)

	results, err := s.Search("never-built", []float32{1, 2}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_CorruptArtifactReturnsEmpty(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Create("doc1",
		[]string{"chunk"},
		[][]float32{{1, 2}},
		nil))

	require.NoError(t, os.WriteFile(
		filepath.Join(s.Dir(), "doc1"+IndexExt), []byte("not gob"), 0o644))

	results, err := s.Search("doc1", []float32{1, 2}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_DimensionMismatchRejected(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Create("doc1",
		[]string{"chunk"},
		[][]float32{{1, 2, 3}},
		nil))

	_, err := s.Search("doc1", []float32{1, 2}, 3)
	require.Error(t, err)
	assert.Equal(t, herrors.ErrCodeDimensionMismatch, herrors.GetCode(err))
}

func TestCreate_FullReplace(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Create("doc1",
		[]string{"old one", "old two"},
		[][]float32{{1, 0}, {0, 1}},
		map[string]string{"rev": "1"}))

	require.NoError(t, s.Create("doc1",
		[]string{"new"},
		[][]float32{{1, 1}},
		map[string]string{"rev": "2"}))

	results, err := s.Search("doc1", []float32{1, 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Text)
	assert.Equal(t, "2", results[0].Metadata["rev"])
}

func TestCreate_Validation(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name       string
		id         string
		chunks     []string
		embeddings [][]float32
	}{
		{"empty id", "", []string{"a"}, [][]float32{{1}}},
		{"path separator in id", "../escape", []string{"a"}, [][]float32{{1}}},
		{"zero chunks", "doc", nil, nil},
		{"count mismatch", "doc", []string{"a", "b"}, [][]float32{{1}}},
		{"ragged dimensions", "doc", []string{"a", "b"}, [][]float32{{1, 2}, {1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Create(tt.id, tt.chunks, tt.embeddings, nil)
			assert.Error(t, err)
		})
	}
}

func TestDelete_Idempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Create("doc1",
		[]string{"chunk"},
		[][]float32{{1}},
		nil))
	require.True(t, s.Exists("doc1"))

	require.NoError(t, s.Delete("doc1"))
	assert.False(t, s.Exists("doc1"))

	// Second delete of the same id succeeds.
	require.NoError(t, s.Delete("doc1"))

	results, err := s.Search("doc1", []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestList_ReturnsCompletePairsSorted(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Create("zeta", []string{"z"}, [][]float32{{1}}, nil))
	require.NoError(t, s.Create("alpha", []string{"a"}, [][]float32{{1}}, nil))

	// An orphaned index file without its sidecar is not listed.
	require.NoError(t, os.WriteFile(
		filepath.Join(s.Dir(), "orphan"+IndexExt), []byte("x"), 0o644))

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, ids)
}

func TestSearchResult_MetadataIsolated(t *testing.T) {
	s := newTestStore(t)

	metadata := map[string]string{"filename": "report.pdf"}
	require.NoError(t, s.Create("doc1", []string{"chunk"}, [][]float32{{1}}, metadata))

	// Mutating the caller's map after Create must not affect the store.
	metadata["filename"] = "changed"

	results, err := s.Search("doc1", []float32{1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "report.pdf", results[0].Metadata["filename"])

	// Mutating a result must not leak into later searches.
	results[0].Metadata["filename"] = "mutated"
	again, err := s.Search("doc1", []float32{1}, 1)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", again[0].Metadata["filename"])
}
