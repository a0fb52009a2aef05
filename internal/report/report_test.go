package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthnav/healthnav/internal/store"
)

func TestMemoryRepository_PutGetDelete(t *testing.T) {
	repo := NewMemoryRepository()

	text := "Hemoglobin is 13.2 g/dL."
	r := Report{
		ID:         "abc",
		Filename:   "labs.pdf",
		Text:       text,
		Size:       int64(len(text)),
		UploadedAt: time.Now(),
	}
	require.NoError(t, repo.Put(r))

	got, err := repo.Get("abc")
	require.NoError(t, err)
	// A zero status defaults to uploaded on Put.
	assert.Equal(t, StatusUploaded, got.Status)
	got.Status = ""
	assert.Equal(t, r, got)

	require.NoError(t, repo.Delete("abc"))
	_, err = repo.Get("abc")
	assert.Error(t, err)

	// Deleting an unknown id is a no-op success.
	require.NoError(t, repo.Delete("abc"))
}

func TestMemoryRepository_StatusLifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.Put(Report{ID: "abc"}))

	// uploaded -> processing -> indexed is the happy path.
	require.NoError(t, repo.UpdateStatus("abc", StatusProcessing))
	require.NoError(t, repo.UpdateStatus("abc", StatusIndexed))

	// indexed -> error is not a legal transition.
	assert.Error(t, repo.UpdateStatus("abc", StatusError))

	// Re-indexing goes back through processing, and a failure there
	// can be retried.
	require.NoError(t, repo.UpdateStatus("abc", StatusProcessing))
	require.NoError(t, repo.UpdateStatus("abc", StatusError))
	require.NoError(t, repo.UpdateStatus("abc", StatusProcessing))

	assert.Error(t, repo.UpdateStatus("ghost", StatusProcessing))
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusUploaded, StatusProcessing, true},
		{StatusUploaded, StatusIndexed, false},
		{StatusProcessing, StatusIndexed, true},
		{StatusProcessing, StatusError, true},
		{StatusIndexed, StatusProcessing, true},
		{StatusError, StatusProcessing, true},
		{StatusError, StatusIndexed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestMemoryRepository_PutRequiresID(t *testing.T) {
	repo := NewMemoryRepository()
	assert.Error(t, repo.Put(Report{Filename: "x.pdf"}))
}

func TestMemoryRepository_ListNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Put(Report{ID: "old", UploadedAt: base}))
	require.NoError(t, repo.Put(Report{ID: "new", UploadedAt: base.Add(time.Hour)}))

	reports, err := repo.List()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "new", reports[0].ID)
	assert.Equal(t, "old", reports[1].ID)
}

func TestNewID_Unique(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestSectionLabel(t *testing.T) {
	assert.Equal(t, "Section 1", SectionLabel(0))
	assert.Equal(t, "Section 4", SectionLabel(3))
}

func TestSources_PreservesOrder(t *testing.T) {
	results := []store.SearchResult{
		{Text: "best", Score: 0.1, ChunkIndex: 2},
		{Text: "second", Score: 0.5, ChunkIndex: 0},
	}

	sources := Sources(results)
	require.Len(t, sources, 2)
	assert.Equal(t, Source{Label: "Section 3", Text: "best", Score: 0.1}, sources[0])
	assert.Equal(t, Source{Label: "Section 1", Text: "second", Score: 0.5}, sources[1])
}
