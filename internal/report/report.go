// Package report tracks the documents known to HealthNav and maps
// retrieval hits to human-readable citations.
package report

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	herrors "github.com/healthnav/healthnav/internal/errors"
)

// Status tracks a report through its lifecycle.
type Status string

const (
	// StatusUploaded means the text is registered but not yet indexed.
	StatusUploaded Status = "uploaded"
	// StatusProcessing means indexing is in progress.
	StatusProcessing Status = "processing"
	// StatusIndexed means the vector index is built and queryable.
	StatusIndexed Status = "indexed"
	// StatusError means indexing failed; the report can be retried.
	StatusError Status = "error"
)

// validTransitions encodes the report lifecycle. Re-indexing an
// already-indexed or failed report goes back through processing.
var validTransitions = map[Status][]Status{
	StatusUploaded:   {StatusProcessing},
	StatusProcessing: {StatusIndexed, StatusError},
	StatusIndexed:    {StatusProcessing},
	StatusError:      {StatusProcessing},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Report describes one registered document. The raw text lives here;
// the vector index derived from it lives in the index store under the
// same id.
type Report struct {
	// ID is the document id, shared with the index artifacts.
	ID string
	// Filename is the original upload name.
	Filename string
	// Text is the full extracted document text.
	Text string
	// Size is the document text size in bytes.
	Size int64
	// Status is the report's position in the indexing lifecycle.
	Status Status
	// Metadata carries free-form annotations, copied into the index
	// sidecar at build time.
	Metadata map[string]string
	// UploadedAt records registration time.
	UploadedAt time.Time
}

// Repository stores report records. Implementations must be safe for
// concurrent use.
type Repository interface {
	// Put registers or replaces a report.
	Put(r Report) error

	// Get returns the report for id.
	Get(id string) (Report, error)

	// UpdateStatus moves the report for id to next, enforcing the
	// lifecycle transitions.
	UpdateStatus(id string, next Status) error

	// Delete removes the report for id. Deleting an unknown id is a
	// no-op success.
	Delete(id string) error

	// List returns all reports sorted by upload time, newest first.
	List() ([]Report, error)
}

// NewID generates a random report id.
func NewID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// MemoryRepository is an in-process Repository. Records do not survive
// a restart; only the derived index artifacts are durable.
type MemoryRepository struct {
	mu      sync.RWMutex
	reports map[string]Report
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{reports: make(map[string]Report)}
}

// Put registers or replaces a report. A zero Status defaults to
// uploaded.
func (m *MemoryRepository) Put(r Report) error {
	if r.ID == "" {
		return herrors.ValidationError("report id must not be empty", nil)
	}
	if r.Status == "" {
		r.Status = StatusUploaded
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = r
	return nil
}

// UpdateStatus moves the report for id to next.
func (m *MemoryRepository) UpdateStatus(id string, next Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return herrors.ValidationError(
			fmt.Sprintf("report %s not found", id), nil)
	}
	if !r.Status.CanTransitionTo(next) {
		return herrors.ValidationError(
			fmt.Sprintf("report %s cannot move from %s to %s", id, r.Status, next), nil)
	}

	r.Status = next
	m.reports[id] = r
	return nil
}

// Get returns the report for id.
func (m *MemoryRepository) Get(id string) (Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reports[id]
	if !ok {
		return Report{}, herrors.ValidationError(
			fmt.Sprintf("report %s not found", id), nil)
	}
	return r, nil
}

// Delete removes the report for id.
func (m *MemoryRepository) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reports, id)
	return nil
}

// List returns all reports, newest first.
func (m *MemoryRepository) List() ([]Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r)
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].UploadedAt.Equal(out[b].UploadedAt) {
			return out[a].UploadedAt.After(out[b].UploadedAt)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

var _ Repository = (*MemoryRepository)(nil)
