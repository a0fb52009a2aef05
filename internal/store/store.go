package store

import (
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/gofrs/flock"

	herrors "github.com/healthnav/healthnav/internal/errors"
)

// IndexStore manages per-document index artifacts in a single
// directory. Create and Delete serialize per document via an advisory
// file lock; Search reads the artifacts fresh on every call and needs
// no lock because renames are atomic.
type IndexStore struct {
	dir    string
	logger *slog.Logger
}

// NewIndexStore creates a store rooted at dir, creating the directory
// if needed.
func NewIndexStore(dir string, logger *slog.Logger) (*IndexStore, error) {
	if dir == "" {
		return nil, herrors.ValidationError("storage directory must not be empty", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, herrors.New(herrors.ErrCodeStorageWrite,
			fmt.Sprintf("failed to create storage directory %s", dir), err)
	}

	return &IndexStore{dir: dir, logger: logger}, nil
}

// Dir returns the storage directory.
func (s *IndexStore) Dir() string {
	return s.dir
}

// Create builds and persists the index artifacts for documentID,
// fully replacing any existing pair. chunks and embeddings must have
// equal nonzero length and all embeddings must share one dimension.
func (s *IndexStore) Create(documentID string, chunks []string, embeddings [][]float32, metadata map[string]string) error {
	if err := validateDocumentID(documentID); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return herrors.ValidationError(
			fmt.Sprintf("cannot create index for %s with zero chunks", documentID), nil)
	}
	if len(chunks) != len(embeddings) {
		return herrors.ValidationError(
			fmt.Sprintf("chunk/embedding count mismatch for %s: %d chunks, %d embeddings",
				documentID, len(chunks), len(embeddings)), nil)
	}

	dims := len(embeddings[0])
	for i, v := range embeddings {
		if len(v) != dims {
			return herrors.New(herrors.ErrCodeDimensionMismatch,
				fmt.Sprintf("embedding %d has %d dimensions, expected %d", i, len(v), dims),
				ErrDimensionMismatch{Expected: dims, Got: len(v)})
		}
	}

	lock := flock.New(s.lockPath(documentID))
	if err := lock.Lock(); err != nil {
		return herrors.New(herrors.ErrCodeStorageWrite,
			fmt.Sprintf("failed to lock index for %s", documentID), err)
	}
	defer func() { _ = lock.Unlock() }()

	idx := indexFile{Dimensions: dims, Vectors: embeddings}
	meta := metaFile{Chunks: chunks, Metadata: copyMetadata(metadata)}

	indexPath := s.indexPath(documentID)
	metaPath := s.metaPath(documentID)

	if err := writeGobAtomic(indexPath, &idx); err != nil {
		return storageWriteError(documentID, "index", err)
	}
	if err := writeGobAtomic(metaPath, &meta); err != nil {
		// Keep the pair consistent: without a sidecar the new index is
		// unusable, so drop it and degrade to "no index".
		_ = os.Remove(indexPath)
		return storageWriteError(documentID, "sidecar", err)
	}

	s.logger.Info("index_created",
		slog.String("document_id", documentID),
		slog.Int("chunks", len(chunks)),
		slog.Int("dimensions", dims))

	return nil
}

// Search loads the artifacts for documentID fresh from storage and
// returns the min(k, num_chunks) nearest chunks by ascending squared
// L2 distance, best match first. An absent index is a normal state and
// yields an empty result, not an error. Corrupt artifacts also yield
// an empty result and are logged loudly.
func (s *IndexStore) Search(documentID string, query []float32, k int) ([]SearchResult, error) {
	if err := validateDocumentID(documentID); err != nil {
		return nil, err
	}
	if len(query) == 0 {
		return nil, herrors.ValidationError("query embedding must not be empty", nil)
	}

	var idx indexFile
	if err := readGob(s.indexPath(documentID), &idx); err != nil {
		return s.missingOrCorrupt(documentID, "index", herrors.ErrCodeCorruptIndex, err)
	}

	var meta metaFile
	if err := readGob(s.metaPath(documentID), &meta); err != nil {
		return s.missingOrCorrupt(documentID, "sidecar", herrors.ErrCodeCorruptSidecar, err)
	}

	if len(meta.Chunks) != len(idx.Vectors) {
		s.logger.Error("index_corrupt",
			slog.String("document_id", documentID),
			slog.String("code", herrors.ErrCodeCorruptSidecar),
			slog.Int("vectors", len(idx.Vectors)),
			slog.Int("chunks", len(meta.Chunks)))
		return []SearchResult{}, nil
	}

	if len(query) != idx.Dimensions {
		return nil, herrors.New(herrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("query has %d dimensions, index for %s has %d",
				len(query), documentID, idx.Dimensions),
			ErrDimensionMismatch{Expected: idx.Dimensions, Got: len(query)})
	}

	top, scores := nearest(idx.Vectors, query, k)

	results := make([]SearchResult, 0, len(top))
	for i, chunkIdx := range top {
		results = append(results, SearchResult{
			Text:       meta.Chunks[chunkIdx],
			Score:      scores[i],
			ChunkIndex: chunkIdx,
			Metadata:   copyMetadata(meta.Metadata),
		})
	}

	return results, nil
}

// missingOrCorrupt converts an artifact read failure into the search
// contract: empty results, never an error, with log severity matching
// the cause.
func (s *IndexStore) missingOrCorrupt(documentID, artifact, corruptCode string, err error) ([]SearchResult, error) {
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("index_absent",
			slog.String("document_id", documentID),
			slog.String("artifact", artifact))
		return []SearchResult{}, nil
	}

	s.logger.Error("index_corrupt",
		slog.String("document_id", documentID),
		slog.String("artifact", artifact),
		slog.String("code", corruptCode),
		slog.String("error", err.Error()))
	return []SearchResult{}, nil
}

// Delete removes both artifacts for documentID. Deleting a
// nonexistent id is a no-op success.
func (s *IndexStore) Delete(documentID string) error {
	if err := validateDocumentID(documentID); err != nil {
		return err
	}

	lock := flock.New(s.lockPath(documentID))
	if err := lock.Lock(); err != nil {
		return herrors.New(herrors.ErrCodeStorageWrite,
			fmt.Sprintf("failed to lock index for %s", documentID), err)
	}
	defer func() { _ = lock.Unlock() }()

	removed := false
	for _, path := range []string{s.indexPath(documentID), s.metaPath(documentID)} {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, os.ErrNotExist):
			// Idempotent: already gone.
		default:
			return herrors.New(herrors.ErrCodeStorageWrite,
				fmt.Sprintf("failed to delete artifact %s", filepath.Base(path)), err)
		}
	}

	if removed {
		s.logger.Info("index_deleted", slog.String("document_id", documentID))
	}

	return nil
}

// Exists reports whether both artifacts are present for documentID.
func (s *IndexStore) Exists(documentID string) bool {
	if validateDocumentID(documentID) != nil {
		return false
	}
	for _, path := range []string{s.indexPath(documentID), s.metaPath(documentID)} {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// List returns the ids of all documents with a complete artifact
// pair, sorted lexicographically.
func (s *IndexStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, herrors.New(herrors.ErrCodeStorageRead,
			fmt.Sprintf("failed to read storage directory %s", s.dir), err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, IndexExt) {
			continue
		}
		id := strings.TrimSuffix(name, IndexExt)
		if s.Exists(id) {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)
	return ids, nil
}

func (s *IndexStore) indexPath(documentID string) string {
	return filepath.Join(s.dir, documentID+IndexExt)
}

func (s *IndexStore) metaPath(documentID string) string {
	return filepath.Join(s.dir, documentID+MetaExt)
}

func (s *IndexStore) lockPath(documentID string) string {
	return filepath.Join(s.dir, documentID+lockExt)
}

// validateDocumentID rejects ids that would escape the storage
// directory or collide with artifact naming.
func validateDocumentID(id string) error {
	if id == "" {
		return herrors.ValidationError("document id must not be empty", nil)
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return herrors.ValidationError(
			fmt.Sprintf("document id %q must not contain path separators", id), nil)
	}
	return nil
}

// copyMetadata clones metadata so callers cannot mutate stored or
// returned state through a shared map.
func copyMetadata(metadata map[string]string) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

// writeGobAtomic encodes payload to path via a temp file and rename,
// so readers never observe a partial artifact.
func writeGobAtomic(path string, payload any) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := gob.NewEncoder(file).Encode(payload); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode artifact: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename artifact: %w", err)
	}

	return nil
}

// readGob decodes the artifact at path into payload.
func readGob(path string, payload any) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if err := gob.NewDecoder(file).Decode(payload); err != nil {
		return fmt.Errorf("decode artifact %s: %w", filepath.Base(path), err)
	}

	return nil
}

// storageWriteError maps a write failure to a stable code, keeping
// disk exhaustion distinct because it is not recoverable per call.
func storageWriteError(documentID, artifact string, err error) error {
	code := herrors.ErrCodeStorageWrite
	if errors.Is(err, syscall.ENOSPC) {
		code = herrors.ErrCodeDiskFull
	}
	return herrors.New(code,
		fmt.Sprintf("failed to write %s artifact for %s", artifact, documentID), err)
}
