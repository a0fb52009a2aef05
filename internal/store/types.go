// Package store persists one exact-search vector index per document
// and answers nearest-neighbor queries against it. Each document owns
// two flat-file artifacts in the storage directory:
//
//	{document_id}.index  - gob-encoded vectors
//	{document_id}.meta   - gob-encoded chunks and metadata sidecar
//
// Artifacts are written atomically (temp file + rename) and always as
// a pair; a document either has a complete index or none.
package store

import "fmt"

// Artifact file extensions.
const (
	IndexExt = ".index"
	MetaExt  = ".meta"
	lockExt  = ".lock"
)

// SearchResult is one retrieved chunk, produced per query.
type SearchResult struct {
	// Text is the chunk content.
	Text string
	// Score is the squared L2 distance to the query. Lower is more
	// similar; only relative ordering is meaningful.
	Score float32
	// ChunkIndex is the chunk's 0-based position in the source
	// document. Callers cite "Section N" as ChunkIndex + 1.
	ChunkIndex int
	// Metadata is copied from the index sidecar.
	Metadata map[string]string
}

// indexFile is the gob payload of the .index artifact.
type indexFile struct {
	Dimensions int
	Vectors    [][]float32
}

// metaFile is the gob payload of the .meta sidecar.
type metaFile struct {
	Chunks   []string
	Metadata map[string]string
}

// ErrDimensionMismatch reports a query/index dimensionality conflict.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
