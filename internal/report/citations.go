package report

import (
	"fmt"

	"github.com/healthnav/healthnav/internal/store"
)

// Source is one retrieved passage with its human-readable citation.
type Source struct {
	// Label cites the passage by document position, e.g. "Section 3".
	Label string
	// Text is the passage content.
	Text string
	// Score is the squared L2 distance of the match; lower is better.
	Score float32
}

// SectionLabel converts a 0-based chunk index to its citation label.
func SectionLabel(chunkIndex int) string {
	return fmt.Sprintf("Section %d", chunkIndex+1)
}

// Sources converts search results into citation-labeled sources,
// preserving result order (best match first).
func Sources(results []store.SearchResult) []Source {
	out := make([]Source, 0, len(results))
	for _, r := range results {
		out = append(out, Source{
			Label: SectionLabel(r.ChunkIndex),
			Text:  r.Text,
			Score: r.Score,
		})
	}
	return out
}
