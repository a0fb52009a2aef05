// Package chunk splits raw document text into overlapping word-bounded
// segments. Chunk order is the retrieval identity: downstream consumers
// cite "Section N" as chunk index + 1.
package chunk

import (
	"fmt"
	"strings"

	herrors "github.com/healthnav/healthnav/internal/errors"
)

// Defaults for the word-window splitter.
const (
	DefaultSize    = 500
	DefaultOverlap = 100
)

// Chunk is a contiguous word-bounded slice of a document's text.
type Chunk struct {
	// Index is the 0-based, order-significant position of the chunk.
	Index int
	// Text is the chunk content, words joined by single spaces.
	// Never empty.
	Text string
}

// Options configures the splitter.
type Options struct {
	// Size is the window size in words.
	Size int
	// Overlap is the number of words shared between adjacent windows.
	// Must be strictly less than Size; the splitter fails fast otherwise.
	Overlap int
}

// DefaultOptions returns the standard 500/100 word window.
func DefaultOptions() Options {
	return Options{Size: DefaultSize, Overlap: DefaultOverlap}
}

// Validate checks that the options produce a positive stride.
func (o Options) Validate() error {
	if o.Size <= 0 {
		return herrors.New(herrors.ErrCodeInvalidChunking,
			fmt.Sprintf("chunk size must be positive, got %d", o.Size), nil)
	}
	if o.Overlap < 0 {
		return herrors.New(herrors.ErrCodeInvalidChunking,
			fmt.Sprintf("chunk overlap must be non-negative, got %d", o.Overlap), nil)
	}
	if o.Overlap >= o.Size {
		return herrors.New(herrors.ErrCodeInvalidChunking,
			fmt.Sprintf("chunk overlap (%d) must be less than chunk size (%d)", o.Overlap, o.Size), nil)
	}
	return nil
}

// Split tokenizes text by whitespace and produces a sliding window of
// opts.Size words advancing by opts.Size-opts.Overlap words per step.
// If the result would be empty (e.g., empty or whitespace-only input),
// it returns a single chunk holding the original text, so an index
// always has at least one chunk.
func Split(text string, opts Options) ([]Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	stride := opts.Size - opts.Overlap

	var chunks []Chunk
	for i := 0; i < len(words); i += stride {
		end := i + opts.Size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  strings.Join(words[i:end], " "),
		})
	}

	if len(chunks) == 0 {
		return []Chunk{{Index: 0, Text: text}}, nil
	}

	return chunks, nil
}

// Texts returns the chunk texts in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
