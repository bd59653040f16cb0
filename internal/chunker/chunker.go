// Package chunker provides fixed-size overlapping text chunking over
// extracted page texts.
package chunker

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters
// between consecutive chunks.
const DefaultChunkOverlap = 200

// pageSeparator joins page texts before splitting so chunk boundaries
// may span pages without losing context at page breaks.
const pageSeparator = "\n\n"

// Chunker splits page texts into fixed-size overlapping chunks. Chunk
// boundaries are a pure function of the input text and the configured
// size/overlap: identical input always yields identical boundaries.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits the ordered page texts of one document into chunks. Each
// chunk records the page (1-based) on which it starts so results can
// cite back to the source page.
func (c *Chunker) Chunk(filename string, pages []string) []domain.Chunk {
	content, offsets := joinPages(pages)
	// All-empty pages still join into separator whitespace; a document
	// with no extractable text yields no chunks at all.
	if strings.TrimSpace(content) == "" {
		return nil
	}

	contentLen := len(content)
	estimated := (contentLen / (c.chunkSize - c.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	position := 0
	start := 0

	for start < contentLen {
		end := start + c.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, domain.Chunk{
			ID:       uuid.New().String(),
			Filename: filename,
			Page:     pageAt(offsets, start),
			Position: position,
			Content:  content[start:end],
		})
		position++

		// Move start forward by (chunkSize - overlap)
		start += c.chunkSize - c.overlap

		if c.chunkSize <= c.overlap {
			break
		}
	}

	return chunks
}

// joinPages concatenates page texts with a separator and returns the
// start offset of each page within the joined text.
func joinPages(pages []string) (string, []int) {
	offsets := make([]int, len(pages))

	var b strings.Builder
	for i, page := range pages {
		if i > 0 {
			b.WriteString(pageSeparator)
		}
		offsets[i] = b.Len()
		b.WriteString(page)
	}

	return b.String(), offsets
}

// pageAt returns the 1-based page number containing the given offset.
func pageAt(offsets []int, offset int) int {
	if len(offsets) == 0 {
		return 1
	}
	// First page whose start is past the offset; the one before it owns it.
	i := sort.SearchInts(offsets, offset+1)
	return i
}
