package driven

import "context"

// PageExtractor converts one document's bytes into ordered page texts.
// It is an external collaborator: the indexing pipeline treats it as a
// pure function over the bytes it is given.
type PageExtractor interface {
	// Pages returns the text of every page in order.
	// Returns domain.ErrUnreadablePDF (wrapped) on malformed input.
	Pages(ctx context.Context, data []byte) ([]string, error)

	// PageCount returns the number of pages without extracting text.
	// Used at upload time so the caller can display a page count before
	// any training pass.
	PageCount(ctx context.Context, data []byte) (int, error)
}
