package driven

import (
	"context"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

// DocumentStore persists uploaded PDF documents on durable storage and
// owns their metadata. Filenames are unique keys.
type DocumentStore interface {
	// Add stores a new document. It returns domain.ErrInvalidFileType
	// when the bytes are not a PDF and domain.ErrAlreadyExists on a
	// duplicate filename (uploads never overwrite silently).
	Add(ctx context.Context, filename string, data []byte) (*domain.StoredDocument, error)

	// List returns all stored documents in stable name order.
	List(ctx context.Context) ([]domain.StoredDocument, error)

	// Get retrieves metadata for one document.
	// Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, filename string) (*domain.StoredDocument, error)

	// Remove deletes a document from storage.
	// Returns domain.ErrNotFound when absent.
	Remove(ctx context.Context, filename string) error

	// Read returns the raw bytes of a stored document.
	// Returns domain.ErrNotFound when absent.
	Read(ctx context.Context, filename string) ([]byte, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}
