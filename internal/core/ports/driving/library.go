package driving

import (
	"context"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

// DocumentLibrary manages the uploaded document set and reports index
// state. Mutations keep the vector index consistent: removing a document
// also removes its vectors, synchronously.
type DocumentLibrary interface {
	// Add stores an uploaded PDF and returns its metadata.
	Add(ctx context.Context, filename string, data []byte) (*domain.StoredDocument, error)

	// List returns all stored documents in stable name order.
	List(ctx context.Context) ([]domain.StoredDocument, error)

	// Remove deletes a document and all vectors derived from it.
	Remove(ctx context.Context, filename string) error

	// Read returns the raw bytes of a stored document, for preview or
	// serving.
	Read(ctx context.Context, filename string) ([]byte, error)

	// Info reports document count, vector count, last-trained timestamp
	// and the in-sync flag.
	Info(ctx context.Context) (*domain.IndexInfo, error)
}
