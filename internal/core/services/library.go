package services

import (
	"context"
	"fmt"

	"github.com/corvid-labs/paperbase/internal/core/domain"
	"github.com/corvid-labs/paperbase/internal/core/ports/driven"
	"github.com/corvid-labs/paperbase/internal/core/ports/driving"
	"github.com/corvid-labs/paperbase/internal/logger"
)

// Ensure LibraryService implements the interface.
var _ driving.DocumentLibrary = (*LibraryService)(nil)

// LibraryService manages the uploaded document set. Mutations keep the
// vector index consistent synchronously: by the time Remove returns,
// the removed document's vectors are gone too.
type LibraryService struct {
	docStore   driven.DocumentStore
	index      driven.VectorIndex
	reconciler *Reconciler
}

// NewLibraryService creates a document library over the given stores.
func NewLibraryService(
	docStore driven.DocumentStore,
	index driven.VectorIndex,
	reconciler *Reconciler,
) *LibraryService {
	return &LibraryService{
		docStore:   docStore,
		index:      index,
		reconciler: reconciler,
	}
}

// Add stores an uploaded PDF. The document is not indexed until the
// next training run; Info reports out of sync until then.
func (s *LibraryService) Add(ctx context.Context, filename string, data []byte) (*domain.StoredDocument, error) {
	doc, err := s.docStore.Add(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("add document: %w", err)
	}

	logger.Info("Stored %s: %d pages, %d bytes", doc.Filename, doc.Pages, doc.Size)
	return doc, nil
}

// List returns all stored documents in stable name order.
func (s *LibraryService) List(ctx context.Context) ([]domain.StoredDocument, error) {
	return s.docStore.List(ctx)
}

// Remove deletes a document and, synchronously, all vectors derived
// from it. A failure between the two steps can leave the document gone
// with its vectors still live; the next training run or Remove retry
// clears them, and Info reports out of sync meanwhile.
func (s *LibraryService) Remove(ctx context.Context, filename string) error {
	if err := s.docStore.Remove(ctx, filename); err != nil {
		return fmt.Errorf("remove document: %w", err)
	}

	if err := s.index.DeleteBySource(ctx, filename); err != nil {
		return fmt.Errorf("remove vectors for %s: %w", filename, err)
	}

	logger.Info("Removed %s and its vectors", filename)
	return nil
}

// Read returns the raw bytes of a stored document.
func (s *LibraryService) Read(ctx context.Context, filename string) ([]byte, error) {
	return s.docStore.Read(ctx, filename)
}

// Info reports document count, vector count, last-trained timestamp and
// the in-sync flag.
func (s *LibraryService) Info(ctx context.Context) (*domain.IndexInfo, error) {
	return s.reconciler.Info(ctx)
}
