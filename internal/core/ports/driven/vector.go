package driven

import (
	"context"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

// VectorIndex is the persistent store of (vector, chunk, source) records.
// Backed by SQLite; the database file is the durable on-disk form of the
// index, so closing and reopening the store must round-trip search
// results identically.
//
// A training run writes through a staging area: Insert only ever touches
// staged rows, so an interrupted build leaves the committed index intact.
// Commit atomically replaces the whole live index with the staged rows
// and records the training snapshot in the same transaction.
type VectorIndex interface {
	// Insert stages vectors for the build in progress. Safe to call
	// repeatedly; staged rows never affect search results until Commit.
	Insert(ctx context.Context, vectors ...domain.IndexedVector) error

	// Commit publishes all staged vectors: in one transaction it replaces
	// the live rows with the staged rows and stores the snapshot. A run
	// rebuilds the full document set, so the staged rows become the
	// entire index. Either everything is persisted or the previous index
	// remains intact.
	Commit(ctx context.Context, snapshot domain.IndexSnapshot) error

	// Discard drops all staged rows after a failed run.
	Discard(ctx context.Context) error

	// DeleteBySource removes all live vectors owned by a filename.
	// No-op if none exist.
	DeleteBySource(ctx context.Context, filename string) error

	// Search returns the k nearest chunks to the query vector by cosine
	// similarity, best match first.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of live (committed) vectors.
	Count(ctx context.Context) (int, error)

	// Snapshot returns the last committed training snapshot, or a zero
	// snapshot if the index has never been trained.
	Snapshot(ctx context.Context) (*domain.IndexSnapshot, error)

	// Close releases resources and flushes the database file.
	Close() error
}
