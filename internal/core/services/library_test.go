package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

func newTestLibrary(store *trainMockDocStore, index *trainMockIndex) *LibraryService {
	return NewLibraryService(store, index, NewReconciler(store, index))
}

func TestLibraryAdd(t *testing.T) {
	library := newTestLibrary(newTrainMockDocStore(), &trainMockIndex{})

	doc, err := library.Add(context.Background(), "report.pdf", []byte("%PDF-data"))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.Filename)

	docs, err := library.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestLibraryRemove_DeletesVectorsSynchronously(t *testing.T) {
	ctx := context.Background()
	store := newTrainMockDocStore("a.pdf", "b.pdf")
	index := &trainMockIndex{}

	// Vectors from both documents are live.
	require.NoError(t, index.Insert(ctx,
		domain.IndexedVector{Chunk: domain.Chunk{ID: "1", Filename: "a.pdf"}},
		domain.IndexedVector{Chunk: domain.Chunk{ID: "2", Filename: "b.pdf"}},
	))
	require.NoError(t, index.Commit(ctx, domain.IndexSnapshot{DocumentsAtTrain: 2, LastTrainedAt: time.Now()}))

	library := newTestLibrary(store, index)
	require.NoError(t, library.Remove(ctx, "a.pdf"))

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "removed document's vectors are gone when Remove returns")

	_, err = library.Read(ctx, "a.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLibraryRemove_NotFound(t *testing.T) {
	library := newTestLibrary(newTrainMockDocStore(), &trainMockIndex{})

	err := library.Remove(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLibraryInfo_NeverTrained(t *testing.T) {
	library := newTestLibrary(newTrainMockDocStore("a.pdf"), &trainMockIndex{})

	info, err := library.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, info.Documents)
	assert.Equal(t, 0, info.Vectors)
	assert.True(t, info.LastTrainedAt.IsZero())
	assert.False(t, info.InSync, "untrained index with documents is out of sync")
}

func TestLibraryInfo_SyncTransitions(t *testing.T) {
	ctx := context.Background()
	store := newTrainMockDocStore("a.pdf")
	index := &trainMockIndex{}
	library := newTestLibrary(store, index)

	// Simulate a completed training run over the single document.
	require.NoError(t, index.Insert(ctx,
		domain.IndexedVector{Chunk: domain.Chunk{ID: "1", Filename: "a.pdf"}}))
	require.NoError(t, index.Commit(ctx, domain.IndexSnapshot{DocumentsAtTrain: 1, LastTrainedAt: time.Now()}))

	info, err := library.Info(ctx)
	require.NoError(t, err)
	assert.True(t, info.InSync)

	// A new upload makes the index stale.
	_, err = library.Add(ctx, "new.pdf", []byte("%PDF-data"))
	require.NoError(t, err)

	info, err = library.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Documents)
	assert.Equal(t, 1, info.DocumentsAtTrain)
	assert.False(t, info.InSync)

	// Removing the untrained upload restores agreement.
	require.NoError(t, library.Remove(ctx, "new.pdf"))

	info, err = library.Info(ctx)
	require.NoError(t, err)
	assert.True(t, info.InSync)
}

func TestReconcilerRun_StopsWhenChannelCloses(t *testing.T) {
	store := newTrainMockDocStore("a.pdf")
	reconciler := NewReconciler(store, &trainMockIndex{})

	changes := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		reconciler.Run(context.Background(), changes)
		close(done)
	}()

	changes <- struct{}{}
	close(changes)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after channel close")
	}
}
