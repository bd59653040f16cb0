package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

// --- Mock implementations for training testing ---
// Note: These are prefixed with "train" to avoid conflicts with other
// test files in this package.

// trainMockDocStore implements driven.DocumentStore.
type trainMockDocStore struct {
	mu      sync.Mutex
	docs    []domain.StoredDocument
	content map[string][]byte
	listErr error
	readErr error
}

func newTrainMockDocStore(filenames ...string) *trainMockDocStore {
	s := &trainMockDocStore{content: make(map[string][]byte)}
	for _, name := range filenames {
		s.docs = append(s.docs, domain.StoredDocument{Filename: name, Pages: 1})
		s.content[name] = []byte("content of " + name)
	}
	return s
}

func (s *trainMockDocStore) Add(_ context.Context, filename string, data []byte) (*domain.StoredDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := domain.StoredDocument{Filename: filename, Size: int64(len(data))}
	s.docs = append(s.docs, doc)
	s.content[filename] = data
	return &doc, nil
}

func (s *trainMockDocStore) List(_ context.Context) ([]domain.StoredDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.StoredDocument, len(s.docs))
	copy(out, s.docs)
	return out, nil
}

func (s *trainMockDocStore) Get(_ context.Context, filename string) (*domain.StoredDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.Filename == filename {
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *trainMockDocStore) Remove(_ context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range s.docs {
		if doc.Filename == filename {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			delete(s.content, filename)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *trainMockDocStore) Read(_ context.Context, filename string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	data, ok := s.content[filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (s *trainMockDocStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs), nil
}

// trainMockExtractor implements driven.PageExtractor.
type trainMockExtractor struct {
	pagesErr error
}

func (e *trainMockExtractor) Pages(_ context.Context, data []byte) ([]string, error) {
	if e.pagesErr != nil {
		return nil, e.pagesErr
	}
	return []string{string(data)}, nil
}

func (e *trainMockExtractor) PageCount(_ context.Context, _ []byte) (int, error) {
	return 1, nil
}

// trainMockEmbedder implements driven.EmbeddingService. When block is
// set, EmbedBatch waits on it before returning, so tests can hold a
// run mid-flight.
type trainMockEmbedder struct {
	block    chan struct{}
	embedErr error
	pingErr  error
}

func (e *trainMockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *trainMockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if e.block != nil {
		<-e.block
	}
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (e *trainMockEmbedder) Dimensions() int              { return 3 }
func (e *trainMockEmbedder) ModelName() string            { return "mock-embed" }
func (e *trainMockEmbedder) Ping(_ context.Context) error { return e.pingErr }
func (e *trainMockEmbedder) Close() error                 { return nil }

// trainMockIndex implements driven.VectorIndex, tracking staged and
// committed state the way the sqlite store does.
type trainMockIndex struct {
	mu        sync.Mutex
	staged    []domain.IndexedVector
	committed []domain.IndexedVector
	snapshot  domain.IndexSnapshot
	discarded bool
	insertErr error
	commitErr error
}

func (m *trainMockIndex) Insert(_ context.Context, vectors ...domain.IndexedVector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.staged = append(m.staged, vectors...)
	return nil
}

func (m *trainMockIndex) Commit(_ context.Context, snapshot domain.IndexSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = m.staged
	m.staged = nil
	m.snapshot = snapshot
	return nil
}

func (m *trainMockIndex) Discard(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = nil
	m.discarded = true
	return nil
}

func (m *trainMockIndex) DeleteBySource(_ context.Context, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.committed[:0]
	for _, v := range m.committed {
		if v.Chunk.Filename != filename {
			kept = append(kept, v)
		}
	}
	m.committed = kept
	return nil
}

func (m *trainMockIndex) Search(_ context.Context, _ []float32, k int) ([]domain.ScoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []domain.ScoredChunk
	for _, v := range m.committed {
		if len(hits) == k {
			break
		}
		hits = append(hits, domain.ScoredChunk{Chunk: v.Chunk, Score: 1})
	}
	return hits, nil
}

func (m *trainMockIndex) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed), nil
}

func (m *trainMockIndex) Snapshot(_ context.Context) (*domain.IndexSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.snapshot
	return &snapshot, nil
}

func (m *trainMockIndex) Close() error { return nil }

func (m *trainMockIndex) committedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

// --- Tests ---

func waitForStage(t *testing.T, trainer *TrainingService, stage string) domain.TrainingStatus {
	t.Helper()
	require.Eventually(t, func() bool {
		return trainer.Status().Stage == stage
	}, 5*time.Second, 5*time.Millisecond, "expected stage %q, last: %+v", stage, trainer.Status())
	return trainer.Status()
}

func TestStart_NoDocuments(t *testing.T) {
	trainer := NewTrainingService(
		newTrainMockDocStore(), &trainMockExtractor{}, &trainMockEmbedder{}, &trainMockIndex{}, nil)

	err := trainer.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
	assert.Equal(t, domain.StageIdle, trainer.Status().Stage)
}

func TestStart_NoEmbedder(t *testing.T) {
	trainer := NewTrainingService(
		newTrainMockDocStore("a.pdf"), &trainMockExtractor{}, nil, &trainMockIndex{}, nil)

	err := trainer.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestStart_EmbedderUnreachable(t *testing.T) {
	embedder := &trainMockEmbedder{pingErr: errors.New("connection refused")}
	trainer := NewTrainingService(
		newTrainMockDocStore("a.pdf"), &trainMockExtractor{}, embedder, &trainMockIndex{}, nil)

	err := trainer.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, domain.StageIdle, trainer.Status().Stage, "failed admission leaves status untouched")

	// The run is admitted once the backend is back.
	embedder.pingErr = nil
	require.NoError(t, trainer.Start(context.Background()))
	waitForStage(t, trainer, domain.StageComplete)
}

func TestTraining_Success(t *testing.T) {
	index := &trainMockIndex{}
	trainer := NewTrainingService(
		newTrainMockDocStore("a.pdf", "b.pdf"), &trainMockExtractor{}, &trainMockEmbedder{}, index, nil)

	require.NoError(t, trainer.Start(context.Background()))

	status := waitForStage(t, trainer, domain.StageComplete)
	assert.False(t, status.Training)
	assert.Equal(t, 100, status.Progress)
	assert.Contains(t, status.Message, "2 documents")

	assert.Equal(t, 2, index.snapshot.DocumentsAtTrain)
	assert.False(t, index.snapshot.LastTrainedAt.IsZero())
	assert.Greater(t, index.committedCount(), 0)
}

func TestStart_SecondRunRejected(t *testing.T) {
	embedder := &trainMockEmbedder{block: make(chan struct{})}
	trainer := NewTrainingService(
		newTrainMockDocStore("a.pdf"), &trainMockExtractor{}, embedder, &trainMockIndex{}, nil)

	require.NoError(t, trainer.Start(context.Background()))

	err := trainer.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrTrainingInProgress)

	close(embedder.block)
	waitForStage(t, trainer, domain.StageComplete)

	// A fresh run is admitted once the previous one finished.
	require.NoError(t, trainer.Start(context.Background()))
	waitForStage(t, trainer, domain.StageComplete)
}

func TestTraining_SnapshotsDocumentSetAtStart(t *testing.T) {
	store := newTrainMockDocStore("a.pdf")
	embedder := &trainMockEmbedder{block: make(chan struct{})}
	index := &trainMockIndex{}
	trainer := NewTrainingService(store, &trainMockExtractor{}, embedder, index, nil)

	require.NoError(t, trainer.Start(context.Background()))

	// Upload another document while the run is mid-flight.
	_, err := store.Add(context.Background(), "late.pdf", []byte("late"))
	require.NoError(t, err)

	close(embedder.block)
	waitForStage(t, trainer, domain.StageComplete)

	assert.Equal(t, 1, index.snapshot.DocumentsAtTrain, "late upload must not count")
}

func TestTraining_RemovalDuringRunPurgedByRetrain(t *testing.T) {
	store := newTrainMockDocStore("a.pdf", "b.pdf")
	embedder := &trainMockEmbedder{block: make(chan struct{})}
	index := &trainMockIndex{}
	trainer := NewTrainingService(store, &trainMockExtractor{}, embedder, index, nil)

	require.NoError(t, trainer.Start(context.Background()))
	waitForStage(t, trainer, domain.StageEmbedding)

	// Remove a.pdf mid-run, the way the library does: file first, then
	// its live vectors. The in-flight run still carries a.pdf in its
	// snapshot and will commit vectors for it.
	require.NoError(t, store.Remove(context.Background(), "a.pdf"))
	require.NoError(t, index.DeleteBySource(context.Background(), "a.pdf"))

	close(embedder.block)
	waitForStage(t, trainer, domain.StageComplete)

	// The next run sees only b.pdf; its commit must not carry the
	// removed document's vectors forward.
	require.NoError(t, trainer.Start(context.Background()))
	waitForStage(t, trainer, domain.StageComplete)

	index.mu.Lock()
	defer index.mu.Unlock()
	require.NotEmpty(t, index.committed)
	for _, v := range index.committed {
		assert.NotEqual(t, "a.pdf", v.Chunk.Filename, "removed document must not resurface after retrain")
	}
	assert.Equal(t, 1, index.snapshot.DocumentsAtTrain)
}

func TestTraining_EmbeddingFailurePreservesIndex(t *testing.T) {
	index := &trainMockIndex{}
	// Seed a previously committed index.
	require.NoError(t, index.Insert(context.Background(), domain.IndexedVector{
		Chunk:     domain.Chunk{ID: "old", Filename: "a.pdf"},
		Embedding: []float32{1, 0, 0},
	}))
	require.NoError(t, index.Commit(context.Background(), domain.IndexSnapshot{
		DocumentsAtTrain: 1, LastTrainedAt: time.Now(),
	}))

	embedder := &trainMockEmbedder{embedErr: errors.New("model offline")}
	trainer := NewTrainingService(
		newTrainMockDocStore("a.pdf"), &trainMockExtractor{}, embedder, index, nil)

	require.NoError(t, trainer.Start(context.Background()))

	status := waitForStage(t, trainer, domain.StageFailed)
	assert.False(t, status.Training)
	assert.Contains(t, status.Message, "model offline")

	assert.True(t, index.discarded)
	assert.Equal(t, 1, index.committedCount(), "committed index untouched")
	assert.Equal(t, 1, index.snapshot.DocumentsAtTrain, "snapshot untouched")
}

func TestTraining_ExtractFailure(t *testing.T) {
	extractor := &trainMockExtractor{pagesErr: fmt.Errorf("%w: bad xref", domain.ErrUnreadablePDF)}
	index := &trainMockIndex{}
	trainer := NewTrainingService(
		newTrainMockDocStore("broken.pdf"), extractor, &trainMockEmbedder{}, index, nil)

	require.NoError(t, trainer.Start(context.Background()))

	status := waitForStage(t, trainer, domain.StageFailed)
	assert.Contains(t, status.Message, "broken.pdf")
	assert.Equal(t, 0, index.committedCount())
}

func TestTraining_FailedRunCanBeRetried(t *testing.T) {
	embedder := &trainMockEmbedder{embedErr: errors.New("model offline")}
	trainer := NewTrainingService(
		newTrainMockDocStore("a.pdf"), &trainMockExtractor{}, embedder, &trainMockIndex{}, nil)

	require.NoError(t, trainer.Start(context.Background()))
	waitForStage(t, trainer, domain.StageFailed)

	embedder.embedErr = nil
	require.NoError(t, trainer.Start(context.Background()))
	waitForStage(t, trainer, domain.StageComplete)
}

func TestSetProgress_Monotone(t *testing.T) {
	trainer := NewTrainingService(
		newTrainMockDocStore("a.pdf"), &trainMockExtractor{}, &trainMockEmbedder{}, &trainMockIndex{}, nil)

	trainer.setProgress(domain.StageEmbedding, 50)
	trainer.setProgress(domain.StageEmbedding, 40)

	assert.Equal(t, 50, trainer.Status().Progress, "progress never decreases within a run")
}
