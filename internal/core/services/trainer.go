package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/corvid-labs/paperbase/internal/chunker"
	"github.com/corvid-labs/paperbase/internal/core/domain"
	"github.com/corvid-labs/paperbase/internal/core/ports/driven"
	"github.com/corvid-labs/paperbase/internal/core/ports/driving"
	"github.com/corvid-labs/paperbase/internal/logger"
)

// Ensure TrainingService implements the interface.
var _ driving.Trainer = (*TrainingService)(nil)

// Progress boundaries between training phases. Progress within a phase
// is interpolated and never moves backwards during a run.
const (
	progressExtractEnd = 40
	progressEmbedEnd   = 90
	progressCommitted  = 100
)

// embedBatchSize is the number of chunks sent to the embedding service
// per call.
const embedBatchSize = 32

// TrainingService runs full index rebuilds. At most one run is active
// at a time; admission is decided synchronously in Start and the run
// itself executes on its own goroutine against a snapshot of the
// document set taken at admission.
type TrainingService struct {
	docStore  driven.DocumentStore
	extractor driven.PageExtractor
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	splitter  *chunker.Chunker

	mu      sync.RWMutex
	running bool
	status  domain.TrainingStatus
}

// NewTrainingService creates a training supervisor. The splitter may be
// nil, in which case default chunking is used.
func NewTrainingService(
	docStore driven.DocumentStore,
	extractor driven.PageExtractor,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	splitter *chunker.Chunker,
) *TrainingService {
	if splitter == nil {
		splitter = chunker.New()
	}
	return &TrainingService{
		docStore:  docStore,
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		splitter:  splitter,
		status:    domain.TrainingStatus{Stage: domain.StageIdle},
	}
}

// Start admits a training run and returns immediately. The embedding
// service is pinged first so an offline backend is reported here rather
// than as a mid-run failure. The document set is snapshotted at
// admission: uploads and removals during the run do not affect it. When
// admission fails, the previous status is untouched.
func (s *TrainingService) Start(ctx context.Context) error {
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if err := s.embedder.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	docs, err := s.docStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(docs) == 0 {
		return domain.ErrNoDocuments
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.ErrTrainingInProgress
	}
	s.running = true
	s.status = domain.TrainingStatus{
		Training: true,
		Stage:    domain.StageExtracting,
		Progress: 0,
	}
	s.mu.Unlock()

	logger.Info("Training started: %d documents", len(docs))

	// The run outlives Start's caller; it is only observable through
	// Status and the committed index.
	go s.run(context.Background(), docs)

	return nil
}

// Status returns a copy of the current training state.
func (s *TrainingService) Status() domain.TrainingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// run executes one training pass over the snapshotted document set.
func (s *TrainingService) run(ctx context.Context, docs []domain.StoredDocument) {
	if err := s.build(ctx, docs); err != nil {
		logger.Warn("Training failed: %v", err)
		if discardErr := s.index.Discard(ctx); discardErr != nil {
			logger.Warn("Discarding staged vectors: %v", discardErr)
		}
		s.fail(err)
	}
}

func (s *TrainingService) build(ctx context.Context, docs []domain.StoredDocument) error {
	// Phase 1: extract and chunk every document.
	var chunks []domain.Chunk
	for i, doc := range docs {
		data, err := s.docStore.Read(ctx, doc.Filename)
		if err != nil {
			return fmt.Errorf("read %s: %w", doc.Filename, err)
		}

		pages, err := s.extractor.Pages(ctx, data)
		if err != nil {
			return fmt.Errorf("extract %s: %w", doc.Filename, err)
		}

		docChunks := s.splitter.Chunk(doc.Filename, pages)
		chunks = append(chunks, docChunks...)
		logger.Debug("Extracted %s: %d pages, %d chunks", doc.Filename, len(pages), len(docChunks))

		s.setProgress(domain.StageExtracting, (i+1)*progressExtractEnd/len(docs))
	}

	if len(chunks) == 0 {
		return fmt.Errorf("no text extracted from %d documents", len(docs))
	}

	// Phase 2: embed chunks in batches and stage the vectors.
	s.setProgress(domain.StageEmbedding, progressExtractEnd)
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embed chunks: got %d embeddings for %d chunks", len(embeddings), len(batch))
		}

		vectors := make([]domain.IndexedVector, len(batch))
		for i, chunk := range batch {
			vectors[i] = domain.IndexedVector{Chunk: chunk, Embedding: embeddings[i]}
		}
		if err := s.index.Insert(ctx, vectors...); err != nil {
			return fmt.Errorf("stage vectors: %w", err)
		}

		progress := progressExtractEnd +
			end*(progressEmbedEnd-progressExtractEnd)/len(chunks)
		s.setProgress(domain.StageEmbedding, progress)
	}

	// Phase 3: commit atomically with the snapshot.
	s.setProgress(domain.StageCommitting, progressEmbedEnd)
	snapshot := domain.IndexSnapshot{
		DocumentsAtTrain: len(docs),
		LastTrainedAt:    time.Now().UTC(),
	}
	if err := s.index.Commit(ctx, snapshot); err != nil {
		return fmt.Errorf("commit index: %w", err)
	}

	s.complete(len(docs), len(chunks))
	logger.Info("Training complete: %d documents, %d chunks", len(docs), len(chunks))
	return nil
}

// setProgress advances the visible stage and progress. Progress is
// clamped to be non-decreasing within the run.
func (s *TrainingService) setProgress(stage string, progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if progress < s.status.Progress {
		progress = s.status.Progress
	}
	s.status.Stage = stage
	s.status.Progress = progress
}

func (s *TrainingService) complete(docs, chunks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.status = domain.TrainingStatus{
		Training: false,
		Stage:    domain.StageComplete,
		Progress: progressCommitted,
		Message:  fmt.Sprintf("Indexed %d documents (%d chunks)", docs, chunks),
	}
}

// fail records a terminal failure. Progress keeps its last value so a
// poller sees where the run stopped.
func (s *TrainingService) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.status.Training = false
	s.status.Stage = domain.StageFailed
	s.status.Message = err.Error()
}
