package services

import (
	"context"
	"fmt"

	"github.com/corvid-labs/paperbase/internal/core/domain"
	"github.com/corvid-labs/paperbase/internal/core/ports/driven"
	"github.com/corvid-labs/paperbase/internal/logger"
)

// Reconciler derives the relationship between the document store and
// the vector index. In sync means the current document count equals the
// count captured at the last successful training run. The flag is
// advisory: it informs callers that a retrain is due, it never blocks
// an operation.
type Reconciler struct {
	docStore driven.DocumentStore
	index    driven.VectorIndex
}

// NewReconciler creates a reconciler over the given stores.
func NewReconciler(docStore driven.DocumentStore, index driven.VectorIndex) *Reconciler {
	return &Reconciler{
		docStore: docStore,
		index:    index,
	}
}

// Info reports the current index state, recomputed from live counts on
// every call so out-of-band mutations are always reflected.
func (r *Reconciler) Info(ctx context.Context) (*domain.IndexInfo, error) {
	docs, err := r.docStore.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	vectors, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count vectors: %w", err)
	}

	snapshot, err := r.index.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	return &domain.IndexInfo{
		Documents:        docs,
		Vectors:          vectors,
		DocumentsAtTrain: snapshot.DocumentsAtTrain,
		LastTrainedAt:    snapshot.LastTrainedAt,
		InSync:           docs == snapshot.DocumentsAtTrain,
	}, nil
}

// Run consumes change notifications from the upload directory watcher
// until the context is cancelled or the channel closes. Each event is
// logged with the freshly derived state; nothing else reacts, since the
// state is recomputed on demand anyway.
func (r *Reconciler) Run(ctx context.Context, changes <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			info, err := r.Info(ctx)
			if err != nil {
				logger.Warn("Reconciliation check failed: %v", err)
				continue
			}
			if !info.InSync {
				logger.Info("Document set changed on disk: %d documents, index trained on %d",
					info.Documents, info.DocumentsAtTrain)
			}
		}
	}
}
