package driving

import (
	"context"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

// Trainer runs full index rebuilds and reports their progress.
type Trainer interface {
	// Start admits a training run and returns immediately. The run
	// executes asynchronously against a snapshot of the document set
	// taken at admission. Returns domain.ErrTrainingInProgress when a
	// run is already active and domain.ErrNoDocuments when the store is
	// empty; in both cases no state changes.
	Start(ctx context.Context) error

	// Status returns a consistent snapshot of the training state. Safe
	// to call at any time from any goroutine; it only reads shared
	// state and never waits on the worker.
	Status() domain.TrainingStatus
}
