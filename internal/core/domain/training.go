package domain

import "time"

// Training stages as reported through TrainingStatus.Stage.
// Stage labels are display text; transitions are owned by the supervisor.
const (
	StageIdle       = "Idle"
	StageExtracting = "Extracting pages"
	StageEmbedding  = "Embedding vectors"
	StageCommitting = "Saving index"
	StageComplete   = "Complete"
	StageFailed     = "Error"
)

// TrainingStatus is the process-wide state of the training supervisor.
// Exactly one instance exists; it is mutated only by the supervisor and
// read by any number of concurrent pollers, always as a copy.
type TrainingStatus struct {
	// Training reports whether a run is currently active.
	Training bool

	// Stage labels the current phase for display. After a run ends it
	// keeps its last value (StageComplete or StageFailed).
	Stage string

	// Progress is an integer percent, 0-100, monotonically
	// non-decreasing within a run.
	Progress int

	// Message holds the terminal result text: a summary on success, the
	// cause on failure.
	Message string
}

// IndexSnapshot records what the index knew about the document set when
// it was last committed. It is written atomically with the vectors.
type IndexSnapshot struct {
	// DocumentsAtTrain is the number of stored documents captured at the
	// start of the last successful training run.
	DocumentsAtTrain int

	// LastTrainedAt is when the last successful run committed.
	LastTrainedAt time.Time
}

// IndexInfo is the derived report surfaced to callers.
type IndexInfo struct {
	// Documents is the current document count in the store.
	Documents int

	// Vectors is the current number of indexed vectors.
	Vectors int

	// DocumentsAtTrain is the document count at the last successful run.
	DocumentsAtTrain int

	// LastTrainedAt is when the last successful run committed. Zero if
	// the index has never been trained.
	LastTrainedAt time.Time

	// InSync reports whether the store and the index agree on which
	// documents are represented: Documents == DocumentsAtTrain. It is
	// advisory state, never a lock.
	InSync bool
}
