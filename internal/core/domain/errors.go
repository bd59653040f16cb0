package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a document with the same filename is
	// already stored. Uploads never overwrite silently: the index has no
	// way to learn that a file changed underneath it.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidFileType indicates uploaded bytes are not a PDF.
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnreadablePDF indicates a PDF could not be parsed by the
	// extraction adapter.
	ErrUnreadablePDF = errors.New("unreadable PDF")

	// ErrTrainingInProgress indicates a training run is already active.
	// At most one run may execute at a time.
	ErrTrainingInProgress = errors.New("training in progress")

	// ErrNoDocuments indicates a training run was requested against an
	// empty document store.
	ErrNoDocuments = errors.New("no documents to train")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or not reachable. Training and semantic search are
	// disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// The answer path is disabled; plain search still works.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
