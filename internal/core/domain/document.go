package domain

// StoredDocument represents an uploaded PDF tracked by the document store.
// It is created on upload, deleted on explicit removal, and immutable
// otherwise. The store owns it exclusively.
type StoredDocument struct {
	// Filename is the unique key within the store.
	Filename string

	// Size is the file size in bytes.
	Size int64

	// Pages is the page count, computed at upload time so callers can
	// display it without waiting for a training pass.
	Pages int

	// Path is the absolute location on durable storage.
	Path string
}

// Chunk represents a bounded span of extracted text tagged with its origin.
// Chunks are derived fresh during each training run and are not persisted
// independently of the vector index.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Filename is the source document the chunk was cut from.
	Filename string

	// Page is the page number (1-based) on which the chunk starts.
	Page int

	// Position is the ordinal index of the chunk within its document.
	Position int

	// Content is the text span.
	Content string
}

// IndexedVector pairs a chunk with its embedding, as persisted by the
// vector index. Every indexed vector's Filename must correspond to a
// stored document that existed at the start of the most recent
// successful training run.
type IndexedVector struct {
	// Chunk is the owning chunk.
	Chunk Chunk

	// Embedding is the fixed-length vector produced by the embedding
	// model. Its dimensionality is a property of the model and is
	// constant across the index.
	Embedding []float32
}
