// Package domain defines the core business entities for Paperbase.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - StoredDocument: An uploaded PDF tracked by the document store
//   - Chunk: A bounded span of extracted text, the unit that gets embedded
//   - IndexedVector: A chunk paired with its embedding, as persisted
//   - TrainingStatus: The process-wide state of the training supervisor
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
