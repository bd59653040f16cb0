// Package driving defines the interfaces through which external actors
// call INTO the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// Core services implement them; the CLI (and any future web layer)
// depends on them, never on concrete services.
//
//   - DocumentLibrary: upload, list, remove, read, index info
//   - Trainer: start a training run, poll its status
//   - SearchService: similarity search and the answer path
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any service or adapter package
package driving
