// Package sqlite implements the vector index on a single SQLite file.
//
// The database file is the durable on-disk form of the index: every
// commit is one SQLite transaction, so an interrupted process never
// leaves a torn index, and reopening the same file restores identical
// search behaviour.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/corvid-labs/paperbase/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/corvid-labs/paperbase/internal/core/domain"
	"github.com/corvid-labs/paperbase/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Store is the SQLite-backed vector index.
//
// Similarity metric: cosine over float32 vectors. The metric is part of
// the persisted index's semantics and must not change between writes
// and reads of the same file.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates or opens the vector index at the specified data
// directory. If dataDir is empty, defaults to ~/.paperbase/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".paperbase", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	// Staged rows from a run killed mid-build are worthless: the run's
	// state died with the process.
	if _, err := db.Exec("DELETE FROM staging_vectors"); err != nil {
		db.Close()
		return nil, fmt.Errorf("clearing staging: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Insert stages vectors for the build in progress. Staged rows never
// affect search results until Commit, so repeated inserts are safe even
// if the process dies mid-build.
func (s *Store) Insert(ctx context.Context, vectors ...domain.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO staging_vectors (id, filename, page, position, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			page = excluded.page,
			position = excluded.position,
			content = excluded.content,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, v := range vectors {
		blob := float32SliceToBytes(v.Embedding)
		if _, err := stmt.ExecContext(ctx,
			v.Chunk.ID, v.Chunk.Filename, v.Chunk.Page,
			v.Chunk.Position, v.Chunk.Content, blob,
		); err != nil {
			return fmt.Errorf("staging vector: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Commit publishes all staged vectors in a single transaction: the live
// rows are replaced wholesale by the staged rows and the training
// snapshot is stored. Every run rebuilds the full document set, so the
// staged rows ARE the new index; keeping any prior live row would
// resurrect vectors for documents removed while the run was in flight.
// Either everything is persisted or the previous index remains intact.
func (s *Store) Commit(ctx context.Context, snapshot domain.IndexSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM vectors"); err != nil {
		return fmt.Errorf("clearing previous index: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO vectors (id, filename, page, position, content, embedding)
		SELECT id, filename, page, position, content, embedding FROM staging_vectors
	`); err != nil {
		return fmt.Errorf("promoting staged vectors: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM staging_vectors"); err != nil {
		return fmt.Errorf("clearing staging: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, documents_at_train, last_trained_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			documents_at_train = excluded.documents_at_train,
			last_trained_at = excluded.last_trained_at
	`, snapshot.DocumentsAtTrain, snapshot.LastTrainedAt.UTC()); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Discard drops all staged rows after a failed run.
func (s *Store) Discard(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM staging_vectors"); err != nil {
		return fmt.Errorf("discarding staged vectors: %w", err)
	}
	return nil
}

// DeleteBySource removes all live vectors owned by a filename.
func (s *Store) DeleteBySource(ctx context.Context, filename string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE filename = ?", filename,
	); err != nil {
		return fmt.Errorf("deleting vectors for %s: %w", filename, err)
	}
	return nil
}

// Search returns the k nearest chunks to the query vector by cosine
// similarity, best match first. The scan is brute force over the live
// rows; at the document counts this store is built for, that is simpler
// and fast enough compared to maintaining an approximate index.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, page, position, content, embedding FROM vectors
	`)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []domain.ScoredChunk
	for rows.Next() {
		var chunk domain.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.Filename, &chunk.Page,
			&chunk.Position, &chunk.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}

		embedding := bytesToFloat32Slice(blob)
		if len(embedding) != len(query) {
			// Dimension mismatch means the index was written by a
			// different embedding model; skip rather than miscompare.
			continue
		}

		hits = append(hits, domain.ScoredChunk{
			Chunk: chunk,
			Score: cosineSimilarity(query, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of live vectors.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return count, nil
}

// Snapshot returns the last committed training snapshot, or a zero
// snapshot if the index has never been trained.
func (s *Store) Snapshot(ctx context.Context) (*domain.IndexSnapshot, error) {
	var snapshot domain.IndexSnapshot
	var trainedAt time.Time

	row := s.db.QueryRowContext(ctx,
		"SELECT documents_at_train, last_trained_at FROM index_meta WHERE id = 1")
	if err := row.Scan(&snapshot.DocumentsAtTrain, &trainedAt); err != nil {
		if err == sql.ErrNoRows {
			return &domain.IndexSnapshot{}, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	snapshot.LastTrainedAt = trainedAt
	return &snapshot, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
