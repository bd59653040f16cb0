// Package fsstore implements the document store on the local filesystem.
//
// The upload directory is the source of truth: a stored document is a
// PDF file in that directory, and nothing else is persisted. Page
// counts are computed through the extraction adapter and cached in
// memory for the life of the store.
package fsstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/corvid-labs/paperbase/internal/core/domain"
	"github.com/corvid-labs/paperbase/internal/core/ports/driven"
	"github.com/corvid-labs/paperbase/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// pdfMagic is the signature every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// Store is the filesystem-backed document store.
type Store struct {
	dir       string
	extractor driven.PageExtractor

	mu    sync.RWMutex
	pages map[string]int
}

// NewStore creates or opens the document store rooted at the specified
// upload directory. If uploadDir is empty, defaults to
// ~/.paperbase/uploads. The extractor is used to count pages at upload
// time; it may be nil, in which case page counts are reported as zero.
func NewStore(uploadDir string, extractor driven.PageExtractor) (*Store, error) {
	if uploadDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		uploadDir = filepath.Join(home, ".paperbase", "uploads")
	}

	if err := os.MkdirAll(uploadDir, 0700); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &Store{
		dir:       uploadDir,
		extractor: extractor,
		pages:     make(map[string]int),
	}, nil
}

// Dir returns the upload directory path.
func (s *Store) Dir() string {
	return s.dir
}

// docPath resolves a document name to its path inside the upload
// directory. The name must be a bare filename: anything that would
// escape the directory through path separators or ".." is rejected
// before it ever reaches the filesystem.
func (s *Store) docPath(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("%w: filename %q", domain.ErrInvalidInput, filename)
	}
	return filepath.Join(s.dir, filename), nil
}

// Add stores a new document. The filename must be a bare name, the
// bytes must carry the PDF signature, and the name must not collide
// with an existing document: an overwrite would leave index entries the
// index has no way to know are stale.
func (s *Store) Add(ctx context.Context, filename string, data []byte) (*domain.StoredDocument, error) {
	path, err := s.docPath(filename)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, fmt.Errorf("%w: %s is not a PDF", domain.ErrInvalidFileType, filename)
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, filename)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking for %s: %w", filename, err)
	}

	pages, err := s.countPages(ctx, data)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("writing %s: %w", filename, err)
	}

	s.mu.Lock()
	s.pages[filename] = pages
	s.mu.Unlock()

	return &domain.StoredDocument{
		Filename: filename,
		Size:     int64(len(data)),
		Pages:    pages,
		Path:     path,
	}, nil
}

// List returns all stored documents in name order.
func (s *Store) List(ctx context.Context) ([]domain.StoredDocument, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading upload directory: %w", err)
	}

	docs := make([]domain.StoredDocument, 0, len(entries))
	for _, entry := range entries {
		if !isPDFName(entry.Name()) || entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		docs = append(docs, domain.StoredDocument{
			Filename: entry.Name(),
			Size:     info.Size(),
			Pages:    s.pageCount(ctx, entry.Name()),
			Path:     filepath.Join(s.dir, entry.Name()),
		})
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Filename < docs[j].Filename
	})
	return docs, nil
}

// Get retrieves metadata for one document.
func (s *Store) Get(ctx context.Context, filename string) (*domain.StoredDocument, error) {
	path, err := s.docPath(filename)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, filename)
		}
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	return &domain.StoredDocument{
		Filename: filename,
		Size:     info.Size(),
		Pages:    s.pageCount(ctx, filename),
		Path:     path,
	}, nil
}

// Remove deletes a document from storage.
func (s *Store) Remove(ctx context.Context, filename string) error {
	path, err := s.docPath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, filename)
		}
		return fmt.Errorf("removing %s: %w", filename, err)
	}

	s.mu.Lock()
	delete(s.pages, filename)
	s.mu.Unlock()
	return nil
}

// Read returns the raw bytes of a stored document.
func (s *Store) Read(ctx context.Context, filename string) ([]byte, error) {
	path, err := s.docPath(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, filename)
		}
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return data, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("reading upload directory: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if isPDFName(entry.Name()) && !entry.IsDir() {
			count++
		}
	}
	return count, nil
}

// Watch reports mutations made to the upload directory behind the
// store's back, so callers can mark derived state stale when a file is
// dropped in or deleted out of band. The returned channel is coalesced:
// a pending notification absorbs further events. It closes when the
// context is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", s.dir, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !s.handleEvent(event) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Upload watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// handleEvent reports whether a filesystem event affects the document
// set. Hidden files, non-PDF names and chmods are ignored. The page
// cache entry for the touched file is dropped so a rewritten file is
// recounted on next read.
func (s *Store) handleEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || !isPDFName(name) {
		return false
	}
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}

	s.mu.Lock()
	delete(s.pages, name)
	s.mu.Unlock()

	logger.Debug("Upload directory changed: %s (%s)", name, event.Op)
	return true
}

// pageCount returns the cached page count for a stored file, counting
// it through the extractor on a cache miss. Unreadable drop-ins report
// zero pages rather than failing the listing.
func (s *Store) pageCount(ctx context.Context, filename string) int {
	s.mu.RLock()
	pages, ok := s.pages[filename]
	s.mu.RUnlock()
	if ok {
		return pages
	}

	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return 0
	}
	pages, err = s.countPages(ctx, data)
	if err != nil {
		return 0
	}

	s.mu.Lock()
	s.pages[filename] = pages
	s.mu.Unlock()
	return pages
}

func (s *Store) countPages(ctx context.Context, data []byte) (int, error) {
	if s.extractor == nil {
		return 0, nil
	}
	pages, err := s.extractor.PageCount(ctx, data)
	if err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return pages, nil
}

func isPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
