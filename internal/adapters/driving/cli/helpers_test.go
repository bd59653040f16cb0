package cli

import (
	"context"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

// --- Mock driving services for CLI tests ---

type cliMockLibrary struct {
	docs      []domain.StoredDocument
	addErr    error
	removeErr error
	info      domain.IndexInfo
}

func (m *cliMockLibrary) Add(_ context.Context, filename string, data []byte) (*domain.StoredDocument, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	doc := domain.StoredDocument{Filename: filename, Size: int64(len(data)), Pages: 2}
	m.docs = append(m.docs, doc)
	return &doc, nil
}

func (m *cliMockLibrary) List(_ context.Context) ([]domain.StoredDocument, error) {
	return m.docs, nil
}

func (m *cliMockLibrary) Remove(_ context.Context, filename string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	for i, doc := range m.docs {
		if doc.Filename == filename {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *cliMockLibrary) Read(_ context.Context, _ string) ([]byte, error) {
	return []byte("%PDF-mock"), nil
}

func (m *cliMockLibrary) Info(_ context.Context) (*domain.IndexInfo, error) {
	info := m.info
	return &info, nil
}

type cliMockTrainer struct {
	startErr error
	status   domain.TrainingStatus
}

func (m *cliMockTrainer) Start(_ context.Context) error {
	return m.startErr
}

func (m *cliMockTrainer) Status() domain.TrainingStatus {
	return m.status
}

type cliMockSearch struct {
	hits      []domain.ScoredChunk
	searchErr error
	answer    domain.Answer
	answerErr error
}

func (m *cliMockSearch) Search(_ context.Context, _ string, _ int) ([]domain.ScoredChunk, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

func (m *cliMockSearch) Answer(_ context.Context, _ string, _ int) (*domain.Answer, error) {
	if m.answerErr != nil {
		return nil, m.answerErr
	}
	answer := m.answer
	return &answer, nil
}

// setupTestServices wires mock services into the package-level vars and
// returns a cleanup that restores the previous wiring.
func setupTestServices() func() {
	return setupWith(&cliMockLibrary{}, &cliMockTrainer{}, &cliMockSearch{})
}

func setupWith(library *cliMockLibrary, trainer *cliMockTrainer, search *cliMockSearch) func() {
	prevLibrary := libraryService
	prevTrainer := trainerService
	prevSearch := searchService

	SetServices(library, trainer, search)

	return func() {
		libraryService = prevLibrary
		trainerService = prevTrainer
		searchService = prevSearch
	}
}
