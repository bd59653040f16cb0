package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/corvid-labs/paperbase/internal/core/domain"
	"github.com/corvid-labs/paperbase/internal/core/ports/driven"
	"github.com/corvid-labs/paperbase/internal/core/ports/driving"
	"github.com/corvid-labs/paperbase/internal/logger"
)

// Ensure Searcher implements the interface.
var _ driving.SearchService = (*Searcher)(nil)

// DefaultTopK is the number of chunks retrieved when the caller does
// not specify one.
const DefaultTopK = 5

// answerPrompt frames retrieved chunks for the LLM. Each excerpt is
// labelled with its source file and page so the model can cite them.
const answerPrompt = `Answer the question using only the excerpts below.
If the excerpts do not contain the answer, say so. Cite the source file
and page for every claim.

%s
Question: %s

Answer:`

// Searcher provides similarity search over the index and, when an LLM
// is configured, grounded answers with sources.
type Searcher struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
}

// NewSearcher creates the search service. The LLM is optional: with a
// nil LLM, Answer returns domain.ErrLLMUnavailable while Search keeps
// working.
func NewSearcher(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
) *Searcher {
	return &Searcher{
		embedder: embedder,
		index:    index,
		llm:      llm,
	}
}

// Search embeds the query and returns the k most similar chunks, best
// match first.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if k <= 0 {
		k = DefaultTopK
	}

	logger.Debug("Embedding query (%d chars)", len(query))
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	logger.Debug("Search returned %d chunks", len(hits))
	return hits, nil
}

// Answer retrieves the top-k chunks for the question, frames them into
// a prompt and returns the generated answer with its sources.
func (s *Searcher) Answer(ctx context.Context, question string, k int) (*domain.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	hits, err := s.Search(ctx, question, k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &domain.Answer{
			Text: "No indexed content matches the question. Upload documents and train the index first.",
		}, nil
	}

	var excerpts strings.Builder
	for _, hit := range hits {
		fmt.Fprintf(&excerpts, "[%s, page %d]\n%s\n\n",
			hit.Chunk.Filename, hit.Chunk.Page, hit.Chunk.Content)
	}

	prompt := fmt.Sprintf(answerPrompt, excerpts.String(), question)
	logger.Debug("Answer prompt: %d chars from %d chunks", len(prompt), len(hits))

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:    strings.TrimSpace(text),
		Sources: hits,
	}, nil
}
