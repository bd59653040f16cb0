package driving

import (
	"context"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

// SearchService provides the retrieval path over the vector index.
type SearchService interface {
	// Search embeds the query text and returns the k most similar
	// chunks, best match first.
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)

	// Answer retrieves the top-k chunks for the question, composes them
	// into an LLM prompt and returns the generated answer with its
	// sources. Returns domain.ErrLLMUnavailable when no LLM is
	// configured.
	Answer(ctx context.Context, question string, k int) (*domain.Answer, error)
}
