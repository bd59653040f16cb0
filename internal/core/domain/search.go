package domain

// ScoredChunk is a single similarity search hit.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity to the query, higher is better.
	Score float64
}

// Answer is the result of the retrieval-augmented answer path: the LLM
// response plus the chunks it was grounded on.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are the retrieved chunks used to build the prompt, best
	// match first.
	Sources []ScoredChunk
}
