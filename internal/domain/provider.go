package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage across layers.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Completer is the shared text generation contract (judge verdicts and answers).
type Completer interface {
	Complete(ctx context.Context, prompt string) (GeneratedText, error)
}

// GeneratedText carries a completion and its token usage across layers.
type GeneratedText struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Searcher is the nearest-neighbor search contract. Implementations return up
// to k candidate passages for the question, or an empty slice if the index is
// empty.
type Searcher interface {
	Search(ctx context.Context, question string, k int) ([]Passage, error)
}
