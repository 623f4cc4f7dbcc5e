package llm

import "context"

// EmbeddingGenerator is the interface for generating vector embeddings.
// Returns float32 slice; the vector store keeps vectors as float32.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}
