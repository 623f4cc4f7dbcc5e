package llm

import (
	"fmt"

	"github.com/nullgraph/brain/internal/config"
)

// NewEmbeddingGenerator builds the EmbeddingGenerator named by
// EMBEDDING_PROVIDER (spec.md §6 "Environment"): "local" selects Ollama,
// "openai" selects the OpenAI embeddings API. Anthropic has no embeddings
// endpoint, so it is not a valid EMBEDDING_PROVIDER value (spec.md §4.8 only
// requires a pluggable encode(text) -> vector, not a specific provider).
func NewEmbeddingGenerator(cfg config.LLMConfig) (EmbeddingGenerator, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		model := cfg.OpenAIEmbeddingModel
		if model == "" {
			model = "text-embedding-3-small"
		}
		return NewOpenAIEmbeddingClient(OpenAIEmbeddingConfig{APIKey: cfg.OpenAIAPIKey, Model: model}), nil
	case "local", "":
		baseURL := cfg.OllamaURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.OllamaEmbeddingModel
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaClient(OllamaConfig{BaseURL: baseURL, Model: model}), nil
	default:
		return nil, fmt.Errorf("llm: unsupported EMBEDDING_PROVIDER %q", cfg.EmbeddingProvider)
	}
}
