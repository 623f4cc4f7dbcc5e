// Package embedding is the C8 embedding bridge: the engine never computes
// its own embeddings (spec.md §1 Non-goals), it only holds a reference to a
// pluggable Embedder and survives that embedder's failure.
package embedding

import (
	"context"
	"strings"

	"github.com/nullgraph/brain/pkg/types"
)

// Embedder is the pluggable contract spec.md §4.8 describes: encode(text) ->
// vector<f32>. internal/llm's OllamaClient and OpenAIEmbeddingClient both
// satisfy this narrowed-down interface already (they expose more methods
// than this needs).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}

// Bridge wraps an Embedder with the circuit-breaker survivability spec.md §1
// requires ("whose failure is survivable") and spec.md §4.8's text-builder
// convention. A nil or failing embedder makes Encode return nil rather
// than propagating an error — callers (internal/graph, internal/ingestion) treat a
// nil vector as "no embedding available for this node" and continue without
// a semantic seed, matching BackendQueryFailure in spec.md §7.
type Bridge struct {
	embedder Embedder
}

// New wraps embedder. A nil embedder is valid: every Encode call returns
// nil, letting the engine run keyword-only when no embedding provider
// is configured.
func New(embedder Embedder) *Bridge {
	return &Bridge{embedder: embedder}
}

// ModelName returns the wrapped embedder's model identifier, or "" if no
// embedder is configured.
func (b *Bridge) ModelName() string {
	if b.embedder == nil {
		return ""
	}
	return b.embedder.GetModel()
}

// Available reports whether a real embedder is configured.
func (b *Bridge) Available() bool {
	return b.embedder != nil
}

// Encode produces an embedding for text. A nil embedder, an empty text, or
// an embedder error all make it return nil — embedding production is
// advisory, not required for the engine to keep functioning (spec.md §1).
func (b *Bridge) Encode(ctx context.Context, text string) []float32 {
	if b.embedder == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	vec, err := b.embedder.Embed(ctx, text)
	if err != nil {
		return nil
	}
	return vec
}

// maxContentChars bounds the text-builder's content slice (spec.md §4.8:
// "title + content[:1000] + labels_joined").
const maxContentChars = 1000

// BuildText constructs the text an embedding is produced from for a node:
// title + " " + content[:1000] + " " + labels_joined. Missing content falls
// back to summary (spec.md §4.8).
func BuildText(n *types.Node) string {
	content := n.Content()
	if content == "" {
		content = n.Summary()
	}
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}
	return strings.TrimSpace(n.Title() + " " + content + " " + strings.Join(n.Labels, " "))
}

// EncodeNode is the convenience path internal/graph and internal/ingestion
// use: build the node's canonical text and encode it.
func (b *Bridge) EncodeNode(ctx context.Context, n *types.Node) []float32 {
	return b.Encode(ctx, BuildText(n))
}
