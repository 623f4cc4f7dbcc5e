package brain

import (
	"context"
	"fmt"

	"github.com/nullgraph/brain/internal/graph"
	"github.com/nullgraph/brain/internal/health"
	"github.com/nullgraph/brain/internal/retrieval"
	"github.com/nullgraph/brain/internal/sleep"
	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/internal/vectorstore"
	"github.com/nullgraph/brain/pkg/types"
)

// AddMemory upserts a node by (title, labels) identity, resolving author,
// domain, and reference edges (spec.md §4.3, §6 "add_memory"). If
// in.Embedding is empty and an embedder is configured, one is computed from
// the node's canonical text and attached before the upsert.
func (b *Brain) AddMemory(ctx context.Context, in graph.AddMemoryInput) (string, error) {
	if len(in.Embedding) == 0 && b.embed.Available() {
		props := map[string]interface{}{"title": in.Title, "content": in.Content}
		if s, ok := in.Properties["summary"]; ok {
			props["summary"] = s
		}
		in.Embedding = b.embed.EncodeNode(ctx, &types.Node{Labels: in.Labels, Properties: props})
	}
	id, err := b.graphAPI.AddMemory(ctx, in)
	if err != nil {
		return "", err
	}
	if len(in.Embedding) > 0 {
		if err := b.vec.Upsert(ctx, id, in.Embedding); err != nil {
			return id, fmt.Errorf("brain: upsert embedding for %s: %w", id, err)
		}
	}
	return id, nil
}

func joinLabels(labels []string) string {
	out := ""
	for i, l := range labels {
		if i > 0 {
			out += " "
		}
		out += l
	}
	return out
}

// AddEdge adds or strengthens an edge between two existing nodes (spec.md
// §6 "add_edge").
func (b *Brain) AddEdge(ctx context.Context, src, tgt, edgeType string, weight float64, props map[string]interface{}) error {
	return b.graphAPI.AddEdge(ctx, src, tgt, edgeType, weight, props)
}

// AddNodeRaw bypasses add_memory's inference pipeline for synthetic nodes
// (spec.md §6 "add_node_raw").
func (b *Brain) AddNodeRaw(ctx context.Context, node *types.Node) error {
	return b.graphAPI.AddNodeRaw(ctx, node)
}

// RemoveNode deletes a node and its incident edges (spec.md §6
// "remove_node"). Its embedding, if any, is removed from the vector store
// too so a stale vector never resurfaces in a later semantic seed.
func (b *Brain) RemoveNode(ctx context.Context, id string) error {
	if err := b.graphAPI.RemoveNode(ctx, id); err != nil {
		return err
	}
	return b.vec.Delete(ctx, id)
}

// Retrieve runs the full hybrid retrieval pipeline (spec.md §6 "retrieve").
func (b *Brain) Retrieve(ctx context.Context, opts retrieval.Options) ([]types.Result, []types.CompactResult, error) {
	return b.retrieval.Retrieve(ctx, opts)
}

// ExpandNodes returns full details (including semantic connections) for a
// caller-chosen set of node IDs (spec.md §6 "expand_nodes").
func (b *Brain) ExpandNodes(ctx context.Context, ids []string) ([]types.Result, error) {
	return b.retrieval.ExpandNodes(ctx, ids)
}

// SpreadingActivation runs iterative BFS activation from seeds over the
// graph (spec.md §6 "spreading_activation").
func (b *Brain) SpreadingActivation(ctx context.Context, seeds []string, maxDepth int, decay float64) (map[string]float64, error) {
	return b.retrieval.SpreadingActivation(ctx, seeds, maxDepth, decay)
}

// SearchByEmbedding runs a raw ANN query against the vector store, bypassing
// keyword fusion and spreading activation (spec.md §6 "search_by_embedding").
func (b *Brain) SearchByEmbedding(ctx context.Context, vec []float32, topK int) ([]vectorstore.Match, error) {
	return b.vec.Query(ctx, vec, topK)
}

func (b *Brain) GetNode(ctx context.Context, id string) (*types.Node, error) {
	return b.graphAPI.GetNode(ctx, id)
}

func (b *Brain) GetAllNodes(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[*types.Node], error) {
	return b.graphAPI.GetAllNodes(ctx, opts)
}

func (b *Brain) GetNeighbors(ctx context.Context, id, edgeType string) ([]storage.NeighborEdge, error) {
	return b.graphAPI.GetNeighbors(ctx, id, edgeType)
}

func (b *Brain) GetPredecessors(ctx context.Context, id, edgeType string) ([]storage.NeighborEdge, error) {
	return b.graphAPI.GetPredecessors(ctx, id, edgeType)
}

func (b *Brain) GetByLabel(ctx context.Context, label string, opts storage.ListOptions) (*storage.PaginatedResult[*types.Node], error) {
	return b.graphAPI.GetByLabel(ctx, label, opts)
}

func (b *Brain) GetEdgesByType(ctx context.Context, edgeType string) ([]*types.Edge, error) {
	return b.graphAPI.GetEdgesByType(ctx, edgeType)
}

func (b *Brain) HasEdge(ctx context.Context, src, tgt, edgeType string) (bool, error) {
	return b.graphAPI.HasEdge(ctx, src, tgt, edgeType)
}

func (b *Brain) GetEdge(ctx context.Context, src, tgt, edgeType string) (*types.Edge, error) {
	return b.graphAPI.GetEdge(ctx, src, tgt, edgeType)
}

// GetStats returns coarse graph counts plus the active vector backend's
// identity (spec.md §6 "get_stats", "Wire-level persisted state": backend
// advertised via get_stats().vector_backend).
func (b *Brain) GetStats(ctx context.Context) (Stats, error) {
	gs, err := b.store.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	backend := "hnsw"
	if b.vec.UsingFallback() {
		backend = "bruteforce"
	}
	return Stats{GraphStats: gs, VectorBackend: backend, EmbeddingModel: b.embed.ModelName()}, nil
}

// Stats is get_stats()'s return shape: the storage layer's coarse counts
// plus the vector backend and embedding model currently in effect.
type Stats struct {
	storage.GraphStats
	VectorBackend  string `json:"vector_backend"`
	EmbeddingModel string `json:"embedding_model"`
}

// Consolidate runs the lightweight co-access consolidation job (spec.md §6
// "consolidate").
func (b *Brain) Consolidate(ctx context.Context) (map[string]interface{}, error) {
	return sleep.Consolidate(ctx, b.sleep)
}

// ApplyDecay runs the Ebbinghaus decay job directly, without the rest of a
// sleep cycle (spec.md §6 "apply_decay").
func (b *Brain) ApplyDecay(ctx context.Context) (map[string]interface{}, error) {
	return health.Decay(ctx, b.store)
}

// SleepCycle runs the named phases (or the default ordered cycle) (spec.md
// §6 "sleep_cycle").
func (b *Brain) SleepCycle(ctx context.Context, phases []string) (map[string]map[string]interface{}, error) {
	return b.sleep.Run(ctx, phases)
}
