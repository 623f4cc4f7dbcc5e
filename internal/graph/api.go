// Package graph implements the C3 Graph API: the single entry point other
// components use to add and query nodes and edges. It wraps a
// storage.GraphStore with the upsert-safe, inference-driven add_memory path
// (author resolution, domain inference, reference resolution) described in
// spec.md §4.3, while add_node_raw stays a thin bypass for synthetic nodes
// that callers (sleep, ingestion) have already fully shaped.
package graph

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// nodeCacheSize bounds the get_node LRU cache. Reference/author resolution
// re-fetches the same handful of Person/ADR/Pattern nodes repeatedly during
// a single ingestion run, so a small cache avoids re-hitting SQLite for
// nodes that were just read.
const nodeCacheSize = 512

// API is the graph facade. It is safe for concurrent use: all mutation goes
// through the underlying storage.GraphStore, which serializes writers.
type API struct {
	store     storage.GraphStore
	now       func() time.Time
	nodeCache *lru.Cache[string, *types.Node]
}

// New builds a graph API over the given store. now defaults to time.Now and
// is only overridden by tests.
func New(store storage.GraphStore) *API {
	cache, _ := lru.New[string, *types.Node](nodeCacheSize)
	return &API{store: store, now: time.Now, nodeCache: cache}
}

// cachedGetNode is GetNode with an LRU in front of it. It must not be used
// on any path that needs to observe a write made earlier in the same
// request (reference resolution only ever reads nodes it isn't about to
// mutate), since the cache is invalidated only on this API's own
// AddMemory/AddNodeRaw/RemoveNode calls touching that ID.
func (a *API) cachedGetNode(ctx context.Context, id string) (*types.Node, error) {
	if n, ok := a.nodeCache.Get(id); ok {
		return n, nil
	}
	n, err := a.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	a.nodeCache.Add(id, n)
	return n, nil
}

func (a *API) invalidateNode(id string) {
	a.nodeCache.Remove(id)
}

// AddMemoryInput carries add_memory's optional fields so the positional
// argument list doesn't grow every time a new property is supported.
type AddMemoryInput struct {
	Title      string
	Content    string
	Labels     []string
	Author     string
	Properties map[string]interface{}
	References []string
	Embedding  []float32
}

// AddMemory upserts a node by (title, labels) identity, resolving its author
// into a Person node + AUTHORED_BY edge, inferring a Domain node + BELONGS_TO
// edge from content, and resolving any ADR-NNN/PAT-NNN/EXP-NNN/[[wikilink]]
// references into REFERENCES edges (with the INFORMED_BY/APPLIES typed
// upgrades). It returns the node's deterministic ID.
func (a *API) AddMemory(ctx context.Context, in AddMemoryInput) (string, error) {
	if in.Title == "" {
		return "", fmt.Errorf("graph: add_memory requires a title")
	}

	id := types.NodeID(in.Title, in.Labels)
	now := a.now()

	props := map[string]interface{}{}
	if existing, err := a.store.GetNode(ctx, id); err == nil && existing != nil {
		props = cloneProps(existing.Properties)
	} else if err != nil && err != storage.ErrNotFound {
		return "", fmt.Errorf("graph: lookup existing node %s: %w", id, err)
	}
	for k, v := range in.Properties {
		props[k] = v
	}
	props["title"] = in.Title
	props["content"] = in.Content
	if _, ok := props["summary"]; !ok {
		props["summary"] = types.DeriveSummary(in.Content)
	}
	if in.Author != "" {
		props["author"] = in.Author
	}
	if len(in.Embedding) > 0 {
		props["embedding"] = in.Embedding
	}

	node := &types.Node{
		ID:         id,
		Labels:     append([]string(nil), in.Labels...),
		Properties: props,
		Memory:     types.NewMemory(now, types.DecayRateForLabels(in.Labels)),
	}
	if err := a.store.UpsertNode(ctx, node); err != nil {
		return "", fmt.Errorf("graph: upsert node %s: %w", id, err)
	}
	a.invalidateNode(id)

	if in.Author != "" {
		personID, err := a.ResolvePerson(ctx, in.Author)
		if err != nil {
			return "", fmt.Errorf("graph: resolve author %q: %w", in.Author, err)
		}
		edge := &types.Edge{
			From:      id,
			To:        personID,
			Type:      types.EdgeAuthoredBy,
			Weight:    types.DefaultEdgeWeight(types.EdgeAuthoredBy),
			CreatedAt: now,
		}
		if err := a.store.UpsertEdge(ctx, edge); err != nil {
			return "", fmt.Errorf("graph: link author: %w", err)
		}
	}

	if domainName := InferDomain(in.Content); domainName != "" {
		domainID, err := a.ensureDomain(ctx, domainName, now)
		if err != nil {
			return "", fmt.Errorf("graph: resolve domain %q: %w", domainName, err)
		}
		edge := &types.Edge{
			From:      id,
			To:        domainID,
			Type:      types.EdgeBelongsTo,
			Weight:    types.DefaultEdgeWeight(types.EdgeBelongsTo),
			CreatedAt: now,
		}
		if err := a.store.UpsertEdge(ctx, edge); err != nil {
			return "", fmt.Errorf("graph: link domain: %w", err)
		}
	}

	if err := a.resolveReferences(ctx, node, in.Content, in.References, now); err != nil {
		return "", fmt.Errorf("graph: resolve references: %w", err)
	}

	return id, nil
}

// AddEdge is the multi-edge-safe edge-add path: re-adding an existing
// (src, tgt, type) triple keeps the higher weight (spec.md §3 invariants).
// A zero weight falls back to the edge type's typed default.
func (a *API) AddEdge(ctx context.Context, src, tgt, edgeType string, weight float64, props map[string]interface{}) error {
	if weight == 0 {
		weight = types.DefaultEdgeWeight(edgeType)
	}
	edge := &types.Edge{
		From:       src,
		To:         tgt,
		Type:       edgeType,
		Weight:     types.ClampWeight(weight),
		Properties: props,
		CreatedAt:  a.now(),
	}
	return a.store.UpsertEdge(ctx, edge)
}

// AddNodeRaw bypasses author/domain/reference inference for synthetic nodes
// (Theme, PatternCluster, and other nodes sleep/ingestion construct fully
// themselves).
func (a *API) AddNodeRaw(ctx context.Context, node *types.Node) error {
	if node.Memory.CreatedAt.IsZero() {
		node.Memory = types.NewMemory(a.now(), types.DecayRateForLabels(node.Labels))
	}
	if err := a.store.UpsertNode(ctx, node); err != nil {
		return err
	}
	a.invalidateNode(node.ID)
	return nil
}

func (a *API) GetNode(ctx context.Context, id string) (*types.Node, error) {
	return a.store.GetNode(ctx, id)
}

func (a *API) GetAllNodes(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[*types.Node], error) {
	return a.store.GetAllNodes(ctx, opts)
}

func (a *API) GetByLabel(ctx context.Context, label string, opts storage.ListOptions) (*storage.PaginatedResult[*types.Node], error) {
	return a.store.GetByLabel(ctx, label, opts)
}

func (a *API) GetNeighbors(ctx context.Context, id, edgeType string) ([]storage.NeighborEdge, error) {
	return a.store.GetNeighbors(ctx, id, edgeType)
}

func (a *API) GetPredecessors(ctx context.Context, id, edgeType string) ([]storage.NeighborEdge, error) {
	return a.store.GetPredecessors(ctx, id, edgeType)
}

func (a *API) HasEdge(ctx context.Context, src, tgt, edgeType string) (bool, error) {
	return a.store.HasEdge(ctx, src, tgt, edgeType)
}

func (a *API) GetEdge(ctx context.Context, src, tgt, edgeType string) (*types.Edge, error) {
	return a.store.GetEdge(ctx, src, tgt, edgeType)
}

func (a *API) GetEdgesByType(ctx context.Context, edgeType string) ([]*types.Edge, error) {
	return a.store.GetEdgesByType(ctx, edgeType)
}

func (a *API) RemoveNode(ctx context.Context, id string) error {
	if err := a.store.RemoveNode(ctx, id); err != nil {
		return err
	}
	a.invalidateNode(id)
	return nil
}

func (a *API) Degree(ctx context.Context, id string) (int, int, error) {
	return a.store.Degree(ctx, id)
}

func (a *API) Store() storage.GraphStore { return a.store }

func cloneProps(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in)+4)
	for k, v := range in {
		out[k] = v
	}
	return out
}
