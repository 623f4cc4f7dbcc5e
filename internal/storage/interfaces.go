// Package storage provides composable storage interfaces for the Brain
// memory graph.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently and composed as needed. This follows the
// Interface Segregation Principle and allows for flexible backend
// implementations (sqlite today, postgres for multi-instance deployments).
package storage

import (
	"context"
	"time"

	"github.com/nullgraph/brain/pkg/types"
)

// GraphStore provides CRUD, label indexing, and edge management for the
// node/edge graph. This is the core storage interface (spec C1).
type GraphStore interface {
	// UpsertNode creates or updates a node. If a node with the same ID
	// exists, its properties and memory bookkeeping are updated and its
	// label set becomes the union of old and new; otherwise a new node is
	// created with Memory defaulted via types.NewMemory.
	UpsertNode(ctx context.Context, node *types.Node) error

	// GetNode retrieves a node by ID. Returns ErrNotFound if absent.
	GetNode(ctx context.Context, id string) (*types.Node, error)

	// GetNodes retrieves many nodes by ID in one round trip. Missing IDs are
	// simply absent from the result, not an error.
	GetNodes(ctx context.Context, ids []string) ([]*types.Node, error)

	// GetAllNodes returns every node, optionally paginated via opts.
	GetAllNodes(ctx context.Context, opts ListOptions) (*PaginatedResult[*types.Node], error)

	// GetByLabel returns all nodes carrying the given label.
	GetByLabel(ctx context.Context, label string, opts ListOptions) (*PaginatedResult[*types.Node], error)

	// RemoveNode deletes a node along with its labels and incident edges
	// (cascading delete, spec §4.1).
	RemoveNode(ctx context.Context, id string) error

	// ReinforceNode applies retrieve()'s reinforcement step: access_count+=1,
	// last_accessed=now, strength=min(1, strength*1.05).
	ReinforceNode(ctx context.Context, id string, now time.Time) error

	// UpdateMemory overwrites the decay/reinforcement bookkeeping fields for
	// a node without touching properties or labels. Used by internal/health's
	// decay job.
	UpdateMemory(ctx context.Context, id string, memory types.Memory) error

	// AddLabels merges labels into an existing node's label set (union
	// semantics). Used by sleep's promote phase and health's WeakMemory /
	// Archived tagging.
	AddLabels(ctx context.Context, id string, labels ...string) error

	// RemoveLabel removes a single label from a node, if present.
	RemoveLabel(ctx context.Context, id string, label string) error

	// UpsertEdge creates or updates an edge. Re-adding an existing
	// (from,to,type) triple keeps weight = max(old,new) (spec §4.1 failure
	// mode). Endpoint-missing integrity violations are swallowed, not
	// returned as errors.
	UpsertEdge(ctx context.Context, edge *types.Edge) error

	// SetEdgeWeight overwrites an existing edge's weight unconditionally
	// (no max-merge), used by internal/sleep's calibrate phase (which can
	// lower a weight) and its consolidate job. Returns ErrNotFound if the
	// edge doesn't exist.
	SetEdgeWeight(ctx context.Context, src, tgt, edgeType string, weight float64) error

	// GetEdge returns the edge between src and tgt of the given type, or
	// ErrNotFound. If edgeType is "", the highest-weight edge between the
	// pair is returned.
	GetEdge(ctx context.Context, src, tgt, edgeType string) (*types.Edge, error)

	// HasEdge reports whether an edge exists between src and tgt (optionally
	// filtered by type).
	HasEdge(ctx context.Context, src, tgt, edgeType string) (bool, error)

	// GetNeighbors returns outgoing edges (and target nodes) from id,
	// optionally filtered by edge type.
	GetNeighbors(ctx context.Context, id string, edgeType string) ([]NeighborEdge, error)

	// GetPredecessors returns incoming edges (and source nodes) into id,
	// optionally filtered by edge type.
	GetPredecessors(ctx context.Context, id string, edgeType string) ([]NeighborEdge, error)

	// GetEdgesByType returns every edge of the given type in the graph.
	GetEdgesByType(ctx context.Context, edgeType string) ([]*types.Edge, error)

	// Degree returns (out_degree, in_degree) for a node.
	Degree(ctx context.Context, id string) (out int, in int, err error)

	// Stats returns coarse counts used by get_stats / health scoring.
	Stats(ctx context.Context) (GraphStats, error)

	// WithTx runs fn inside a single transaction. The single-writer model
	// (spec §5) relies on this to make multi-statement operations (upsert
	// node + labels + author edge + reference edges) atomic.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx GraphStore) error) error

	// Close releases any resources held by the store.
	Close() error
}

// NeighborEdge pairs an edge with the node on its other end, used by
// get_neighbors / get_predecessors and by spreading activation's batch
// fetch.
type NeighborEdge struct {
	Edge *types.Edge
	Node *types.Node
}

// GraphStats summarizes the graph for get_stats() and health scoring.
type GraphStats struct {
	TotalNodes      int
	TotalEdges      int
	PersonNodes     int
	DomainNodes     int
	WeakMemories    int
	ArchivedNodes   int
	SemanticEdges   int
	NodesWithVector int
	CodeNodes       int
	EnrichedCommits int
	TotalCommits    int
}

// SearchProvider provides full-text search over node content (spec C1/C5).
type SearchProvider interface {
	// FullTextSearch runs FTS5 BM25 search with the column weights
	// (title 10, content 1, summary 5) over the sanitized query, falling
	// back to a LIKE scan (title 1.0 / summary 0.5 / content 0.3) when FTS
	// yields nothing.
	FullTextSearch(ctx context.Context, query string, limit int) ([]ScoredNode, error)
}

// ScoredNode is one full-text or vector search hit.
type ScoredNode struct {
	ID    string
	Score float64
}

// MetaStore persists the small key/value rows tracked in the `meta` table:
// schema version, embedding model identity.
type MetaStore interface {
	GetMeta(ctx context.Context, key string) (string, bool, error)
	SetMeta(ctx context.Context, key, value string) error
}

// EnrichmentUpdate contains metadata for diff-enrichment status updates
// applied to Commit nodes (spec §4.4 "Diff enrichment").
type EnrichmentUpdate struct {
	DiffStats     map[string]interface{}
	ChangeShape   string
	SymbolsAdded  []string
	SymbolsMod    []string
	SymbolsRemove []string
	EnrichedAt    time.Time
}
