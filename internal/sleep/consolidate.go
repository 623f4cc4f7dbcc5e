package sleep

import (
	"context"
	"time"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// consolidateRecentWindow is "recently accessed" for both of consolidate's
// steps (brain_sqlite.py consolidate(): 7 days).
const consolidateRecentWindow = 7 * 24 * time.Hour

// consolidateMinAccessCount is the minimum access_count a node needs to be
// eligible for a new CO_ACCESSED edge (brain_sqlite.py consolidate()).
const consolidateMinAccessCount = 2

// consolidateBoostFactor strengthens an existing edge between two
// recently-co-accessed nodes (brain_sqlite.py consolidate(): x1.1).
const consolidateBoostFactor = 1.1

// Consolidate is the lighter, more frequent companion to a full sleep
// cycle: it strengthens edges between nodes that were both accessed
// recently, and creates new CO_ACCESSED edges between recently-active
// content nodes, capped at c.Config.MaxConsolidationEdges per run
// (brain_sqlite.py consolidate()). Unlike the sleep phases, this is
// exported directly rather than run through the phase registry, since
// it's meant to be called on its own short-interval schedule (spec.md §4.6,
// §9 Open Question #3).
func Consolidate(ctx context.Context, c *Cycle) (map[string]interface{}, error) {
	now := c.now()
	nodes, err := allNodes(ctx, c.Store)
	if err != nil {
		return nil, err
	}

	var accessed, recent []*types.Node
	for _, n := range nodes {
		if n.HasLabel(types.LabelPerson) || n.HasLabel(types.LabelDomain) {
			continue
		}
		if n.Memory.LastAccessed.IsZero() || now.Sub(n.Memory.LastAccessed) > consolidateRecentWindow {
			continue
		}
		accessed = append(accessed, n)
		if n.Memory.AccessCount >= consolidateMinAccessCount {
			recent = append(recent, n)
		}
	}

	strengthened, err := strengthenCoAccessedEdges(ctx, c.Store, accessed)
	if err != nil {
		return nil, err
	}

	created := 0
	for i := 0; i < len(recent) && created < c.Config.MaxConsolidationEdges; i++ {
		for j := i + 1; j < len(recent) && created < c.Config.MaxConsolidationEdges; j++ {
			has, err := c.Store.HasEdge(ctx, recent[i].ID, recent[j].ID, types.EdgeCoAccessed)
			if err != nil {
				return nil, err
			}
			if has {
				continue
			}
			edge := &types.Edge{
				From:   recent[i].ID,
				To:     recent[j].ID,
				Type:   types.EdgeCoAccessed,
				Weight: types.DefaultEdgeWeight(types.EdgeCoAccessed),
			}
			if err := c.Store.UpsertEdge(ctx, edge); err != nil {
				return nil, err
			}
			created++
		}
	}

	return map[string]interface{}{
		"edges_strengthened": strengthened,
		"edges_created":      created,
	}, nil
}

// strengthenCoAccessedEdges boosts the weight of any existing semantic edge
// between two nodes that both fall in the recently-accessed set, capped at
// 1.0 (brain_sqlite.py consolidate()).
func strengthenCoAccessedEdges(ctx context.Context, store storage.GraphStore, recent []*types.Node) (int, error) {
	recentSet := make(map[string]bool, len(recent))
	for _, n := range recent {
		recentSet[n.ID] = true
	}

	strengthened := 0
	seen := map[string]bool{}
	for _, n := range recent {
		neighbors, err := store.GetNeighbors(ctx, n.ID, "")
		if err != nil {
			return strengthened, err
		}
		for _, nb := range neighbors {
			if !types.IsSemantic(nb.Edge.Type) || !recentSet[nb.Edge.To] {
				continue
			}
			key := nb.Edge.From + "|" + nb.Edge.To + "|" + nb.Edge.Type
			if seen[key] {
				continue
			}
			seen[key] = true
			newWeight := types.ClampWeight(nb.Edge.Weight * consolidateBoostFactor)
			if newWeight == nb.Edge.Weight {
				continue
			}
			if err := store.SetEdgeWeight(ctx, nb.Edge.From, nb.Edge.To, nb.Edge.Type, newWeight); err != nil {
				return strengthened, err
			}
			strengthened++
		}
	}
	return strengthened, nil
}
