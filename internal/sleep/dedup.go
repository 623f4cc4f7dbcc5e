package sleep

import (
	"context"
	"strings"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// phaseDedup groups nodes that are effectively the same memory (identical
// lowercased title, or a shared adr_id/pat_id/exp_id/commit_hash property)
// and merges each group onto a single survivor: the member with the
// highest combined degree. The survivor absorbs the losers' labels and
// edges (never clobbering an edge it already has to that endpoint), and
// the losers are removed. This is an optional phase — most ingestion paths
// are already upsert-safe via content-addressed IDs, but historical data
// imported before an ID scheme changed can still collide on identity.
func phaseDedup(ctx context.Context, c *Cycle) (map[string]interface{}, error) {
	nodes, err := allNodes(ctx, c.Store)
	if err != nil {
		return nil, err
	}

	groups := groupDuplicates(nodes)

	merged := 0
	removed := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		survivor, losers, err := pickSurvivor(ctx, c.Store, group)
		if err != nil {
			return nil, err
		}
		for _, loser := range losers {
			if err := mergeLoserInto(ctx, c.Store, survivor, loser); err != nil {
				return nil, err
			}
			removed++
		}
		merged++
	}

	return map[string]interface{}{
		"groups_merged": merged,
		"nodes_removed": removed,
	}, nil
}

// groupDuplicates buckets nodes by lowercased title first, then buckets the
// nodes not already in a title group by the identity properties (adr_id,
// pat_id, exp_id, commit_hash) when present, matching sleep.py's two-pass
// grouping: title collisions
// catch free-text duplicates, the ID properties catch re-ingested
// documents whose title drifted slightly but whose identity didn't.
func groupDuplicates(nodes []*types.Node) [][]*types.Node {
	byTitle := map[string][]*types.Node{}
	for _, n := range nodes {
		key := strings.ToLower(strings.TrimSpace(n.Title()))
		if key == "" {
			continue
		}
		byTitle[key] = append(byTitle[key], n)
	}

	byIdentity := map[string][]*types.Node{}
	for _, n := range nodes {
		for _, propKey := range []string{"adr_id", "pat_id", "exp_id", "commit_hash"} {
			if v, ok := n.Properties[propKey]; ok {
				if s, ok := v.(string); ok && s != "" {
					ikey := propKey + ":" + s
					byIdentity[ikey] = append(byIdentity[ikey], n)
				}
			}
		}
	}

	seen := map[string]bool{}
	var groups [][]*types.Node
	for _, g := range byTitle {
		if len(g) < 2 {
			continue
		}
		groups = append(groups, dedupeGroup(g, seen))
	}
	for _, g := range byIdentity {
		groups = append(groups, dedupeGroup(g, seen))
	}

	var out [][]*types.Node
	for _, g := range groups {
		if len(g) >= 2 {
			out = append(out, g)
		}
	}
	return out
}

func dedupeGroup(g []*types.Node, seen map[string]bool) []*types.Node {
	var out []*types.Node
	for _, n := range g {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}

// pickSurvivor selects the group member with the highest combined
// (out_degree + in_degree) as the merge target (sleep.py phase_dedup: "keep
// the best connected node"). Ties keep the earliest-created node.
func pickSurvivor(ctx context.Context, store storage.GraphStore, group []*types.Node) (*types.Node, []*types.Node, error) {
	best := group[0]
	bestDegree := -1
	for _, n := range group {
		out, in, err := store.Degree(ctx, n.ID)
		if err != nil {
			return nil, nil, err
		}
		degree := out + in
		if degree > bestDegree || (degree == bestDegree && n.Memory.CreatedAt.Before(best.Memory.CreatedAt)) {
			best = n
			bestDegree = degree
		}
	}
	var losers []*types.Node
	for _, n := range group {
		if n.ID != best.ID {
			losers = append(losers, n)
		}
	}
	return best, losers, nil
}

// mergeLoserInto unions the loser's labels onto the survivor, transfers its
// edges (skipping any endpoint the survivor already has an edge to or
// from, of any type), and deletes the loser (sleep.py phase_dedup).
func mergeLoserInto(ctx context.Context, store storage.GraphStore, survivor, loser *types.Node) error {
	if len(loser.Labels) > 0 {
		if err := store.AddLabels(ctx, survivor.ID, loser.Labels...); err != nil {
			return err
		}
	}

	out, err := store.GetNeighbors(ctx, loser.ID, "")
	if err != nil {
		return err
	}
	for _, nb := range out {
		if nb.Edge.To == survivor.ID {
			continue
		}
		has, err := store.HasEdge(ctx, survivor.ID, nb.Edge.To, "")
		if err != nil {
			return err
		}
		if has {
			continue
		}
		edge := &types.Edge{
			From:       survivor.ID,
			To:         nb.Edge.To,
			Type:       nb.Edge.Type,
			Weight:     nb.Edge.Weight,
			Properties: nb.Edge.Properties,
			CreatedAt:  nb.Edge.CreatedAt,
		}
		if err := store.UpsertEdge(ctx, edge); err != nil {
			return err
		}
	}

	in, err := store.GetPredecessors(ctx, loser.ID, "")
	if err != nil {
		return err
	}
	for _, nb := range in {
		if nb.Edge.From == survivor.ID {
			continue
		}
		has, err := store.HasEdge(ctx, nb.Edge.From, survivor.ID, "")
		if err != nil {
			return err
		}
		if has {
			continue
		}
		edge := &types.Edge{
			From:       nb.Edge.From,
			To:         survivor.ID,
			Type:       nb.Edge.Type,
			Weight:     nb.Edge.Weight,
			Properties: nb.Edge.Properties,
			CreatedAt:  nb.Edge.CreatedAt,
		}
		if err := store.UpsertEdge(ctx, edge); err != nil {
			return err
		}
	}

	return store.RemoveNode(ctx, loser.ID)
}
