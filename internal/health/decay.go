// Package health implements the C7 forgetting/health components: Ebbinghaus
// decay, archival of very weak memories, and the composite health score
// (spec.md §4.7).
package health

import (
	"context"
	"math"
	"time"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// weakThreshold and archiveThreshold are the strength bands decay uses to
// tag WeakMemory and flag archive candidates (spec.md §3 Lifecycle,
// cognitive.py apply_decay()).
const (
	weakThreshold    = 0.3
	archiveThreshold = 0.1
)

// maxReportedNodes caps how many node IDs decay echoes back in its stats,
// matching cognitive.py's apply_decay() (weak_nodes/archive_nodes: [:10]).
const maxReportedNodes = 10

// Decay applies the Ebbinghaus forgetting curve to every node's strength:
// strength *= exp(-decay_rate * days_since_last_accessed). Nodes that never
// had last_accessed are left untouched (there's nothing to measure decay
// against yet). Crossing below weakThreshold adds the WeakMemory label;
// recovering above it (via reinforcement between runs) removes it. Crossing
// below archiveThreshold is reported as an archive candidate but the label
// change itself is Archive's job, not Decay's (cognitive.py keeps the two
// separate so a caller can run decay daily and archive on a slower cadence).
func Decay(ctx context.Context, store storage.GraphStore) (map[string]interface{}, error) {
	now := time.Now()
	nodes, err := allNodes(ctx, store)
	if err != nil {
		return nil, err
	}

	var weak, archiveCandidates []string
	for _, n := range nodes {
		if n.Memory.LastAccessed.IsZero() {
			continue
		}
		daysSince := now.Sub(n.Memory.LastAccessed).Hours() / 24
		newStrength := n.Memory.Strength * math.Exp(-n.Memory.DecayRate*daysSince)

		updated := n.Memory
		updated.Strength = newStrength
		if err := store.UpdateMemory(ctx, n.ID, updated); err != nil {
			return nil, err
		}

		switch {
		case newStrength < archiveThreshold:
			archiveCandidates = append(archiveCandidates, n.ID)
		case newStrength < weakThreshold:
			weak = append(weak, n.ID)
			if !n.HasLabel(types.LabelWeakMemory) {
				if err := store.AddLabels(ctx, n.ID, types.LabelWeakMemory); err != nil {
					return nil, err
				}
			}
		default:
			if n.HasLabel(types.LabelWeakMemory) {
				if err := store.RemoveLabel(ctx, n.ID, types.LabelWeakMemory); err != nil {
					return nil, err
				}
			}
		}
	}

	return map[string]interface{}{
		"weak_count":    len(weak),
		"archive_count": len(archiveCandidates),
		"weak_nodes":    capList(weak, maxReportedNodes),
		"archive_nodes": capList(archiveCandidates, maxReportedNodes),
	}, nil
}

// Archive tags nodes whose current strength has fallen below threshold with
// the Archived label, skipping protected labels (Person, Domain, Decision)
// and nodes already archived (cognitive.py archive()).
func Archive(ctx context.Context, store storage.GraphStore, threshold float64) (map[string]interface{}, error) {
	nodes, err := allNodes(ctx, store)
	if err != nil {
		return nil, err
	}

	var archived []string
	for _, n := range nodes {
		if types.IsProtectedFromArchival(n.Labels) || n.HasLabel(types.LabelArchived) {
			continue
		}
		if n.Memory.Strength < threshold {
			if err := store.AddLabels(ctx, n.ID, types.LabelArchived); err != nil {
				return nil, err
			}
			archived = append(archived, n.ID)
		}
	}

	return map[string]interface{}{
		"archived_count": len(archived),
		"archived_nodes": capList(archived, 20),
	}, nil
}

func capList(ids []string, max int) []string {
	if len(ids) > max {
		return ids[:max]
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

func allNodes(ctx context.Context, store storage.GraphStore) ([]*types.Node, error) {
	var out []*types.Node
	page := 1
	for {
		res, err := store.GetAllNodes(ctx, storage.ListOptions{Page: page, Limit: 1000, SortBy: "created_at", SortOrder: "asc"})
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if !res.HasMore {
			break
		}
		page++
	}
	return out, nil
}
