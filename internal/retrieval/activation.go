package retrieval

import (
	"context"

	"github.com/nullgraph/brain/internal/storage/sqlite"
)

// frontierExpander is the batched per-depth fetch spreading activation
// needs (spec.md §4.5, §9 "arena-style store... iterative BFS is not
// recursion"). internal/storage/sqlite.GraphStore satisfies this via its
// ExpandFrontierOutgoing/ExpandFrontierIncoming helpers.
type frontierExpander interface {
	ExpandFrontierOutgoing(ctx context.Context, frontier []string) ([]sqlite.FrontierEdge, error)
	ExpandFrontierIncoming(ctx context.Context, frontier []string) ([]sqlite.FrontierEdge, error)
}

// FrontierEdge is re-exported for callers that only have a storage.GraphStore
// and need to type-assert down to the batched expansion methods.
type FrontierEdge = sqlite.FrontierEdge

// backwardDamping is the half-strength multiplier applied to backward
// (incoming-edge) activation flow (spec.md §4.5).
const backwardDamping = 0.5

// SpreadingActivation runs iterative BFS from seeds, propagating a decaying
// activation value through weighted edges modulated by endpoint strength
// (spec.md §4.5, invariant #8: terminates in exactly max_depth iterations or
// when the frontier empties, whichever is first; every visited node's
// activation is the max over all paths found).
func SpreadingActivation(ctx context.Context, fe frontierExpander, seeds []string, maxDepth int, decay float64) (map[string]float64, error) {
	activation := make(map[string]float64, len(seeds))
	frontier := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := activation[s]; !ok {
			activation[s] = 1.0
			frontier = append(frontier, s)
		}
	}

	for depth := 0; depth < maxDepth; depth++ {
		if len(frontier) == 0 {
			break
		}

		var nextFrontier []string

		outEdges, err := fe.ExpandFrontierOutgoing(ctx, frontier)
		if err != nil {
			return nil, err
		}
		for _, e := range outEdges {
			newAct := activation[e.FrontierID] * e.Weight * decay * e.Strength
			if cur, ok := activation[e.OtherID]; ok {
				if newAct > cur {
					activation[e.OtherID] = newAct
				}
			} else {
				activation[e.OtherID] = newAct
				nextFrontier = append(nextFrontier, e.OtherID)
			}
		}

		inEdges, err := fe.ExpandFrontierIncoming(ctx, frontier)
		if err != nil {
			return nil, err
		}
		for _, e := range inEdges {
			newAct := activation[e.FrontierID] * e.Weight * decay * backwardDamping * e.Strength
			if cur, ok := activation[e.OtherID]; ok {
				if newAct > cur {
					activation[e.OtherID] = newAct
				}
			} else {
				activation[e.OtherID] = newAct
				nextFrontier = append(nextFrontier, e.OtherID)
			}
		}

		frontier = nextFrontier
	}

	return activation, nil
}
