package sleep

import (
	"context"

	"github.com/nullgraph/brain/pkg/types"
)

// promoteStrengthThreshold, promoteAccessThreshold, and
// promoteMinSemanticEdges are the qualifying thresholds spec.md §4.6
// "Promote (optional)" names verbatim.
const (
	promoteStrengthThreshold = 0.9
	promoteAccessThreshold   = 10
	promoteMinSemanticEdges  = 3
)

// phasePromote tags well-established episodic memories as concepts: any
// Episode with strength > 0.9, access_count >= 10, and at least 3 outgoing
// semantic edges gains the Concept and PromotedEpisode labels, on top of
// whatever labels it already carries (spec.md §4.6, E3).
func phasePromote(ctx context.Context, c *Cycle) (map[string]interface{}, error) {
	episodes, err := allByLabel(ctx, c.Store, types.LabelEpisode)
	if err != nil {
		return nil, err
	}

	promoted := 0
	for _, n := range episodes {
		if n.Memory.Strength <= promoteStrengthThreshold || n.Memory.AccessCount < promoteAccessThreshold {
			continue
		}
		if n.HasLabel(types.LabelPromotedEpisode) {
			continue
		}
		neighbors, err := c.Store.GetNeighbors(ctx, n.ID, "")
		if err != nil {
			return nil, err
		}
		semanticOut := 0
		for _, nb := range neighbors {
			if types.IsSemantic(nb.Edge.Type) {
				semanticOut++
			}
		}
		if semanticOut < promoteMinSemanticEdges {
			continue
		}
		if err := c.Store.AddLabels(ctx, n.ID, types.LabelConcept, types.LabelPromotedEpisode); err != nil {
			return nil, err
		}
		promoted++
	}

	return map[string]interface{}{"episodes_promoted": promoted}, nil
}
