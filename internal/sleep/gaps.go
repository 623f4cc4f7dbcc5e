package sleep

import (
	"context"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// Gap is one structural weak-spot phaseGaps flags: a Domain with no linked
// Pattern, or a content node reachable only via structural edges
// (spec.md §4.6 "Insights / Gaps (optional)").
type Gap struct {
	Kind   string `json:"kind"` // "domain_without_pattern" | "semantically_isolated"
	NodeID string `json:"node_id"`
}

// phaseGaps flags two kinds of structural gaps: Domain nodes with no
// Pattern linked to them (BELONGS_TO from a Pattern), and content nodes
// whose only edges are structural (AUTHORED_BY/BELONGS_TO) — nodes sleep's
// other phases have never managed to connect semantically.
func phaseGaps(ctx context.Context, c *Cycle) (map[string]interface{}, error) {
	var gaps []Gap

	domains, err := allByLabel(ctx, c.Store, types.LabelDomain)
	if err != nil {
		return nil, err
	}
	patterns, err := allByLabel(ctx, c.Store, types.LabelPattern)
	if err != nil {
		return nil, err
	}
	domainsWithPattern := map[string]bool{}
	for _, p := range patterns {
		neighbors, err := c.Store.GetNeighbors(ctx, p.ID, types.EdgeBelongsTo)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			domainsWithPattern[nb.Edge.To] = true
		}
	}
	for _, d := range domains {
		if !domainsWithPattern[d.ID] {
			gaps = append(gaps, Gap{Kind: "domain_without_pattern", NodeID: d.ID})
		}
	}

	nodes, err := allNodes(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.HasLabel(types.LabelPerson) || n.HasLabel(types.LabelDomain) ||
			n.HasLabel(types.LabelTheme) || n.HasLabel(types.LabelPatternCluster) {
			continue
		}
		isolated, err := isSemanticallyIsolated(ctx, c.Store, n.ID)
		if err != nil {
			return nil, err
		}
		if isolated {
			gaps = append(gaps, Gap{Kind: "semantically_isolated", NodeID: n.ID})
		}
	}

	if gaps == nil {
		gaps = []Gap{}
	}
	return map[string]interface{}{"gaps": gaps}, nil
}

func isSemanticallyIsolated(ctx context.Context, store storage.GraphStore, id string) (bool, error) {
	out, err := store.GetNeighbors(ctx, id, "")
	if err != nil {
		return false, err
	}
	in, err := store.GetPredecessors(ctx, id, "")
	if err != nil {
		return false, err
	}
	if len(out) == 0 && len(in) == 0 {
		return false, nil
	}
	for _, nb := range out {
		if types.IsSemantic(nb.Edge.Type) {
			return false, nil
		}
	}
	for _, nb := range in {
		if types.IsSemantic(nb.Edge.Type) {
			return false, nil
		}
	}
	return true, nil
}
