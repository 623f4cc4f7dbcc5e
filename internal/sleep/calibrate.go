package sleep

import (
	"context"

	"github.com/nullgraph/brain/pkg/types"
)

// calibrateBoostFactor and calibrateDecayFactor are sleep.py
// phase_calibrate's fixed adjustment multipliers for semantic edges whose
// endpoints show heavy or zero recent access.
const (
	calibrateBoostFactor    = 1.15
	calibrateDecayFactor    = 0.95
	calibrateBoostThreshold = 5
	calibrateDecayFloor     = 0.1
)

// calibratedEdgeTypes lists every semantic edge type calibrate considers;
// structural edges (AUTHORED_BY, BELONGS_TO) are intentionally excluded
// (sleep.py phase_calibrate only touches "semantic" edges).
var calibratedEdgeTypes = []string{
	types.EdgeReferences,
	types.EdgeInformedBy,
	types.EdgeApplies,
	types.EdgeRelatedTo,
	types.EdgeSameScope,
	types.EdgeModifiesSame,
	types.EdgeCoAccessed,
	types.EdgeBelongsToTheme,
	types.EdgeClusteredIn,
}

// phaseCalibrate adjusts semantic edge weights by how recently their
// endpoints have been accessed: an edge between two frequently-accessed
// nodes (combined access_count > 5) gets boosted, an edge between two
// never-accessed nodes with weight already above the decay floor gets
// nudged down. The boost is capped at 1; the decay never takes a weight
// below calibrateDecayFloor (sleep.py phase_calibrate).
func phaseCalibrate(ctx context.Context, c *Cycle) (map[string]interface{}, error) {
	boosted := 0
	decayed := 0

	for _, edgeType := range calibratedEdgeTypes {
		edges, err := c.Store.GetEdgesByType(ctx, edgeType)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			from, err := c.Store.GetNode(ctx, e.From)
			if err != nil {
				continue
			}
			to, err := c.Store.GetNode(ctx, e.To)
			if err != nil {
				continue
			}
			combined := from.Memory.AccessCount + to.Memory.AccessCount

			switch {
			case combined > calibrateBoostThreshold:
				newWeight := types.ClampWeight(e.Weight * calibrateBoostFactor)
				if newWeight != e.Weight {
					if err := c.Store.SetEdgeWeight(ctx, e.From, e.To, e.Type, newWeight); err != nil {
						return nil, err
					}
					boosted++
				}
			case combined == 0 && e.Weight > calibrateDecayFloor+1e-9:
				newWeight := e.Weight * calibrateDecayFactor
				if newWeight < calibrateDecayFloor {
					newWeight = calibrateDecayFloor
				}
				if newWeight != e.Weight {
					if err := c.Store.SetEdgeWeight(ctx, e.From, e.To, e.Type, newWeight); err != nil {
						return nil, err
					}
					decayed++
				}
			}
		}
	}

	return map[string]interface{}{
		"edges_boosted": boosted,
		"edges_decayed": decayed,
	}, nil
}
