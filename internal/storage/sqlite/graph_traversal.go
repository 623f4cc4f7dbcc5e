package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// FrontierEdge is one edge discovered while expanding a spreading-activation
// frontier: the node on the far end, its current strength, and the edge
// weight connecting it to the frontier node.
type FrontierEdge struct {
	FrontierID string
	OtherID    string
	Weight     float64
	Strength   float64
}

// ExpandFrontierOutgoing performs spec §4.5's batched per-depth fetch: one
// SQL join of every outgoing edge from the current frontier to its target's
// strength. internal/retrieval's spreading activation calls this once per
// BFS depth instead of issuing one query per node.
func (s *GraphStore) ExpandFrontierOutgoing(ctx context.Context, frontier []string) ([]FrontierEdge, error) {
	return s.expandFrontier(ctx, frontier, true)
}

// ExpandFrontierIncoming is the incoming-edge counterpart used for
// spreading activation's backward flow (half-strength, spec §4.5).
func (s *GraphStore) ExpandFrontierIncoming(ctx context.Context, frontier []string) ([]FrontierEdge, error) {
	return s.expandFrontier(ctx, frontier, false)
}

func (s *GraphStore) expandFrontier(ctx context.Context, frontier []string, outgoing bool) ([]FrontierEdge, error) {
	if len(frontier) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(frontier)), ",")
	frontierCol, otherCol := "from_id", "to_id"
	if !outgoing {
		frontierCol, otherCol = "to_id", "from_id"
	}

	query := fmt.Sprintf(`
		SELECT e.%s AS frontier_id, e.%s AS other_id, e.weight, n.strength
		FROM edges e
		JOIN nodes n ON n.id = e.%s
		WHERE e.%s IN (%s)
	`, frontierCol, otherCol, otherCol, frontierCol, placeholders)

	args := make([]interface{}, len(frontier))
	for i, id := range frontier {
		args[i] = id
	}

	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: expand frontier: %w", err)
	}
	defer rows.Close()

	var out []FrontierEdge
	for rows.Next() {
		var fe FrontierEdge
		if err := rows.Scan(&fe.FrontierID, &fe.OtherID, &fe.Weight, &fe.Strength); err != nil {
			return nil, err
		}
		out = append(out, fe)
	}
	return out, rows.Err()
}
