package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/nullgraph/brain/internal/storage/sqlite"
)

// FrontierEdge is re-exported so callers needing the batched spreading
// activation fetch (spec.md §4.5) can use either backend interchangeably;
// internal/retrieval's frontierExpander interface is defined in terms of
// sqlite.FrontierEdge, and the two backends share the same field shape.
type FrontierEdge = sqlite.FrontierEdge

// ExpandFrontierOutgoing performs spec.md §4.5's batched per-depth fetch:
// one SQL join of every outgoing edge from the current frontier to its
// target's strength, mirroring sqlite.GraphStore's helper of the same name.
func (s *GraphStore) ExpandFrontierOutgoing(ctx context.Context, frontier []string) ([]FrontierEdge, error) {
	return s.expandFrontier(ctx, frontier, true)
}

// ExpandFrontierIncoming is the incoming-edge counterpart used for
// spreading activation's backward flow (half-strength, spec.md §4.5).
func (s *GraphStore) ExpandFrontierIncoming(ctx context.Context, frontier []string) ([]FrontierEdge, error) {
	return s.expandFrontier(ctx, frontier, false)
}

func (s *GraphStore) expandFrontier(ctx context.Context, frontier []string, outgoing bool) ([]FrontierEdge, error) {
	if len(frontier) == 0 {
		return nil, nil
	}

	frontierCol, otherCol := "from_id", "to_id"
	if !outgoing {
		frontierCol, otherCol = "to_id", "from_id"
	}

	placeholders := make([]string, len(frontier))
	args := make([]interface{}, len(frontier))
	for i, id := range frontier {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT e.%s AS frontier_id, e.%s AS other_id, e.weight, n.strength
		FROM edges e
		JOIN nodes n ON n.id = e.%s
		WHERE e.%s IN (%s)
	`, frontierCol, otherCol, otherCol, frontierCol, strings.Join(placeholders, ","))

	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: expand frontier: %w", err)
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
