package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/nullgraph/brain/internal/storage"
)

var _ storage.SearchProvider = (*GraphStore)(nil)

// tsRankWeights matches spec.md §4.5's column weights (title 10, content 1,
// summary 5). ts_rank_cd's weight array is {D, C, B, A}; schema.go's trigger
// assigns title=A, summary=B, content=C, so this is {unused-D, content,
// summary, title}.
const tsRankWeights = "'{0.1, 1.0, 5.0, 10.0}'"

// FullTextSearch runs tsvector/websearch full-text search over
// (title, content, summary), falling back to a LIKE scan when the FTS query
// yields nothing (spec.md §4.5 "FTS query sanitization" / "LIKE fallback").
// The query is assumed to already be sanitized by internal/retrieval.
func (s *GraphStore) FullTextSearch(ctx context.Context, query string, limit int) ([]storage.ScoredNode, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	rows, err := s.conn().QueryContext(ctx, fmt.Sprintf(`
		SELECT id, ts_rank_cd(%s, search_vector, websearch_to_tsquery('english', $1)) AS rank
		FROM nodes
		WHERE search_vector @@ websearch_to_tsquery('english', $1)
		ORDER BY rank DESC
		LIMIT $2
	`, tsRankWeights), query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fts search %q: %w", query, err)
	}
	defer rows.Close()

	var hits []storage.ScoredNode
	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, err
		}
		hits = append(hits, storage.ScoredNode{ID: id, Score: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(hits) > 0 {
		return hits, nil
	}

	return s.likeFallback(ctx, query, limit)
}

// likeFallback implements spec.md §4.5's "LIKE fallback (title 1.0 / summary
// 0.5 / content 0.3)" when FTS yields nothing.
func (s *GraphStore) likeFallback(ctx context.Context, query string, limit int) ([]storage.ScoredNode, error) {
	lq := strings.ToLower(strings.TrimSpace(query))
	like := "%" + lq + "%"

	rows, err := s.conn().QueryContext(ctx, `
		SELECT id,
			(CASE WHEN position($1 IN lower(title)) > 0 THEN 1.0 ELSE 0 END) +
			(CASE WHEN position($1 IN lower(summary)) > 0 THEN 0.5 ELSE 0 END) +
			(CASE WHEN position($1 IN lower(content)) > 0 THEN 0.3 ELSE 0 END) AS score
		FROM nodes
		WHERE lower(title) LIKE $2 OR lower(summary) LIKE $2 OR lower(content) LIKE $2
		ORDER BY score DESC
		LIMIT $3
	`, lq, like, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: like fallback: %w", err)
	}
	defer rows.Close()

	var hits []storage.ScoredNode
	for rows.Next() {
		var id string
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, err
		}
		if score <= 0 {
			continue
		}
		hits = append(hits, storage.ScoredNode{ID: id, Score: score})
	}
	return hits, rows.Err()
}
