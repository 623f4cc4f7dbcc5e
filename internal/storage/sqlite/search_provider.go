package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/nullgraph/brain/internal/storage"
)

// Ensure *GraphStore implements storage.SearchProvider at compile time.
var _ storage.SearchProvider = (*GraphStore)(nil)

// ftsColumnWeightsSQL matches spec §4.5: title counts 10x, summary 5x,
// content 1x when ranking BM25 matches.
const ftsColumnWeightsSQL = "bm25(nodes_fts, 10.0, 1.0, 5.0)"

// FullTextSearch runs FTS5 BM25 search over (title, content, summary) with
// column weights (title 10, content 1, summary 5), falling back to a LIKE
// scan (title 1.0 / summary 0.5 / content 0.3) when FTS yields nothing. The
// query is assumed to already be sanitized — internal/retrieval owns
// quote/prefix/AND handling (spec §4.5 "FTS query sanitization").
func (s *GraphStore) FullTextSearch(ctx context.Context, query string, limit int) ([]storage.ScoredNode, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	rows, err := s.conn().QueryContext(ctx, fmt.Sprintf(`
		SELECT n.id, %s AS rank
		FROM nodes_fts fts
		JOIN nodes n ON n.rowid = fts.rowid
		WHERE nodes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsColumnWeightsSQL), query, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fts search %q: %w", query, err)
	}
	defer rows.Close()

	var hits []storage.ScoredNode
	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, err
		}
		// bm25() returns increasingly negative scores for better matches;
		// flip the sign so higher is better before normalization upstream.
		hits = append(hits, storage.ScoredNode{ID: id, Score: -rank})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(hits) > 0 {
		return hits, nil
	}

	return s.likeFallback(ctx, query, limit)
}

// likeFallback implements spec §4.5's "LIKE fallback (title 1.0 / summary
// 0.5 / content 0.3)" when FTS yields nothing — covers tokenization gaps
// (short words, punctuation-only queries) that porter/unicode61 filters out.
func (s *GraphStore) likeFallback(ctx context.Context, query string, limit int) ([]storage.ScoredNode, error) {
	lq := strings.ToLower(strings.TrimSpace(query))
	like := "%" + lq + "%"

	rows, err := s.conn().QueryContext(ctx, `
		SELECT id,
			(CASE WHEN instr(lower(title), ?) > 0 THEN 1.0 ELSE 0 END) +
			(CASE WHEN instr(lower(summary), ?) > 0 THEN 0.5 ELSE 0 END) +
			(CASE WHEN instr(lower(content), ?) > 0 THEN 0.3 ELSE 0 END) AS score
		FROM nodes
		WHERE lower(title) LIKE ? OR lower(summary) LIKE ? OR lower(content) LIKE ?
		ORDER BY score DESC
		LIMIT ?
	`, lq, lq, lq, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: like fallback: %w", err)
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
