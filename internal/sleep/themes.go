package sleep

import (
	"context"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// minCommitsForTheme and minPatternsForCluster are sleep.py phase_themes's
// minimum bucket sizes: a scope needs at least 3 commits before it earns a
// synthetic Theme node, a domain needs at least 2 patterns before it earns
// a PatternCluster.
const (
	minCommitsForTheme    = 3
	minPatternsForCluster = 2
)

// phaseThemes synthesizes two kinds of summary nodes over the graph's
// existing commit/pattern activity: a Theme node per commit scope that has
// accumulated enough history, and a PatternCluster node per domain that has
// accumulated enough patterns (nodes labelled Pattern or ApprovedPattern).
// Both are idempotent (deterministic
// IDs via types.ThemeID / clusterID) so re-running themes never duplicates
// them, only adds newly-qualifying buckets (sleep.py phase_themes).
func phaseThemes(ctx context.Context, c *Cycle) (map[string]interface{}, error) {
	nodes, err := allNodes(ctx, c.Store)
	if err != nil {
		return nil, err
	}

	themesCreated, themeEdges, err := createThemes(ctx, c, nodes)
	if err != nil {
		return nil, err
	}
	clustersCreated, clusterEdges, err := createClusters(ctx, c, nodes)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"themes_created":          themesCreated,
		"theme_edges":             themeEdges,
		"pattern_clusters_created": clustersCreated,
		"cluster_edges":           clusterEdges,
	}, nil
}

func createThemes(ctx context.Context, c *Cycle, nodes []*types.Node) (int, int, error) {
	byScope := map[string][]*types.Node{}
	for _, n := range nodes {
		if !n.HasLabel(types.LabelCommit) {
			continue
		}
		if s, ok := n.Properties["scope"].(string); ok && s != "" {
			byScope[s] = append(byScope[s], n)
		}
	}

	created := 0
	edges := 0
	for scope, commits := range byScope {
		if len(commits) < minCommitsForTheme {
			continue
		}
		themeID := types.ThemeID(scope)
		_, err := c.Store.GetNode(ctx, themeID)
		isNew := err == storage.ErrNotFound
		if err != nil && !isNew {
			return created, edges, err
		}
		if isNew {
			node := &types.Node{
				ID:     themeID,
				Labels: []string{types.LabelTheme},
				Properties: map[string]interface{}{
					"title":   "Theme: " + scope,
					"content": "Recurring activity in scope " + scope,
					"scope":   scope,
				},
			}
			if err := c.API.AddNodeRaw(ctx, node); err != nil {
				return created, edges, err
			}
			created++
		}
		for _, commit := range commits {
			ok, err := linkIfAbsent(ctx, c.Store, commit.ID, themeID, types.EdgeBelongsToTheme)
			if err != nil {
				return created, edges, err
			}
			if ok {
				edges++
			}
		}
	}
	return created, edges, nil
}

func createClusters(ctx context.Context, c *Cycle, nodes []*types.Node) (int, int, error) {
	byDomain := map[string][]*types.Node{}
	for _, n := range nodes {
		if !n.HasLabel(types.LabelPattern) && !n.HasLabel(types.LabelApproved) {
			continue
		}
		if d, ok := n.Properties["domain"].(string); ok && d != "" {
			byDomain[d] = append(byDomain[d], n)
			continue
		}
		neighbors, err := c.Store.GetNeighbors(ctx, n.ID, types.EdgeBelongsTo)
		if err != nil {
			return 0, 0, err
		}
		for _, nb := range neighbors {
			if nb.Node != nil && nb.Node.HasLabel(types.LabelDomain) {
				byDomain[nb.Node.Title()] = append(byDomain[nb.Node.Title()], n)
			}
		}
	}

	created := 0
	edges := 0
	for domain, patterns := range byDomain {
		if len(patterns) < minPatternsForCluster {
			continue
		}
		clusterID := clusterIDFor(domain)
		_, err := c.Store.GetNode(ctx, clusterID)
		isNew := err == storage.ErrNotFound
		if err != nil && !isNew {
			return created, edges, err
		}
		if isNew {
			node := &types.Node{
				ID:     clusterID,
				Labels: []string{types.LabelPatternCluster},
				Properties: map[string]interface{}{
					"title":   "PatternCluster: " + domain,
					"content": "Approved patterns clustered for domain " + domain,
					"domain":  domain,
				},
			}
			if err := c.API.AddNodeRaw(ctx, node); err != nil {
				return created, edges, err
			}
			created++
		}
		for _, pattern := range patterns {
			ok, err := linkIfAbsent(ctx, c.Store, pattern.ID, clusterID, types.EdgeClusteredIn)
			if err != nil {
				return created, edges, err
			}
			if ok {
				edges++
			}
		}
	}
	return created, edges, nil
}

// clusterIDFor mirrors types.ThemeID's derivation for PatternCluster nodes
// (spec.md §4.6 "Themes": md5("PatternCluster: <domain>|PatternCluster")[:8]).
func clusterIDFor(domain string) string {
	return types.NodeID("PatternCluster: "+domain, []string{types.LabelPatternCluster})
}
