package sleep

import (
	"context"
	"regexp"
	"strings"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

var (
	connectADRRe      = regexp.MustCompile(`\bADR-(\d+)\b`)
	connectPatRe      = regexp.MustCompile(`\bPAT-(\d+)\b`)
	connectExpRe      = regexp.MustCompile(`\bEXP-(\d+)\b`)
	connectWikilinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
)

// maxCoScopePairs and maxCoFilePairs bound phase_connect's pairwise commit
// linking so a busy scope or hot file doesn't produce a quadratic edge
// blowup (sleep.py phase_connect: 5 per scope, 3 per file).
const (
	maxCoScopePairs = 5
	maxCoFilePairs  = 3
)

// phaseConnect links nodes via two independent passes: explicit reference
// tokens found in content (ADR-NNN/PAT-NNN/EXP-NNN/[[wikilink]]) and
// co-occurrence pairing between commits sharing a scope or a touched file.
// Unlike add_memory's reference resolution (internal/graph), this phase
// operates over content already in the graph, after the fact, so it keeps
// its own token extraction rather than reaching into graph's unexported
// helpers.
func phaseConnect(ctx context.Context, c *Cycle) (map[string]interface{}, error) {
	nodes, err := allNodes(ctx, c.Store)
	if err != nil {
		return nil, err
	}

	refEdges := 0
	for _, n := range nodes {
		content := n.Content()
		if content == "" {
			continue
		}
		created, err := connectExplicitRefs(ctx, c.Store, n, content, nodes)
		if err != nil {
			return nil, err
		}
		refEdges += created
	}

	commits := filterByLabel(nodes, types.LabelCommit)
	scopeEdges, err := connectCoScope(ctx, c.Store, commits)
	if err != nil {
		return nil, err
	}
	fileEdges, err := connectCoFile(ctx, c.Store, commits)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"reference_edges": refEdges,
		"co_scope_edges":  scopeEdges,
		"co_file_edges":   fileEdges,
	}, nil
}

func filterByLabel(nodes []*types.Node, label string) []*types.Node {
	var out []*types.Node
	for _, n := range nodes {
		if n.HasLabel(label) {
			out = append(out, n)
		}
	}
	return out
}

// connectExplicitRefs resolves every ADR/PAT/EXP token and [[wikilink]] in
// content against the already-loaded node set and creates a typed edge for
// each unresolved pair (sleep.py phase_connect / _create_ref_edge).
func connectExplicitRefs(ctx context.Context, store storage.GraphStore, from *types.Node, content string, all []*types.Node) (int, error) {
	var tokens []struct{ kind, value string }
	for _, m := range connectADRRe.FindAllString(content, -1) {
		tokens = append(tokens, struct{ kind, value string }{"adr_id", m})
	}
	for _, m := range connectPatRe.FindAllString(content, -1) {
		tokens = append(tokens, struct{ kind, value string }{"pat_id", m})
	}
	for _, m := range connectExpRe.FindAllString(content, -1) {
		tokens = append(tokens, struct{ kind, value string }{"exp_id", m})
	}
	for _, m := range connectWikilinkRe.FindAllStringSubmatch(content, -1) {
		tokens = append(tokens, struct{ kind, value string }{"title", m[1]})
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	created := 0
	seen := map[string]bool{}
	for _, tok := range tokens {
		target := resolveConnectToken(tok.kind, tok.value, all)
		if target == nil || target.ID == from.ID || seen[target.ID] {
			continue
		}
		seen[target.ID] = true

		edgeType := types.EdgeReferences
		switch {
		case from.HasLabel(types.LabelPattern) && target.HasLabel(types.LabelADR):
			edgeType = types.EdgeInformedBy
		case from.HasLabel(types.LabelCommit) && target.HasLabel(types.LabelPattern):
			edgeType = types.EdgeApplies
		}

		has, err := store.HasEdge(ctx, from.ID, target.ID, edgeType)
		if err != nil {
			return created, err
		}
		if has {
			continue
		}
		edge := &types.Edge{
			From:   from.ID,
			To:     target.ID,
			Type:   edgeType,
			Weight: types.DefaultEdgeWeight(edgeType),
		}
		if err := store.UpsertEdge(ctx, edge); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func resolveConnectToken(kind, value string, all []*types.Node) *types.Node {
	if kind != "title" {
		for _, n := range all {
			if v, ok := n.Properties[kind]; ok {
				if s, ok := v.(string); ok && s == value {
					return n
				}
			}
		}
		return nil
	}
	for _, n := range all {
		if n.Title() == value {
			return n
		}
	}
	for _, n := range all {
		if strings.HasPrefix(n.Title(), value) {
			return n
		}
	}
	return nil
}

// connectCoScope pairs commits sharing a non-empty "scope" property with
// SAME_SCOPE edges, capped at maxCoScopePairs per scope bucket.
func connectCoScope(ctx context.Context, store storage.GraphStore, commits []*types.Node) (int, error) {
	byScope := map[string][]*types.Node{}
	for _, n := range commits {
		if s, ok := n.Properties["scope"].(string); ok && s != "" {
			byScope[s] = append(byScope[s], n)
		}
	}

	created := 0
	for _, group := range byScope {
		pairs := pairUpTo(group, maxCoScopePairs)
		for _, p := range pairs {
			if ok, err := linkIfAbsent(ctx, store, p[0].ID, p[1].ID, types.EdgeSameScope); err != nil {
				return created, err
			} else if ok {
				created++
			}
		}
	}
	return created, nil
}

// connectCoFile pairs commits that touched the same file with
// MODIFIES_SAME edges, capped at maxCoFilePairs per file bucket.
func connectCoFile(ctx context.Context, store storage.GraphStore, commits []*types.Node) (int, error) {
	byFile := map[string][]*types.Node{}
	for _, n := range commits {
		files, _ := n.Properties["files"].([]string)
		if files == nil {
			if raw, ok := n.Properties["files"].([]interface{}); ok {
				for _, f := range raw {
					if s, ok := f.(string); ok {
						files = append(files, s)
					}
				}
			}
		}
		for _, f := range files {
			byFile[f] = append(byFile[f], n)
		}
	}

	created := 0
	for _, group := range byFile {
		pairs := pairUpTo(group, maxCoFilePairs)
		for _, p := range pairs {
			if ok, err := linkIfAbsent(ctx, store, p[0].ID, p[1].ID, types.EdgeModifiesSame); err != nil {
				return created, err
			} else if ok {
				created++
			}
		}
	}
	return created, nil
}

// pairUpTo returns the (i, j) pairs of group with i < j in index order
// ((0,1), (0,2), ..., (1,2), ...), stopping once limit pairs have been
// produced (sleep.py caps co-occurrence pairing per bucket).
func pairUpTo(group []*types.Node, limit int) [][2]*types.Node {
	var pairs [][2]*types.Node
	for i := 0; i < len(group) && len(pairs) < limit; i++ {
		for j := i + 1; j < len(group) && len(pairs) < limit; j++ {
			pairs = append(pairs, [2]*types.Node{group[i], group[j]})
		}
	}
	return pairs
}

func linkIfAbsent(ctx context.Context, store storage.GraphStore, a, b, edgeType string) (bool, error) {
	has, err := store.HasEdge(ctx, a, b, edgeType)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}
	edge := &types.Edge{From: a, To: b, Type: edgeType, Weight: types.DefaultEdgeWeight(edgeType)}
	if err := store.UpsertEdge(ctx, edge); err != nil {
		return false, err
	}
	return true, nil
}
