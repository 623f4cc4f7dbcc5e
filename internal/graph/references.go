package graph

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

var (
	adrTokenRe      = regexp.MustCompile(`\bADR-(\d+)\b`)
	patTokenRe      = regexp.MustCompile(`\bPAT-(\d+)\b`)
	expTokenRe      = regexp.MustCompile(`\bEXP-(\d+)\b`)
	wikilinkTokenRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
)

// reference is one token extracted from content before resolution.
type reference struct {
	kind  string // "adr", "pat", "exp", "wikilink"
	token string // raw matched text, e.g. "ADR-007" or the wikilink's inner text
}

// extractReferences scans content for ADR-NNN/PAT-NNN/EXP-NNN tokens and
// [[wikilinks]] (spec.md §4.3).
func extractReferences(content string) []reference {
	var refs []reference
	for _, m := range adrTokenRe.FindAllString(content, -1) {
		refs = append(refs, reference{kind: "adr", token: m})
	}
	for _, m := range patTokenRe.FindAllString(content, -1) {
		refs = append(refs, reference{kind: "pat", token: m})
	}
	for _, m := range expTokenRe.FindAllString(content, -1) {
		refs = append(refs, reference{kind: "exp", token: m})
	}
	for _, m := range wikilinkTokenRe.FindAllStringSubmatch(content, -1) {
		refs = append(refs, reference{kind: "wikilink", token: m[1]})
	}
	return refs
}

// resolveReferences resolves every reference token found in content (plus
// any explicitly supplied in extraRefs) against the graph and links
// resolved targets with a REFERENCES edge from node, applying the
// Pattern->ADR (INFORMED_BY) and Commit->Pattern (APPLIES) typed upgrades.
func (a *API) resolveReferences(ctx context.Context, node *types.Node, content string, extraRefs []string, now time.Time) error {
	refs := extractReferences(content)
	for _, r := range extraRefs {
		refs = append(refs, classifyExplicitRef(r))
	}

	seen := map[string]bool{}
	for _, r := range refs {
		targetID, err := a.resolveReferenceTarget(ctx, r)
		if err != nil {
			return err
		}
		if targetID == "" || targetID == node.ID || seen[targetID] {
			continue
		}
		seen[targetID] = true

		target, err := a.cachedGetNode(ctx, targetID)
		if err != nil {
			return err
		}

		edgeType := types.EdgeReferences
		switch {
		case node.HasLabel(types.LabelPattern) && target.HasLabel(types.LabelADR):
			edgeType = types.EdgeInformedBy
		case node.HasLabel(types.LabelCommit) && target.HasLabel(types.LabelPattern):
			edgeType = types.EdgeApplies
		}

		edge := &types.Edge{
			From:      node.ID,
			To:        targetID,
			Type:      edgeType,
			Weight:    types.DefaultEdgeWeight(edgeType),
			CreatedAt: now,
		}
		if err := a.store.UpsertEdge(ctx, edge); err != nil {
			return err
		}
	}
	return nil
}

func classifyExplicitRef(s string) reference {
	switch {
	case adrTokenRe.MatchString(s):
		return reference{kind: "adr", token: adrTokenRe.FindString(s)}
	case patTokenRe.MatchString(s):
		return reference{kind: "pat", token: patTokenRe.FindString(s)}
	case expTokenRe.MatchString(s):
		return reference{kind: "exp", token: expTokenRe.FindString(s)}
	case strings.HasPrefix(s, "@"):
		return reference{kind: "wikilink", token: s}
	default:
		return reference{kind: "wikilink", token: s}
	}
}

// resolveReferenceTarget resolves a single reference token against the
// graph in the fixed priority order spec.md §4.3 names: property match,
// legacy prefix ID, title prefix, exact title, @alias.
func (a *API) resolveReferenceTarget(ctx context.Context, r reference) (string, error) {
	propKey, label := refPropertyKey(r.kind)

	if propKey != "" {
		if id, err := a.findByProperty(ctx, label, propKey, r.token); err != nil {
			return "", err
		} else if id != "" {
			return id, nil
		}
	}

	if propKey != "" {
		if id, err := a.findByProperty(ctx, label, propKey, legacyPrefixID(r.kind, r.token)); err != nil {
			return "", err
		} else if id != "" {
			return id, nil
		}
	}

	if id, err := a.findByTitlePrefix(ctx, r.token); err != nil {
		return "", err
	} else if id != "" {
		return id, nil
	}

	if id, err := a.findByExactTitle(ctx, r.token); err != nil {
		return "", err
	} else if id != "" {
		return id, nil
	}

	if strings.HasPrefix(r.token, "@") {
		return a.resolveAliasPerson(ctx, strings.TrimPrefix(r.token, "@"))
	}

	return "", nil
}

func refPropertyKey(kind string) (propKey, label string) {
	switch kind {
	case "adr":
		return "adr_id", types.LabelADR
	case "pat":
		return "pat_id", types.LabelPattern
	case "exp":
		return "exp_id", types.LabelEpisode
	default:
		return "", ""
	}
}

// legacyPrefixID normalizes a token like "ADR-007" into the bare legacy
// prefix ID form ("ADR-7") some ingested documents used before zero-padding
// was standardized.
func legacyPrefixID(kind, token string) string {
	digits := strings.TrimLeft(strings.TrimPrefix(token, strings.ToUpper(kind)+"-"), "0")
	if digits == "" {
		digits = "0"
	}
	return strings.ToUpper(kind) + "-" + digits
}

func (a *API) findByProperty(ctx context.Context, label, propKey, value string) (string, error) {
	if propKey == "" || value == "" {
		return "", nil
	}
	result, err := a.store.GetByLabel(ctx, label, storage.ListOptions{Limit: 1000})
	if err != nil {
		return "", err
	}
	for _, n := range result.Items {
		if v, ok := n.Properties[propKey]; ok {
			if s, ok := v.(string); ok && s == value {
				return n.ID, nil
			}
		}
	}
	return "", nil
}

func (a *API) findByTitlePrefix(ctx context.Context, token string) (string, error) {
	result, err := a.store.GetAllNodes(ctx, storage.ListOptions{Limit: 1000})
	if err != nil {
		return "", err
	}
	for _, n := range result.Items {
		if strings.HasPrefix(n.Title(), token) {
			return n.ID, nil
		}
	}
	return "", nil
}

func (a *API) findByExactTitle(ctx context.Context, token string) (string, error) {
	result, err := a.store.GetAllNodes(ctx, storage.ListOptions{Limit: 1000})
	if err != nil {
		return "", err
	}
	for _, n := range result.Items {
		if n.Title() == token {
			return n.ID, nil
		}
	}
	return "", nil
}
