package graph

import (
	"context"
	"strings"
	"time"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// domainKeywords is the fixed keyword-bucket table content is scored
// against during add_memory (spec.md §4.3). Each occurrence of a keyword
// anywhere in the lower-cased content adds one point to that domain's
// score; the highest-scoring non-zero domain wins.
var domainKeywords = map[string][]string{
	"auth":     {"auth", "login", "session", "token", "oauth", "permission", "credential"},
	"payments": {"payment", "invoice", "billing", "charge", "refund", "stripe", "subscription"},
	"database": {"database", "schema", "migration", "query", "sql", "index", "table"},
	"api":      {"endpoint", "api", "rest", "graphql", "request", "response", "route"},
	"frontend": {"component", "render", "css", "ui", "button", "react", "view"},
	"infra":    {"deploy", "docker", "kubernetes", "pipeline", "infrastructure", "terraform", "ci"},
	"testing":  {"test", "mock", "assertion", "coverage", "fixture", "spec"},
}

// domainOrder fixes iteration order so ties resolve deterministically.
var domainOrder = []string{"auth", "payments", "database", "api", "frontend", "infra", "testing"}

// InferDomain scores content's lower-cased text against the fixed keyword
// buckets and returns the highest-scoring non-zero domain name, or "" if no
// bucket scored at all.
func InferDomain(content string) string {
	lower := strings.ToLower(content)

	best := ""
	bestScore := 0
	for _, name := range domainOrder {
		score := 0
		for _, kw := range domainKeywords[name] {
			score += strings.Count(lower, kw)
		}
		if score > bestScore {
			bestScore = score
			best = name
		}
	}
	return best
}

// ensureDomain upserts (or returns the existing) Domain node for name.
func (a *API) ensureDomain(ctx context.Context, name string, now time.Time) (string, error) {
	id := types.DomainID(name)

	existing, err := a.store.GetNode(ctx, id)
	if err != nil && err != storage.ErrNotFound {
		return "", err
	}
	if existing != nil {
		return id, nil
	}

	node := &types.Node{
		ID:     id,
		Labels: []string{types.LabelDomain},
		Properties: map[string]interface{}{
			"title": name,
			"name":  name,
		},
		Memory: types.NewMemory(now, types.DecayRateForLabels([]string{types.LabelDomain})),
	}
	return id, a.store.UpsertNode(ctx, node)
}
