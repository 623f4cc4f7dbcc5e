package sleep

import (
	"context"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// Insight is a suggestion surfaced by phaseInsights: a connected component
// of RELATED_TO nodes large enough to be meaningful but not yet covered by
// any Theme (spec.md §4.6 "Insights / Gaps (optional)").
type Insight struct {
	NodeIDs []string `json:"node_ids"`
	Size    int       `json:"size"`
}

// minInsightComponentSize is the smallest RELATED_TO component phaseInsights
// will surface; isolated pairs are too common to be interesting.
const minInsightComponentSize = 3

// phaseInsights finds connected components of RELATED_TO edges that have no
// member covered by any Theme, and reports them as candidate themes someone
// should name explicitly. It is read-only: unlike phaseThemes it never
// creates nodes itself, since a component's scope isn't knowable from edges
// alone (spec.md §4.6).
func phaseInsights(ctx context.Context, c *Cycle) (map[string]interface{}, error) {
	relatedEdges, err := c.Store.GetEdgesByType(ctx, types.EdgeRelatedTo)
	if err != nil {
		return nil, err
	}
	if len(relatedEdges) == 0 {
		return map[string]interface{}{"insights": []Insight{}}, nil
	}

	adjacency := map[string]map[string]bool{}
	addEdge := func(a, b string) {
		if adjacency[a] == nil {
			adjacency[a] = map[string]bool{}
		}
		adjacency[a][b] = true
	}
	for _, e := range relatedEdges {
		addEdge(e.From, e.To)
		addEdge(e.To, e.From)
	}

	themed, err := nodesWithTheme(ctx, c.Store)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{}
	var insights []Insight
	for node := range adjacency {
		if visited[node] {
			continue
		}
		component := connectedComponent(adjacency, node, visited)
		if len(component) < minInsightComponentSize {
			continue
		}
		covered := false
		for _, id := range component {
			if themed[id] {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		insights = append(insights, Insight{NodeIDs: component, Size: len(component)})
	}
	if insights == nil {
		insights = []Insight{}
	}

	return map[string]interface{}{"insights": insights}, nil
}

func nodesWithTheme(ctx context.Context, store storage.GraphStore) (map[string]bool, error) {
	edges, err := store.GetEdgesByType(ctx, types.EdgeBelongsToTheme)
	if err != nil {
		return nil, err
	}
	themed := make(map[string]bool, len(edges))
	for _, e := range edges {
		themed[e.From] = true
	}
	return themed, nil
}

func connectedComponent(adjacency map[string]map[string]bool, start string, visited map[string]bool) []string {
	var component []string
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		component = append(component, id)
		for neighbor := range adjacency[id] {
			if !visited[neighbor] {
				stack = append(stack, neighbor)
			}
		}
	}
	return component
}
