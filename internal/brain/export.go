package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// exportVersion is graph.json's format version (spec.md §6 "Wire-level
// persisted state").
const exportVersion = 1

// exportNode is one entry of graph.json's nodes map.
type exportNode struct {
	Labels     []string               `json:"labels"`
	Properties map[string]interface{} `json:"props"`
	Memory     types.Memory           `json:"memory"`
}

// exportEdge is one entry of graph.json's edges array.
type exportEdge struct {
	From       string                 `json:"src"`
	To         string                 `json:"tgt"`
	Type       string                 `json:"type"`
	Weight     float64                `json:"weight"`
	Properties map[string]interface{} `json:"props,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type exportMeta struct {
	SavedAt   time.Time `json:"saved_at"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	Backend   string    `json:"backend"`
}

type exportDoc struct {
	Version int                   `json:"version"`
	Meta     exportMeta            `json:"meta"`
	Nodes    map[string]exportNode `json:"nodes"`
	Edges    []exportEdge          `json:"edges"`
}

// ExportJSON writes the entire graph to a diffable graph.json snapshot
// (spec.md §6 "export_json(path?) -> path"). An empty path defaults to
// "graph.json" in the current directory.
func (b *Brain) ExportJSON(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = "graph.json"
	}

	doc := exportDoc{
		Version: exportVersion,
		Nodes:   map[string]exportNode{},
	}

	page := 1
	for {
		res, err := b.store.GetAllNodes(ctx, storage.ListOptions{Page: page, Limit: 1000, SortBy: "created_at", SortOrder: "asc"})
		if err != nil {
			return "", fmt.Errorf("brain: export: list nodes: %w", err)
		}
		for _, n := range res.Items {
			doc.Nodes[n.ID] = exportNode{Labels: n.Labels, Properties: n.Properties, Memory: n.Memory}
		}
		if !res.HasMore {
			break
		}
		page++
	}

	seen := map[string]bool{}
	for _, edgeType := range types.AllEdgeTypes {
		edges, err := b.store.GetEdgesByType(ctx, edgeType)
		if err != nil {
			return "", fmt.Errorf("brain: export: list edges of type %s: %w", edgeType, err)
		}
		for _, e := range edges {
			key := e.From + "|" + e.To + "|" + e.Type
			if seen[key] {
				continue
			}
			seen[key] = true
			doc.Edges = append(doc.Edges, exportEdge{
				From: e.From, To: e.To, Type: e.Type, Weight: e.Weight,
				Properties: e.Properties, CreatedAt: e.CreatedAt,
			})
		}
	}

	backend := "bruteforce"
	if !b.vec.UsingFallback() {
		backend = "hnsw"
	}
	doc.Meta = exportMeta{
		SavedAt:   time.Now(),
		NodeCount: len(doc.Nodes),
		EdgeCount: len(doc.Edges),
		Backend:   backend,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("brain: export: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("brain: export: write %s: %w", path, err)
	}
	return path, nil
}
