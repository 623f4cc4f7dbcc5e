package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// newTestStore creates an in-memory SQLite graph store for testing.
// NewGraphStore initialises the full Schema, so no additional DDL is
// required in tests.
func newTestStore(t *testing.T) *GraphStore {
	t.Helper()
	store, err := NewGraphStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertNodeIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := types.NodeID("ADR-001: Use Postgres", []string{types.LabelDecision, types.LabelADR})
	node := &types.Node{
		ID:     id,
		Labels: []string{types.LabelDecision, types.LabelADR},
		Properties: map[string]interface{}{
			"title":   "ADR-001: Use Postgres",
			"content": "We will use Postgres for the primary store.",
			"adr_id":  "ADR-001",
		},
	}

	if err := store.UpsertNode(ctx, node); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	again := &types.Node{
		ID:     id,
		Labels: []string{types.LabelApproved},
		Properties: map[string]interface{}{
			"title":   "ADR-001: Use Postgres",
			"content": "We will use Postgres for the primary store.",
			"adr_id":  "ADR-001",
		},
	}
	if err := store.UpsertNode(ctx, again); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := store.GetNode(ctx, id)
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if !got.HasLabel(types.LabelDecision) || !got.HasLabel(types.LabelADR) || !got.HasLabel(types.LabelApproved) {
		t.Fatalf("expected union of labels, got %v", got.Labels)
	}

	all, err := store.GetAllNodes(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatalf("list nodes: %v", err)
	}
	if len(all.Items) != 1 {
		t.Fatalf("upsert with same ID must not create a duplicate row, got %d nodes", len(all.Items))
	}
}

func TestUpsertEdgeKeepsMaxWeight(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := &types.Node{ID: "a", Labels: []string{types.LabelPattern}, Properties: map[string]interface{}{"title": "A"}}
	b := &types.Node{ID: "b", Labels: []string{types.LabelADR}, Properties: map[string]interface{}{"title": "B"}}
	if err := store.UpsertNode(ctx, a); err != nil {
		t.Fatalf("upsert a: %v", err)
	}
	if err := store.UpsertNode(ctx, b); err != nil {
		t.Fatalf("upsert b: %v", err)
	}

	if err := store.UpsertEdge(ctx, &types.Edge{From: "a", To: "b", Type: types.EdgeInformedBy, Weight: 0.3}); err != nil {
		t.Fatalf("first edge: %v", err)
	}
	if err := store.UpsertEdge(ctx, &types.Edge{From: "a", To: "b", Type: types.EdgeInformedBy, Weight: 0.7}); err != nil {
		t.Fatalf("second edge: %v", err)
	}

	edge, err := store.GetEdge(ctx, "a", "b", types.EdgeInformedBy)
	if err != nil {
		t.Fatalf("get edge: %v", err)
	}
	if edge.Weight != 0.7 {
		t.Fatalf("expected max(0.3,0.7)=0.7, got %v", edge.Weight)
	}
}

func TestUpsertEdgeSwallowsMissingEndpoint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.UpsertEdge(ctx, &types.Edge{From: "ghost-a", To: "ghost-b", Type: types.EdgeRelatedTo, Weight: 0.5})
	if err != nil {
		t.Fatalf("missing-endpoint edges must be swallowed per spec, got: %v", err)
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := &types.Node{ID: "a", Labels: []string{types.LabelConcept}, Properties: map[string]interface{}{"title": "A"}}
	b := &types.Node{ID: "b", Labels: []string{types.LabelConcept}, Properties: map[string]interface{}{"title": "B"}}
	if err := store.UpsertNode(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertNode(ctx, b); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertEdge(ctx, &types.Edge{From: "a", To: "b", Type: types.EdgeRelatedTo, Weight: 0.8}); err != nil {
		t.Fatal(err)
	}

	if err := store.RemoveNode(ctx, "a"); err != nil {
		t.Fatalf("remove node: %v", err)
	}

	if _, err := store.GetNode(ctx, "a"); err != storage.ErrNotFound {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	has, err := store.HasEdge(ctx, "a", "b", types.EdgeRelatedTo)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Fatalf("edge should have been cascade-deleted")
	}
}

func TestReinforceNode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n := &types.Node{ID: "a", Labels: []string{types.LabelConcept}, Properties: map[string]interface{}{"title": "A"}}
	if err := store.UpsertNode(ctx, n); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := store.ReinforceNode(ctx, "a", now); err != nil {
		t.Fatalf("reinforce: %v", err)
	}

	got, err := store.GetNode(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Memory.AccessCount != 1 {
		t.Fatalf("expected access_count=1, got %d", got.Memory.AccessCount)
	}
	if got.Memory.Strength <= 1.0-1e-9 && got.Memory.Strength < 1.0 {
		t.Fatalf("expected strength to increase toward cap, got %v", got.Memory.Strength)
	}
}

func TestGetByLabel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		labels := []string{types.LabelEpisode}
		if i == 2 {
			labels = []string{types.LabelCommit}
		}
		n := &types.Node{ID: id, Labels: labels, Properties: map[string]interface{}{"title": id}}
		if err := store.UpsertNode(ctx, n); err != nil {
			t.Fatal(err)
		}
	}

	page, err := store.GetByLabel(ctx, types.LabelEpisode, storage.ListOptions{})
	if err != nil {
		t.Fatalf("get by label: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 Episode nodes, got %d", len(page.Items))
	}
}
