package graph

import (
	"context"
	"testing"

	"github.com/nullgraph/brain/internal/storage/sqlite"
	"github.com/nullgraph/brain/pkg/types"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	store, err := sqlite.NewGraphStore(":memory:")
	if err != nil {
		t.Fatalf("NewGraphStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func TestAddMemoryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	in := AddMemoryInput{
		Title:   "ADR-001: Use Postgres",
		Content: "We decided to use Postgres for the auth service's session storage.",
		Labels:  []string{types.LabelDecision, types.LabelADR},
		Author:  "jane@example.com",
	}

	id1, err := api.AddMemory(ctx, in)
	if err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	id2, err := api.AddMemory(ctx, in)
	if err != nil {
		t.Fatalf("AddMemory (second): %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected stable ID across re-add, got %s and %s", id1, id2)
	}

	node, err := api.GetNode(ctx, id1)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if node.Title() != in.Title {
		t.Fatalf("expected title %q, got %q", in.Title, node.Title())
	}
}

func TestAddMemoryLinksAuthor(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	id, err := api.AddMemory(ctx, AddMemoryInput{
		Title:   "Fixed the login bug",
		Content: "Patched a race condition in the login handler.",
		Labels:  []string{types.LabelEpisode},
		Author:  "jane@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}

	personID := types.PersonID("jane@example.com")
	has, err := api.HasEdge(ctx, id, personID, types.EdgeAuthoredBy)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatal("expected AUTHORED_BY edge to author's Person node")
	}

	person, err := api.GetNode(ctx, personID)
	if err != nil {
		t.Fatalf("expected Person node to exist: %v", err)
	}
	if !person.HasLabel(types.LabelPerson) {
		t.Fatal("expected Person label on resolved author node")
	}
}

func TestAddMemoryInfersDomain(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	id, err := api.AddMemory(ctx, AddMemoryInput{
		Title:   "Session token rotation",
		Content: "auth auth auth login oauth token credential permission session",
		Labels:  []string{types.LabelEpisode},
	})
	if err != nil {
		t.Fatal(err)
	}

	domainID := types.DomainID("auth")
	has, err := api.HasEdge(ctx, id, domainID, types.EdgeBelongsTo)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatal("expected BELONGS_TO edge to the inferred auth domain")
	}
}

func TestAddMemoryResolvesADRReference(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	adrID, err := api.AddMemory(ctx, AddMemoryInput{
		Title:      "ADR-007: Use HNSW for vector search",
		Content:    "We chose HNSW.",
		Labels:     []string{types.LabelDecision, types.LabelADR},
		Properties: map[string]interface{}{"adr_id": "ADR-007"},
	})
	if err != nil {
		t.Fatal(err)
	}

	patternID, err := api.AddMemory(ctx, AddMemoryInput{
		Title:   "Use a Selector to pick ANN backend",
		Content: "See ADR-007 for why this pattern exists.",
		Labels:  []string{types.LabelPattern, types.LabelApproved},
	})
	if err != nil {
		t.Fatal(err)
	}

	has, err := api.HasEdge(ctx, patternID, adrID, types.EdgeInformedBy)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatal("expected Pattern->ADR reference to upgrade to INFORMED_BY")
	}
}

func TestAddEdgeKeepsMaxWeight(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	if err := api.AddNodeRaw(ctx, &types.Node{ID: "a", Labels: []string{types.LabelConcept}, Properties: map[string]interface{}{"title": "A"}}); err != nil {
		t.Fatal(err)
	}
	if err := api.AddNodeRaw(ctx, &types.Node{ID: "b", Labels: []string{types.LabelConcept}, Properties: map[string]interface{}{"title": "B"}}); err != nil {
		t.Fatal(err)
	}

	if err := api.AddEdge(ctx, "a", "b", types.EdgeRelatedTo, 0.3, nil); err != nil {
		t.Fatal(err)
	}
	if err := api.AddEdge(ctx, "a", "b", types.EdgeRelatedTo, 0.8, nil); err != nil {
		t.Fatal(err)
	}

	edge, err := api.GetEdge(ctx, "a", "b", types.EdgeRelatedTo)
	if err != nil {
		t.Fatal(err)
	}
	if edge.Weight != 0.8 {
		t.Fatalf("expected max-weight merge to keep 0.8, got %v", edge.Weight)
	}
}

func TestResolvePersonReusesLegacyAlias(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	canonical, err := api.ResolvePerson(ctx, "jane@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := api.ResolvePerson(ctx, "@jdoe"); err != nil {
		t.Fatal(err)
	}
	node, err := api.GetNode(ctx, canonical)
	if err != nil {
		t.Fatal(err)
	}
	props := cloneProps(node.Properties)
	props["aliases"] = []string{"jdoe"}
	node.Properties = props
	if err := api.store.UpsertNode(ctx, node); err != nil {
		t.Fatal(err)
	}

	resolved, err := api.ResolvePerson(ctx, "@jdoe")
	if err != nil {
		t.Fatal(err)
	}
	if resolved != canonical {
		t.Fatalf("expected alias to resolve to canonical person %s, got %s", canonical, resolved)
	}
}
