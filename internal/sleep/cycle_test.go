package sleep

import (
	"context"
	"testing"
	"time"

	"github.com/nullgraph/brain/internal/graph"
	"github.com/nullgraph/brain/internal/storage/sqlite"
	"github.com/nullgraph/brain/pkg/types"
)

func newTestCycle(t *testing.T) (*Cycle, *sqlite.GraphStore) {
	t.Helper()
	store, err := sqlite.NewGraphStore(":memory:")
	if err != nil {
		t.Fatalf("NewGraphStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	api := graph.New(store)
	c := New(api, store, nil, DefaultConfig(), nil)
	return c, store
}

func addCommit(t *testing.T, store *sqlite.GraphStore, title, scope string, files []string) string {
	t.Helper()
	labels := []string{types.LabelEpisode, types.LabelCommit}
	id := types.NodeID(title, labels)
	props := map[string]interface{}{
		"title":   title,
		"content": title,
		"summary": title,
		"files":   files,
	}
	if scope != "" {
		props["scope"] = scope
	}
	node := &types.Node{
		ID:         id,
		Labels:     labels,
		Properties: props,
		Memory:     types.Memory{Strength: 1.0, CreatedAt: time.Now(), DecayRate: types.DecayRateForLabels(labels)},
	}
	if err := store.UpsertNode(context.Background(), node); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	return id
}

func TestPhaseConnectCoFileNotCoScope(t *testing.T) {
	c, store := newTestCycle(t)
	ctx := context.Background()

	n1 := addCommit(t, store, "commit one", "x", []string{"a.py", "b.py"})
	n2 := addCommit(t, store, "commit two", "y", []string{"a.py"})

	results, err := c.Run(ctx, []string{"connect"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if errVal, ok := results["connect"]["error"]; ok {
		t.Fatalf("connect phase errored: %v", errVal)
	}

	has, err := store.HasEdge(ctx, n1, n2, types.EdgeModifiesSame)
	if err != nil {
		t.Fatalf("HasEdge: %v", err)
	}
	if !has {
		has, err = store.HasEdge(ctx, n2, n1, types.EdgeModifiesSame)
		if err != nil {
			t.Fatalf("HasEdge: %v", err)
		}
	}
	if !has {
		t.Fatalf("expected a MODIFIES_SAME edge between commits sharing a.py")
	}

	sameScope, err := store.HasEdge(ctx, n1, n2, types.EdgeSameScope)
	if err != nil {
		t.Fatalf("HasEdge: %v", err)
	}
	if sameScope {
		t.Fatalf("did not expect a SAME_SCOPE edge between different-scope commits")
	}
}

func TestPhaseThemesCreatesThemeForRecurringScope(t *testing.T) {
	c, store := newTestCycle(t)
	ctx := context.Background()

	ids := []string{
		addCommit(t, store, "commit a", "brain", []string{"x.py"}),
		addCommit(t, store, "commit b", "brain", []string{"y.py"}),
		addCommit(t, store, "commit c", "brain", []string{"z.py"}),
	}

	results, err := c.Run(ctx, []string{"themes"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if errVal, ok := results["themes"]["error"]; ok {
		t.Fatalf("themes phase errored: %v", errVal)
	}

	themeID := types.ThemeID("brain")
	theme, err := store.GetNode(ctx, themeID)
	if err != nil {
		t.Fatalf("expected theme node to exist: %v", err)
	}
	if theme.Title() != "Theme: brain" {
		t.Fatalf("unexpected theme title: %q", theme.Title())
	}

	edgeCount := 0
	for _, id := range ids {
		has, err := store.HasEdge(ctx, id, themeID, types.EdgeBelongsToTheme)
		if err != nil {
			t.Fatalf("HasEdge: %v", err)
		}
		if has {
			edgeCount++
		}
	}
	if edgeCount != 3 {
		t.Fatalf("expected 3 BELONGS_TO_THEME edges, got %d", edgeCount)
	}
}

func TestPhasePromoteTagsQualifyingEpisode(t *testing.T) {
	c, store := newTestCycle(t)
	ctx := context.Background()

	episodeID := types.NodeID("a notable episode", []string{types.LabelEpisode})
	episode := &types.Node{
		ID:     episodeID,
		Labels: []string{types.LabelEpisode},
		Properties: map[string]interface{}{
			"title":   "a notable episode",
			"content": "something happened",
			"summary": "something happened",
		},
		Memory: types.Memory{Strength: 0.95, AccessCount: 15, CreatedAt: time.Now()},
	}
	if err := store.UpsertNode(ctx, episode); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}

	for i := 0; i < 3; i++ {
		targetID := types.NodeID("ref target", []string{types.LabelConcept, types.LabelGlossary})
		target := &types.Node{
			ID:     targetID + string(rune('a'+i)),
			Labels: []string{types.LabelConcept},
			Properties: map[string]interface{}{
				"title":   "ref target" + string(rune('a'+i)),
				"content": "x",
			},
		}
		if err := store.UpsertNode(ctx, target); err != nil {
			t.Fatalf("UpsertNode: %v", err)
		}
		edge := &types.Edge{From: episodeID, To: target.ID, Type: types.EdgeReferences, Weight: 0.6}
		if err := store.UpsertEdge(ctx, edge); err != nil {
			t.Fatalf("UpsertEdge: %v", err)
		}
	}

	results, err := c.Run(ctx, []string{"promote"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if errVal, ok := results["promote"]["error"]; ok {
		t.Fatalf("promote phase errored: %v", errVal)
	}

	after, err := store.GetNode(ctx, episodeID)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if !after.HasLabel(types.LabelEpisode) || !after.HasLabel(types.LabelConcept) || !after.HasLabel(types.LabelPromotedEpisode) {
		t.Fatalf("expected labels superset {Episode,Concept,PromotedEpisode}, got %v", after.Labels)
	}
}

func TestPhaseDedupKeepsEdgeRicherSurvivor(t *testing.T) {
	c, store := newTestCycle(t)
	ctx := context.Background()

	rich := &types.Node{
		ID:     "adr-rich",
		Labels: []string{types.LabelDecision, types.LabelADR},
		Properties: map[string]interface{}{
			"title":   "ADR-001: X",
			"content": "decision content",
		},
		Memory: types.Memory{CreatedAt: time.Now()},
	}
	poor := &types.Node{
		ID:     "adr-poor",
		Labels: []string{types.LabelDecision, types.LabelADR},
		Properties: map[string]interface{}{
			"title":   "ADR-001: X",
			"content": "decision content",
		},
		Memory: types.Memory{CreatedAt: time.Now()},
	}
	other := &types.Node{
		ID:     "other-node",
		Labels: []string{types.LabelConcept},
		Properties: map[string]interface{}{
			"title":   "some concept",
			"content": "x",
		},
	}
	for _, n := range []*types.Node{rich, poor, other} {
		if err := store.UpsertNode(ctx, n); err != nil {
			t.Fatalf("UpsertNode: %v", err)
		}
	}
	if err := store.UpsertEdge(ctx, &types.Edge{From: rich.ID, To: other.ID, Type: types.EdgeReferences, Weight: 0.6}); err != nil {
		t.Fatalf("UpsertEdge: %v", err)
	}

	results, err := c.Run(ctx, []string{"dedup"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if errVal, ok := results["dedup"]["error"]; ok {
		t.Fatalf("dedup phase errored: %v", errVal)
	}

	if _, err := store.GetNode(ctx, rich.ID); err != nil {
		t.Fatalf("expected edge-richer node to survive: %v", err)
	}
	if _, err := store.GetNode(ctx, poor.ID); err == nil {
		t.Fatalf("expected edge-poorer duplicate to be removed")
	}
}

func TestPhaseCalibrateBoostsHighAccessEdges(t *testing.T) {
	c, store := newTestCycle(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 10; i++ {
		id := addCommit(t, store, "api commit "+string(rune('a'+i)), "api", []string{"s.py"})
		node, err := store.GetNode(ctx, id)
		if err != nil {
			t.Fatalf("GetNode: %v", err)
		}
		node.Memory.AccessCount = 6
		if err := store.UpdateMemory(ctx, id, node.Memory); err != nil {
			t.Fatalf("UpdateMemory: %v", err)
		}
		ids = append(ids, id)
	}

	priorWeight := 0.4
	if err := store.UpsertEdge(ctx, &types.Edge{From: ids[0], To: ids[1], Type: types.EdgeSameScope, Weight: priorWeight}); err != nil {
		t.Fatalf("UpsertEdge: %v", err)
	}
	if err := store.UpsertEdge(ctx, &types.Edge{From: ids[0], To: ids[1], Type: types.EdgeAuthoredBy, Weight: 0.5}); err != nil {
		t.Fatalf("UpsertEdge: %v", err)
	}

	results, err := c.Run(ctx, []string{"calibrate"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if errVal, ok := results["calibrate"]["error"]; ok {
		t.Fatalf("calibrate phase errored: %v", errVal)
	}

	edge, err := store.GetEdge(ctx, ids[0], ids[1], types.EdgeSameScope)
	if err != nil {
		t.Fatalf("GetEdge: %v", err)
	}
	if edge.Weight < priorWeight*1.15-1e-9 {
		t.Fatalf("expected boosted weight >= %v, got %v", priorWeight*1.15, edge.Weight)
	}

	structural, err := store.GetEdge(ctx, ids[0], ids[1], types.EdgeAuthoredBy)
	if err != nil {
		t.Fatalf("GetEdge: %v", err)
	}
	if structural.Weight != 0.5 {
		t.Fatalf("expected structural edge weight unchanged, got %v", structural.Weight)
	}
}

func TestPhaseConnectResolvesWikilinkAndIsIdempotent(t *testing.T) {
	c, store := newTestCycle(t)
	ctx := context.Background()

	adr1 := &types.Node{
		ID:     types.NodeID("ADR-001", []string{types.LabelDecision, types.LabelADR}),
		Labels: []string{types.LabelDecision, types.LabelADR},
		Properties: map[string]interface{}{
			"title":   "ADR-001",
			"content": "Use Postgres.",
		},
	}
	adr2 := &types.Node{
		ID:     types.NodeID("ADR-002", []string{types.LabelDecision, types.LabelADR}),
		Labels: []string{types.LabelDecision, types.LabelADR},
		Properties: map[string]interface{}{
			"title":   "ADR-002",
			"content": "Builds on [[ADR-001]].",
		},
	}
	for _, n := range []*types.Node{adr1, adr2} {
		if err := store.UpsertNode(ctx, n); err != nil {
			t.Fatalf("UpsertNode: %v", err)
		}
	}

	if _, err := c.Run(ctx, []string{"connect"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := c.Run(ctx, []string{"connect"}); err != nil {
		t.Fatalf("Run (second): %v", err)
	}

	edge, err := store.GetEdge(ctx, adr2.ID, adr1.ID, types.EdgeReferences)
	if err != nil {
		t.Fatalf("expected REFERENCES edge ADR-002 -> ADR-001: %v", err)
	}
	if edge.From != adr2.ID || edge.To != adr1.ID {
		t.Fatalf("unexpected edge endpoints: %+v", edge)
	}

	edges, err := store.GetEdgesByType(ctx, types.EdgeReferences)
	if err != nil {
		t.Fatalf("GetEdgesByType: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected exactly one REFERENCES edge after running connect twice, got %d", len(edges))
	}
}
