package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/nullgraph/brain/internal/storage/sqlite"
	"github.com/nullgraph/brain/pkg/types"
)

func newTestEngine(t *testing.T) (*Engine, *sqlite.GraphStore) {
	t.Helper()
	store, err := sqlite.NewGraphStore(":memory:")
	if err != nil {
		t.Fatalf("NewGraphStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	eng, err := New(store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng, store
}

func addNode(t *testing.T, store *sqlite.GraphStore, title string, labels []string, content string, createdAt time.Time) string {
	t.Helper()
	id := types.NodeID(title, labels)
	node := &types.Node{
		ID:     id,
		Labels: labels,
		Properties: map[string]interface{}{
			"title":   title,
			"content": content,
			"summary": types.DeriveSummary(content),
		},
		Memory: types.Memory{Strength: 1.0, CreatedAt: createdAt, DecayRate: types.DecayRateForLabels(labels)},
	}
	if err := store.UpsertNode(context.Background(), node); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	return id
}

func TestRetrieveKeywordOnly(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	now := time.Now()
	addNode(t, store, "ADR-001: Use Postgres", []string{types.LabelDecision, types.LabelADR}, "We decided to use Postgres for storage.", now)
	addNode(t, store, "ADR-002: Frontend framework", []string{types.LabelDecision, types.LabelADR}, "We chose React for the frontend.", now)

	full, _, err := eng.Retrieve(ctx, Options{Query: "postgres", Reinforce: false})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(full) != 1 {
		t.Fatalf("expected 1 result, got %d", len(full))
	}
	if full[0].Properties["title"] != "ADR-001: Use Postgres" {
		t.Fatalf("unexpected top result: %+v", full[0])
	}
}

func TestRetrieveNoReinforceDoesNotMutate(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	now := time.Now()
	id := addNode(t, store, "ADR-001: Use Postgres", []string{types.LabelDecision, types.LabelADR}, "We decided to use Postgres.", now)

	before, err := store.GetNode(ctx, id)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}

	if _, _, err := eng.Retrieve(ctx, Options{Query: "postgres", Reinforce: false}); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	after, err := store.GetNode(ctx, id)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if after.Memory.AccessCount != before.Memory.AccessCount {
		t.Fatalf("expected access_count unchanged, got %d -> %d", before.Memory.AccessCount, after.Memory.AccessCount)
	}
	if after.Memory.Strength != before.Memory.Strength {
		t.Fatalf("expected strength unchanged, got %v -> %v", before.Memory.Strength, after.Memory.Strength)
	}
}

func TestRetrieveReinforces(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	now := time.Now()
	id := addNode(t, store, "ADR-001: Use Postgres", []string{types.LabelDecision, types.LabelADR}, "We decided to use Postgres.", now)

	if _, _, err := eng.Retrieve(ctx, Options{Query: "postgres", Reinforce: true}); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	after, err := store.GetNode(ctx, id)
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if after.Memory.AccessCount != 1 {
		t.Fatalf("expected access_count 1, got %d", after.Memory.AccessCount)
	}
	if after.Memory.Strength <= 1.0-1e-9 {
		// strength was already 1.0, clamp keeps it at 1.0
		if after.Memory.Strength != 1.0 {
			t.Fatalf("expected strength clamped at 1.0, got %v", after.Memory.Strength)
		}
	}
}

func TestRetrieveEmptyBrainReturnsEmpty(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	full, compact, err := eng.Retrieve(ctx, Options{Query: "anything"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(full) != 0 || len(compact) != 0 {
		t.Fatalf("expected no results, got full=%v compact=%v", full, compact)
	}
}

func TestRetrieveCompactShape(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	now := time.Now()
	addNode(t, store, "ADR-001: Use Postgres", []string{types.LabelDecision, types.LabelADR}, "We decided to use Postgres.", now)

	_, compact, err := eng.Retrieve(ctx, Options{Query: "postgres", Compact: true, Reinforce: false})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(compact) != 1 {
		t.Fatalf("expected 1 compact result, got %d", len(compact))
	}
	if compact[0].Type != types.LabelADR {
		t.Fatalf("expected compact type ADR, got %q", compact[0].Type)
	}
}

func TestRetrieveTemporalOnly(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	now := time.Now()
	old := now.AddDate(0, 0, -30)
	addNode(t, store, "Old note", []string{types.LabelConcept}, "an old note", old)
	addNode(t, store, "Recent note", []string{types.LabelConcept}, "a recent note", now)

	full, _, err := eng.Retrieve(ctx, Options{Since: "7d", Reinforce: false})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(full) != 1 {
		t.Fatalf("expected 1 result within 7d window, got %d", len(full))
	}
	if full[0].Properties["title"] != "Recent note" {
		t.Fatalf("unexpected result: %+v", full[0])
	}
}

func TestSanitizeFTSQuery(t *testing.T) {
	cases := map[string]string{
		`"token refresh" auth`: `"token refresh" AND "auth"`,
		`auth*`:                `auth*`,
		`   !!! ???  `:         ``,
	}
	for in, want := range cases {
		got := SanitizeFTSQuery(in)
		if got != want {
			t.Fatalf("SanitizeFTSQuery(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveSinceRelative(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	got, err := ResolveSince("7d", now)
	if err != nil {
		t.Fatalf("ResolveSince: %v", err)
	}
	want := now.AddDate(0, 0, -7)
	if !got.Equal(want) {
		t.Fatalf("ResolveSince(7d) = %v, want %v", got, want)
	}
}
