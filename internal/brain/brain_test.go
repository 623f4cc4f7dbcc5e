package brain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nullgraph/brain/internal/embedding"
	"github.com/nullgraph/brain/internal/graph"
	"github.com/nullgraph/brain/internal/health"
	"github.com/nullgraph/brain/internal/retrieval"
	"github.com/nullgraph/brain/internal/sleep"
	"github.com/nullgraph/brain/internal/storage/sqlite"
	"github.com/nullgraph/brain/internal/vectorstore"
)

// newTestBrain wires a Brain directly over an in-memory sqlite store and a
// nil embedder, avoiding the llm factory's network-backed clients so unit
// tests never make an HTTP call.
func newTestBrain(t *testing.T) *Brain {
	t.Helper()
	store, err := sqlite.NewGraphStore(":memory:")
	if err != nil {
		t.Fatalf("NewGraphStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	embed := embedding.New(nil)
	vec, err := vectorstore.NewSelector(context.Background(), store, embed.ModelName(), DefaultDimensions)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	api := graph.New(store)
	retrievalEngine, err := retrieval.New(store, vec)
	if err != nil {
		t.Fatalf("retrieval.New: %v", err)
	}
	cycle := sleep.New(api, store, vec, sleep.DefaultConfig(), health.Decay)

	return &Brain{
		store:     store,
		sqliteDB:  store,
		vec:       vec,
		embed:     embed,
		graphAPI:  api,
		retrieval: retrievalEngine,
		sleep:     cycle,
		dbPath:    ":memory:",
	}
}

func TestAddMemoryAndRetrieve(t *testing.T) {
	b := newTestBrain(t)
	ctx := context.Background()

	id, err := b.AddMemory(ctx, graph.AddMemoryInput{
		Title:   "ADR-001: Use Postgres",
		Content: "We decided to use Postgres for storage.",
		Labels:  []string{"Decision", "ADR"},
		Author:  "jane@example.com",
	})
	if err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	full, compact, err := b.Retrieve(ctx, retrieval.Options{Query: "postgres"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(full) != 1 || len(compact) != 1 {
		t.Fatalf("expected 1 result, got full=%d compact=%d", len(full), len(compact))
	}
	if full[0].ID != id {
		t.Fatalf("expected result id %s, got %s", id, full[0].ID)
	}
}

func TestUpdateAndGetDevState(t *testing.T) {
	b := newTestBrain(t)
	ctx := context.Background()

	state, err := b.UpdateDevState(ctx, "jane@example.com", "storage layer", "2026-07-30", "Jane Doe")
	if err != nil {
		t.Fatalf("UpdateDevState: %v", err)
	}
	if state.Focus != "storage layer" || state.Name != "Jane Doe" || state.SessionsCount != 1 {
		t.Fatalf("unexpected state after first update: %+v", state)
	}

	state, err = b.UpdateDevState(ctx, "jane@example.com", "retrieval layer", "2026-07-31", "")
	if err != nil {
		t.Fatalf("UpdateDevState (2nd): %v", err)
	}
	if state.Focus != "retrieval layer" || state.SessionsCount != 2 || state.Name != "Jane Doe" {
		t.Fatalf("unexpected state after second update: %+v", state)
	}

	got, err := b.GetDevState(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("GetDevState: %v", err)
	}
	if got.Focus != "retrieval layer" || got.SessionsCount != 2 {
		t.Fatalf("unexpected dev state: %+v", got)
	}
}

func TestGetDevStateNotFound(t *testing.T) {
	b := newTestBrain(t)
	if _, err := b.GetDevState(context.Background(), "nobody@example.com"); err == nil {
		t.Fatal("expected an error for an unresolved person")
	}
}

func TestConsolidateAndApplyDecay(t *testing.T) {
	b := newTestBrain(t)
	ctx := context.Background()

	if _, err := b.AddMemory(ctx, graph.AddMemoryInput{Title: "Pattern: Retry", Content: "Retry with backoff.", Labels: []string{"Pattern"}}); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}

	if _, err := b.Consolidate(ctx); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if _, err := b.ApplyDecay(ctx); err != nil {
		t.Fatalf("ApplyDecay: %v", err)
	}
}

func TestSleepCycleRunsDefaultPhases(t *testing.T) {
	b := newTestBrain(t)
	ctx := context.Background()

	if _, err := b.AddMemory(ctx, graph.AddMemoryInput{Title: "ADR-002: Cache layer", Content: "We added a cache.", Labels: []string{"Decision", "ADR"}}); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}

	results, err := b.SleepCycle(ctx, nil)
	if err != nil {
		t.Fatalf("SleepCycle: %v", err)
	}
	for _, phase := range sleep.DefaultPhaseOrder {
		if _, ok := results[phase]; !ok {
			t.Fatalf("expected phase %q in results, got %v", phase, results)
		}
	}
}

func TestExportJSON(t *testing.T) {
	b := newTestBrain(t)
	ctx := context.Background()

	if _, err := b.AddMemory(ctx, graph.AddMemoryInput{Title: "ADR-003: Export test", Content: "content", Labels: []string{"Decision", "ADR"}, Author: "jane@example.com"}); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	got, err := b.ExportJSON(ctx, path)
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if got != path {
		t.Fatalf("expected path %s, got %s", path, got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty export")
	}
}

func TestGetStats(t *testing.T) {
	b := newTestBrain(t)
	ctx := context.Background()

	if _, err := b.AddMemory(ctx, graph.AddMemoryInput{Title: "ADR-004: Stats test", Content: "content", Labels: []string{"Decision", "ADR"}}); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}

	stats, err := b.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalNodes == 0 {
		t.Fatal("expected at least one node")
	}
	if stats.VectorBackend == "" {
		t.Fatal("expected a non-empty vector backend")
	}
}
