package vectorstore

import (
	"context"
	"testing"
)

func TestHNSWUpsertAndQueryFindsExactMatch(t *testing.T) {
	ctx := context.Background()
	h := NewHNSW(4, DefaultHNSWConfig())

	vectors := map[string][]float32{
		"a": {1, 0, 0, 0},
		"b": {0, 1, 0, 0},
		"c": {0.9, 0.1, 0, 0},
		"d": {0, 0, 1, 0},
	}
	for id, v := range vectors {
		if err := h.Upsert(ctx, id, v); err != nil {
			t.Fatalf("Upsert(%s): %v", id, err)
		}
	}

	matches, err := h.Query(ctx, []float32{1, 0, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0].ID != "a" {
		t.Fatalf("expected closest match to be 'a', got %q", matches[0].ID)
	}
}

func TestHNSWUpsertReplacesExistingVector(t *testing.T) {
	ctx := context.Background()
	h := NewHNSW(2, DefaultHNSWConfig())

	if err := h.Upsert(ctx, "x", []float32{1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := h.Upsert(ctx, "x", []float32{0, 1}); err != nil {
		t.Fatal(err)
	}

	count, _ := h.Count(ctx)
	if count != 1 {
		t.Fatalf("expected 1 node after re-upsert, got %d", count)
	}

	got, err := h.Get(ctx, []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if got["x"][1] < 0.9 {
		t.Fatalf("expected replaced vector to point toward [0,1], got %v", got["x"])
	}
}

func TestHNSWDeleteRemovesFromResults(t *testing.T) {
	ctx := context.Background()
	h := NewHNSW(2, DefaultHNSWConfig())

	for _, id := range []string{"a", "b", "c"} {
		if err := h.Upsert(ctx, id, []float32{1, float32(len(id))}); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	count, _ := h.Count(ctx)
	if count != 2 {
		t.Fatalf("expected 2 nodes after delete, got %d", count)
	}

	matches, err := h.Query(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range matches {
		if m.ID == "a" {
			t.Fatal("deleted id still returned from Query")
		}
	}
}

func TestHNSWRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	h := NewHNSW(3, DefaultHNSWConfig())

	if err := h.Upsert(ctx, "x", []float32{1, 2}); err != ErrDimensionMismatch {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestNormalizeProducesUnitVector(t *testing.T) {
	v := normalize([]float32{3, 4})
	got := float64(v[0]*v[0] + v[1]*v[1])
	if got < 0.999 || got > 1.001 {
		t.Fatalf("expected unit length, got squared norm %v", got)
	}
}
