package vectorstore

import (
	"context"
	"testing"
)

func TestBruteForceQueryRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	bf := NewBruteForce(3)

	_ = bf.Upsert(ctx, "close", []float32{1, 0, 0})
	_ = bf.Upsert(ctx, "far", []float32{0, 1, 0})
	_ = bf.Upsert(ctx, "mid", []float32{0.8, 0.2, 0})

	matches, err := bf.Query(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "close" {
		t.Fatalf("expected 'close' to rank first, got %q", matches[0].ID)
	}
}

func TestBruteForceSnapshotIsIndependentCopy(t *testing.T) {
	ctx := context.Background()
	bf := NewBruteForce(2)
	_ = bf.Upsert(ctx, "a", []float32{1, 2})

	snap := bf.Snapshot()
	snap["a"][0] = 99

	got, _ := bf.Get(ctx, []string{"a"})
	if got["a"][0] != 1 {
		t.Fatalf("mutating snapshot leaked into store: %v", got["a"])
	}
}
