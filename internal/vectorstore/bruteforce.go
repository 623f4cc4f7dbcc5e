package vectorstore

import (
	"context"
	"sort"
	"sync"
)

// BruteForce is the fallback vectorstore.Store used when the HNSW index
// fails to initialize (spec §4.2). It keeps every vector in memory and
// scores a query against all of them, so it is correct but O(n) per query.
type BruteForce struct {
	dimensions int
	mu         sync.RWMutex
	vectors    map[string][]float32
}

// NewBruteForce creates an empty brute-force index for vectors of the given
// dimensionality.
func NewBruteForce(dimensions int) *BruteForce {
	return &BruteForce{
		dimensions: dimensions,
		vectors:    make(map[string][]float32),
	}
}

func (b *BruteForce) Dimensions() int { return b.dimensions }

func (b *BruteForce) Upsert(ctx context.Context, id string, vec []float32) error {
	if len(vec) != b.dimensions {
		return ErrDimensionMismatch
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]float32, len(vec))
	copy(stored, vec)
	b.vectors[id] = stored
	return nil
}

func (b *BruteForce) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.vectors, id)
	return nil
}

func (b *BruteForce) Count(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.vectors), nil
}

func (b *BruteForce) Get(ctx context.Context, ids []string) (map[string][]float32, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string][]float32, len(ids))
	for _, id := range ids {
		if v, ok := b.vectors[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (b *BruteForce) Query(ctx context.Context, vec []float32, k int) ([]Match, error) {
	if len(vec) != b.dimensions {
		return nil, ErrDimensionMismatch
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	results := make([]Match, 0, len(b.vectors))
	for id, stored := range b.vectors {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		results = append(results, Match{ID: id, Similarity: cosineSimilarity(vec, stored)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Snapshot returns a copy of every stored id/vector pair, used by Selector to
// rebuild a freshly-constructed HNSW index when migrating off the fallback.
func (b *BruteForce) Snapshot() map[string][]float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string][]float32, len(b.vectors))
	for id, v := range b.vectors {
		cp := make([]float32, len(v))
		copy(cp, v)
		out[id] = cp
	}
	return out
}
