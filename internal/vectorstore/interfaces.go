// Package vectorstore implements the C2 vector store contract: a persistent
// mapping node_id -> vector<f32> with cosine similarity search, backed by an
// HNSW-style ANN index with a brute-force fallback.
package vectorstore

import "context"

// Match is one result of a similarity query.
type Match struct {
	ID         string
	Similarity float64
}

// Store is the contract every backend (hnsw, bruteforce) and the composed
// Selector implement (spec §4.2).
type Store interface {
	Upsert(ctx context.Context, id string, vec []float32) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, ids []string) (map[string][]float32, error)
	Query(ctx context.Context, vec []float32, k int) ([]Match, error)
	Dimensions() int
}
