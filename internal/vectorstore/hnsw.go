package vectorstore

import (
	"container/heap"
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// HNSWConfig controls the approximate nearest neighbor index's build/search
// tradeoffs.
type HNSWConfig struct {
	M               int // max connections per node per layer
	EfConstruction  int // candidate list size during insert
	EfSearch        int // candidate list size during query
	LevelMultiplier float64
}

// DefaultHNSWConfig returns the parameters used unless overridden.
func DefaultHNSWConfig() HNSWConfig {
	return HNSWConfig{
		M:               16,
		EfConstruction:  200,
		EfSearch:        100,
		LevelMultiplier: 1.0 / math.Log(16.0),
	}
}

type hnswNode struct {
	id        string
	vector    []float32
	level     int
	neighbors [][]string
	mu        sync.RWMutex
}

// HNSW is a persistent-on-disk (via Snapshot/Load), cosine-metric ANN index.
// It is the primary vectorstore.Store backend (spec §4.2).
type HNSW struct {
	config     HNSWConfig
	dimensions int
	mu         sync.RWMutex
	nodes      map[string]*hnswNode
	entryPoint string
	maxLevel   int
}

// NewHNSW creates an empty index for vectors of the given dimensionality.
func NewHNSW(dimensions int, config HNSWConfig) *HNSW {
	if config.M == 0 {
		config = DefaultHNSWConfig()
	}
	return &HNSW{
		config:     config,
		dimensions: dimensions,
		nodes:      make(map[string]*hnswNode),
	}
}

func (h *HNSW) Dimensions() int { return h.dimensions }

// Upsert inserts or replaces the vector for id.
func (h *HNSW) Upsert(ctx context.Context, id string, vec []float32) error {
	if len(vec) != h.dimensions {
		return ErrDimensionMismatch
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.nodes[id]; exists {
		h.removeLocked(id)
	}

	normalized := normalize(vec)
	level := h.randomLevel()

	node := &hnswNode{
		id:        id,
		vector:    normalized,
		level:     level,
		neighbors: make([][]string, level+1),
	}
	for i := range node.neighbors {
		node.neighbors[i] = make([]string, 0, h.config.M)
	}
	h.nodes[id] = node

	if h.entryPoint == "" {
		h.entryPoint = id
		h.maxLevel = level
		return nil
	}

	ep := h.entryPoint
	epLevel := h.nodes[ep].level

	for l := epLevel; l > level; l-- {
		ep = h.searchLayerSingle(normalized, ep, l)
	}

	for l := min(level, epLevel); l >= 0; l-- {
		candidates := h.searchLayer(normalized, ep, h.config.EfConstruction, l)
		neighbors := h.selectNeighbors(normalized, candidates, h.config.M)
		node.neighbors[l] = neighbors

		for _, neighborID := range neighbors {
			neighbor := h.nodes[neighborID]
			neighbor.mu.Lock()
			if len(neighbor.neighbors) > l {
				if len(neighbor.neighbors[l]) < h.config.M {
					neighbor.neighbors[l] = append(neighbor.neighbors[l], id)
				} else {
					all := append(neighbor.neighbors[l], id)
					neighbor.neighbors[l] = h.selectNeighbors(neighbor.vector, all, h.config.M)
				}
			}
			neighbor.mu.Unlock()
		}

		if len(candidates) > 0 {
			ep = candidates[0]
		}
	}

	if level > h.maxLevel {
		h.entryPoint = id
		h.maxLevel = level
	}

	return nil
}

// Delete removes id from the index.
func (h *HNSW) Delete(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
	return nil
}

func (h *HNSW) removeLocked(id string) {
	node, exists := h.nodes[id]
	if !exists {
		return
	}

	for l := 0; l <= node.level; l++ {
		for _, neighborID := range node.neighbors[l] {
			if neighbor, ok := h.nodes[neighborID]; ok {
				neighbor.mu.Lock()
				if len(neighbor.neighbors) > l {
					filtered := make([]string, 0, len(neighbor.neighbors[l]))
					for _, nid := range neighbor.neighbors[l] {
						if nid != id {
							filtered = append(filtered, nid)
						}
					}
					neighbor.neighbors[l] = filtered
				}
				neighbor.mu.Unlock()
			}
		}
	}

	delete(h.nodes, id)

	if h.entryPoint == id {
		h.entryPoint = ""
		h.maxLevel = 0
		for nid, n := range h.nodes {
			if n.level > h.maxLevel || h.entryPoint == "" {
				h.maxLevel = n.level
				h.entryPoint = nid
			}
		}
	}
}

// Count returns the number of indexed vectors.
func (h *HNSW) Count(ctx context.Context) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nodes), nil
}

// Get returns the stored vectors for the given IDs: the unit-normalized
// copies made at insert time, not the raw input.
func (h *HNSW) Get(ctx context.Context, ids []string) (map[string][]float32, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string][]float32, len(ids))
	for _, id := range ids {
		if n, ok := h.nodes[id]; ok {
			out[id] = n.vector
		}
	}
	return out, nil
}

// Query returns the k nearest neighbors to vec by cosine similarity.
func (h *HNSW) Query(ctx context.Context, vec []float32, k int) ([]Match, error) {
	if len(vec) != h.dimensions {
		return nil, ErrDimensionMismatch
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.nodes) == 0 {
		return nil, nil
	}

	normalized := normalize(vec)
	ep := h.entryPoint
	for l := h.maxLevel; l > 0; l-- {
		ep = h.searchLayerSingle(normalized, ep, l)
	}

	candidates := h.searchLayer(normalized, ep, h.config.EfSearch, 0)

	results := make([]Match, 0, k)
	for _, candidateID := range candidates {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		node := h.nodes[candidateID]
		sim := float64(dotProduct(normalized, node.vector))
		results = append(results, Match{ID: candidateID, Similarity: sim})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (h *HNSW) searchLayerSingle(query []float32, entryID string, level int) string {
	current := entryID
	currentDist := 1.0 - dotProduct(query, h.nodes[current].vector)

	for {
		changed := false
		node := h.nodes[current]
		node.mu.RLock()
		neighbors := node.neighbors[level]
		node.mu.RUnlock()

		for _, neighborID := range neighbors {
			neighbor := h.nodes[neighborID]
			dist := 1.0 - dotProduct(query, neighbor.vector)
			if dist < currentDist {
				current = neighborID
				currentDist = dist
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return current
}

func (h *HNSW) searchLayer(query []float32, entryID string, ef int, level int) []string {
	visited := map[string]bool{entryID: true}

	candidates := &distHeap{}
	heap.Init(candidates)
	results := &distHeap{}
	heap.Init(results)

	entryDist := 1.0 - dotProduct(query, h.nodes[entryID].vector)
	heap.Push(candidates, distItem{id: entryID, dist: entryDist})
	heap.Push(results, distItem{id: entryID, dist: entryDist, isMax: true})

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(distItem)

		if results.Len() >= ef {
			furthest := (*results)[0]
			if closest.dist > furthest.dist {
				break
			}
		}

		node := h.nodes[closest.id]
		node.mu.RLock()
		neighbors := node.neighbors[level]
		node.mu.RUnlock()

		for _, neighborID := range neighbors {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			neighbor := h.nodes[neighborID]
			dist := 1.0 - dotProduct(query, neighbor.vector)

			if results.Len() < ef || dist < (*results)[0].dist {
				heap.Push(candidates, distItem{id: neighborID, dist: dist})
				heap.Push(results, distItem{id: neighborID, dist: dist, isMax: true})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]string, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(distItem).id
	}
	return out
}

func (h *HNSW) selectNeighbors(query []float32, candidates []string, m int) []string {
	if len(candidates) <= m {
		return candidates
	}
	type scored struct {
		id   string
		dist float64
	}
	dists := make([]scored, len(candidates))
	for i, cid := range candidates {
		dists[i] = scored{id: cid, dist: 1.0 - dotProduct(query, h.nodes[cid].vector)}
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].dist < dists[j].dist })

	out := make([]string, m)
	for i := 0; i < m; i++ {
		out[i] = dists[i].id
	}
	return out
}

func (h *HNSW) randomLevel() int {
	r := rand.Float64()
	return int(-math.Log(r) * h.config.LevelMultiplier)
}

// distItem/distHeap implement a bounded max-heap (isMax) or min-heap used by
// searchLayer for the candidate/result frontiers.
type distItem struct {
	id    string
	dist  float64
	isMax bool
}

type distHeap []distItem

func (dh distHeap) Len() int { return len(dh) }
func (dh distHeap) Less(i, j int) bool {
	if dh[i].isMax {
		return dh[i].dist > dh[j].dist
	}
	return dh[i].dist < dh[j].dist
}
func (dh distHeap) Swap(i, j int) { dh[i], dh[j] = dh[j], dh[i] }
func (dh *distHeap) Push(x interface{}) {
	*dh = append(*dh, x.(distItem))
}
func (dh *distHeap) Pop() interface{} {
	old := *dh
	n := len(old)
	x := old[n-1]
	*dh = old[:n-1]
	return x
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
