// Package retrieval implements the C5 hybrid retrieval engine: keyword
// search (BM25-ranked full text), semantic search (ANN over embeddings),
// spreading activation over the graph, result fusion, and reinforcement
// (spec.md §4.5).
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/internal/storage/sqlite"
	"github.com/nullgraph/brain/internal/vectorstore"
	"github.com/nullgraph/brain/pkg/types"
)

// semanticSeedCount is the ANN top-k used to build the spreading-activation
// seed set (spec.md §4.5 step 1: "ANN top-5 -> seeds").
const semanticSeedCount = 5

// activationDecay is spreading activation's fixed per-hop damping factor
// (spec.md §4.5).
const activationDecay = 0.5

// keywordFTSWeight is the weight a normalized BM25 score contributes when
// fused with a semantic seed score (spec.md §4.5 step 1c).
const keywordFTSWeight = 0.5

// reinforceTopN is how many top survivors get reinforced per retrieve call
// (spec.md §4.5 step 4).
const reinforceTopN = 10

// Options carries retrieve()'s parameters (spec.md §4.5, §6).
type Options struct {
	Query           string
	QueryEmbedding  []float32
	Labels          []string
	Author          string
	TopK            int
	SpreadDepth     int
	Since           string
	SortBy          string // "score" (default) or "date"
	Reinforce       bool
	Compact         bool
}

// Normalize applies retrieve()'s documented defaults.
func (o *Options) Normalize() {
	if o.TopK <= 0 {
		o.TopK = 20
	}
	if o.SpreadDepth <= 0 {
		o.SpreadDepth = 2
	}
	if o.SortBy == "" {
		o.SortBy = "score"
	}
}

// Engine composes the storage backend, vector store, and graph traversal
// primitives into the retrieve() pipeline (spec.md §4.5).
type Engine struct {
	store  storage.GraphStore
	search storage.SearchProvider
	vec    *vectorstore.Selector
	expand frontierExpander
	now    func() time.Time
}

// New builds a retrieval Engine. store must also implement
// storage.SearchProvider and the sqlite frontier-expansion helpers (the
// sqlite.GraphStore concrete type satisfies both); vec may be nil, in which
// case semantic seeding is skipped entirely (keyword-only retrieval).
func New(store storage.GraphStore, vec *vectorstore.Selector) (*Engine, error) {
	search, ok := store.(storage.SearchProvider)
	if !ok {
		return nil, fmt.Errorf("retrieval: store does not implement SearchProvider")
	}
	fe, ok := store.(frontierExpander)
	if !ok {
		return nil, fmt.Errorf("retrieval: store does not implement batched frontier expansion")
	}
	return &Engine{store: store, search: search, vec: vec, expand: fe, now: time.Now}, nil
}

// scored is an internal id->score accumulator preserving §4.5's fusion math.
type scored map[string]float64

// Retrieve runs the full hybrid pipeline: seed set construction, filters,
// sort, reinforcement, and progressive-disclosure formatting (spec.md §4.5).
func (e *Engine) Retrieve(ctx context.Context, opts Options) ([]types.Result, []types.CompactResult, error) {
	opts.Normalize()

	sinceDT, err := ResolveSince(opts.Since, e.now())
	if err != nil {
		return nil, nil, err
	}

	results, err := e.buildSeedSet(ctx, opts, sinceDT)
	if err != nil {
		return nil, nil, err
	}

	if len(results) == 0 {
		return nil, nil, nil
	}

	if err := e.applyFilters(ctx, results, opts, sinceDT); err != nil {
		return nil, nil, err
	}

	ordered, err := e.sortResults(ctx, results, opts.SortBy)
	if err != nil {
		return nil, nil, err
	}

	if opts.Reinforce {
		for i := 0; i < reinforceTopN && i < len(ordered); i++ {
			if err := e.store.ReinforceNode(ctx, ordered[i].id, e.now()); err != nil {
				return nil, nil, err
			}
		}
	}

	if len(ordered) > opts.TopK {
		ordered = ordered[:opts.TopK]
	}

	if opts.Compact {
		compact, err := e.formatCompact(ctx, ordered)
		return nil, compact, err
	}
	full, err := e.formatFull(ctx, ordered)
	return full, nil, err
}

// buildSeedSet implements spec.md §4.5 step 1 in full: temporal-only,
// semantic (+ optional keyword fusion), and keyword-only branches.
func (e *Engine) buildSeedSet(ctx context.Context, opts Options, sinceDT time.Time) (scored, error) {
	results := scored{}

	switch {
	case opts.Query == "" && len(opts.QueryEmbedding) == 0:
		return e.temporalOnlySeeds(ctx, sinceDT)

	case len(opts.QueryEmbedding) > 0:
		if err := e.semanticSeeds(ctx, opts.QueryEmbedding, opts.SpreadDepth, results); err != nil {
			return nil, err
		}
		if opts.Query != "" {
			if err := e.fuseKeywordHits(ctx, opts.Query, results); err != nil {
				return nil, err
			}
		}
		return results, nil

	default:
		hits, err := e.keywordSearch(ctx, opts.Query)
		if err != nil {
			return nil, err
		}
		return hits, nil
	}
}

// temporalOnlySeeds handles "only since is given": every node with
// created_at >= since gets score 1.0 (spec.md §4.5 step 1, first bullet).
func (e *Engine) temporalOnlySeeds(ctx context.Context, sinceDT time.Time) (scored, error) {
	opts := storage.ListOptions{Limit: 1000, Page: 1}
	if !sinceDT.IsZero() {
		opts.CreatedAfter = sinceDT
	}
	results := scored{}
	page := 1
	for {
		opts.Page = page
		res, err := e.store.GetAllNodes(ctx, opts)
		if err != nil {
			return nil, err
		}
		for _, n := range res.Items {
			if sinceDT.IsZero() || !n.Memory.CreatedAt.Before(sinceDT) {
				results[n.ID] = 1.0
			}
		}
		if !res.HasMore {
			break
		}
		page++
	}
	return results, nil
}

// semanticSeeds runs ANN top-k then spreading activation, merging seed
// similarity (x2) with activation scores (spec.md §4.5 step 1, second
// bullet). A nil vector store or empty index degrades to no semantic seeds.
func (e *Engine) semanticSeeds(ctx context.Context, queryEmbedding []float32, spreadDepth int, results scored) error {
	if e.vec == nil {
		return nil
	}
	matches, err := e.vec.Query(ctx, queryEmbedding, semanticSeedCount)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}

	seeds := make([]string, 0, len(matches))
	for _, m := range matches {
		results[m.ID] = m.Similarity * 2
		seeds = append(seeds, m.ID)
	}

	activated, err := SpreadingActivation(ctx, e.expand, seeds, spreadDepth, activationDecay)
	if err != nil {
		return err
	}
	for id, act := range activated {
		results[id] += act
	}
	return nil
}

// fuseKeywordHits merges normalized BM25 hits into an existing semantic
// result set (spec.md §4.5 step 1c): nodes hit by both channels get an
// additive boost, keyword-only hits enter at a discounted score so exact
// matches are pulled in without outranking semantic seeds.
func (e *Engine) fuseKeywordHits(ctx context.Context, query string, results scored) error {
	hits, err := e.runFTS(ctx, query)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		return nil
	}
	maxScore := 0.0
	for _, h := range hits {
		if h.Score > maxScore {
			maxScore = h.Score
		}
	}
	if maxScore <= 0 {
		return nil
	}
	for _, h := range hits {
		normalized := h.Score / maxScore
		results[h.ID] += normalized * keywordFTSWeight
	}
	return nil
}

// keywordSearch implements the query-only branch: FTS5 BM25 with column
// weights (title 10, content 1, summary 5), already applied by
// SearchProvider.FullTextSearch, with its own LIKE fallback (spec.md §4.5
// step 1, last bullet).
func (e *Engine) keywordSearch(ctx context.Context, query string) (scored, error) {
	hits, err := e.runFTS(ctx, query)
	if err != nil {
		return nil, err
	}
	results := scored{}
	for _, h := range hits {
		results[h.ID] = h.Score
	}
	return results, nil
}

// runFTS sanitizes query per spec.md §4.5 before handing it to the storage
// backend; an empty sanitized query skips the FTS call entirely.
func (e *Engine) runFTS(ctx context.Context, query string) ([]storage.ScoredNode, error) {
	sanitized := SanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, nil
	}
	return e.search.FullTextSearch(ctx, sanitized, 50)
}

// scoredID pairs a node ID with its fused score, used once filtering and
// sorting need a stable, ordered view of the map.
type scoredID struct {
	id    string
	score float64
}

// applyFilters applies since/labels/author filters in batch (one SQL call
// per predicate, spec.md §4.5 step 2). Filters only run when results came
// from query/embedding branches — the temporal-only branch already applied
// `since` while building the seed set.
func (e *Engine) applyFilters(ctx context.Context, results scored, opts Options, sinceDT time.Time) error {
	isTemporalOnly := opts.Query == "" && len(opts.QueryEmbedding) == 0
	ids := idsOf(results)

	if !isTemporalOnly && !sinceDT.IsZero() {
		nodes, err := e.store.GetNodes(ctx, ids)
		if err != nil {
			return err
		}
		valid := map[string]bool{}
		for _, n := range nodes {
			if !n.Memory.CreatedAt.Before(sinceDT) {
				valid[n.ID] = true
			}
		}
		removeInvalid(results, valid)
		ids = idsOf(results)
	}

	if len(opts.Labels) > 0 && len(ids) > 0 {
		nodes, err := e.store.GetNodes(ctx, ids)
		if err != nil {
			return err
		}
		wanted := map[string]bool{}
		for _, l := range opts.Labels {
			wanted[l] = true
		}
		valid := map[string]bool{}
		for _, n := range nodes {
			for _, l := range n.Labels {
				if wanted[l] {
					valid[n.ID] = true
					break
				}
			}
		}
		removeInvalid(results, valid)
		ids = idsOf(results)
	}

	if opts.Author != "" && len(ids) > 0 {
		nodes, err := e.store.GetNodes(ctx, ids)
		if err != nil {
			return err
		}
		valid := map[string]bool{}
		for _, n := range nodes {
			if containsFold(n.Author(), opts.Author) {
				valid[n.ID] = true
			}
		}
		removeInvalid(results, valid)
	}

	return nil
}

func idsOf(results scored) []string {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	return ids
}

func removeInvalid(results scored, valid map[string]bool) {
	for id := range results {
		if !valid[id] {
			delete(results, id)
		}
	}
}

func containsFold(haystack, needle string) bool {
	if haystack == "" || needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// sortResults sorts by score desc (default) or created_at desc (stable),
// spec.md §4.5 step 3.
func (e *Engine) sortResults(ctx context.Context, results scored, sortBy string) ([]scoredID, error) {
	ordered := make([]scoredID, 0, len(results))
	for id, score := range results {
		ordered = append(ordered, scoredID{id: id, score: score})
	}

	if sortBy == "date" {
		ids := make([]string, len(ordered))
		for i, o := range ordered {
			ids[i] = o.id
		}
		nodes, err := e.store.GetNodes(ctx, ids)
		if err != nil {
			return nil, err
		}
		createdAt := make(map[string]time.Time, len(nodes))
		for _, n := range nodes {
			createdAt[n.ID] = n.Memory.CreatedAt
		}
		sort.SliceStable(ordered, func(i, j int) bool {
			return createdAt[ordered[i].id].After(createdAt[ordered[j].id])
		})
		return ordered, nil
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].score > ordered[j].score
	})
	return ordered, nil
}

// formatCompact builds the ~50-token compact rows (spec.md §4.5 step 5).
func (e *Engine) formatCompact(ctx context.Context, ordered []scoredID) ([]types.CompactResult, error) {
	ids := make([]string, len(ordered))
	for i, o := range ordered {
		ids[i] = o.id
	}
	nodes, err := e.store.GetNodes(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*types.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	out := make([]types.CompactResult, 0, len(ordered))
	for _, o := range ordered {
		n, ok := byID[o.id]
		if !ok {
			continue
		}
		date := ""
		if !n.Memory.CreatedAt.IsZero() {
			date = n.Memory.CreatedAt.Format("2006-01-02")
		}
		out = append(out, types.CompactResult{
			ID:    n.ID,
			Score: o.score,
			Title: n.Title(),
			Type:  types.CompactType(n.Labels),
			Date:  date,
		})
	}
	return out, nil
}

// formatFull builds the full ~500-token rows including semantic connections
// (spec.md §4.5 step 5).
func (e *Engine) formatFull(ctx context.Context, ordered []scoredID) ([]types.Result, error) {
	out := make([]types.Result, 0, len(ordered))
	for _, o := range ordered {
		n, err := e.store.GetNode(ctx, o.id)
		if err != nil {
			if err == storage.ErrNotFound {
				continue
			}
			return nil, err
		}
		conns, err := e.semanticConnections(ctx, o.id)
		if err != nil {
			return nil, err
		}
		out = append(out, types.Result{
			ID:          n.ID,
			Score:       o.score,
			Labels:      n.Labels,
			Properties:  n.Properties,
			Memory:      n.Memory,
			Connections: conns,
		})
	}
	return out, nil
}

// semanticConnections returns up to 10 outgoing + incoming edges of
// semantic connection types (spec.md §4.5 step 5).
func (e *Engine) semanticConnections(ctx context.Context, id string) ([]types.Connection, error) {
	var conns []types.Connection

	out, err := e.store.GetNeighbors(ctx, id, "")
	if err != nil {
		return nil, err
	}
	for _, nb := range out {
		if types.IsConnectionType(nb.Edge.Type) {
			conns = append(conns, types.Connection{
				NodeID: nb.Edge.To, EdgeType: nb.Edge.Type, Weight: nb.Edge.Weight, Direction: "outgoing",
			})
		}
	}

	in, err := e.store.GetPredecessors(ctx, id, "")
	if err != nil {
		return nil, err
	}
	for _, nb := range in {
		if types.IsConnectionType(nb.Edge.Type) {
			conns = append(conns, types.Connection{
				NodeID: nb.Edge.From, EdgeType: nb.Edge.Type, Weight: nb.Edge.Weight, Direction: "incoming",
			})
		}
	}

	if len(conns) > 10 {
		conns = conns[:10]
	}
	return conns, nil
}

// ExpandNodes is progressive disclosure's layer 2: full details (including
// semantic connections) for a caller-chosen set of IDs, typically gathered
// from a prior compact retrieve() call (spec.md §4.5 "Progressive
// disclosure").
func (e *Engine) ExpandNodes(ctx context.Context, ids []string) ([]types.Result, error) {
	out := make([]types.Result, 0, len(ids))
	for _, id := range ids {
		n, err := e.store.GetNode(ctx, id)
		if err != nil {
			if err == storage.ErrNotFound {
				continue
			}
			return nil, err
		}
		conns, err := e.semanticConnections(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, types.Result{
			ID:          n.ID,
			Score:       0,
			Labels:      n.Labels,
			Properties:  n.Properties,
			Memory:      n.Memory,
			Connections: conns,
		})
	}
	return out, nil
}

// SpreadingActivation exposes the engine's batched frontier-expansion
// backend directly, for callers (spec.md §6 "spreading_activation") that
// want raw activation scores without the rest of the retrieve() pipeline.
func (e *Engine) SpreadingActivation(ctx context.Context, seeds []string, maxDepth int, decay float64) (map[string]float64, error) {
	return SpreadingActivation(ctx, e.expand, seeds, maxDepth, decay)
}

// ensure sqlite.GraphStore statically satisfies the interfaces this package
// asserts on storage.GraphStore at construction time.
var (
	_ storage.SearchProvider = (*sqlite.GraphStore)(nil)
	_ frontierExpander       = (*sqlite.GraphStore)(nil)
)
