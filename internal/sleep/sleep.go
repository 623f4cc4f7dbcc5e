// Package sleep implements the C6 sleep / consolidation phases: dedup,
// connect, relate, themes, calibrate, promote, insights/gaps, and the
// lightweight consolidate job, run as an ordered cycle (spec.md §4.6).
package sleep

import (
	"context"
	"time"

	"github.com/nullgraph/brain/internal/graph"
	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/internal/vectorstore"
	"github.com/nullgraph/brain/pkg/types"
)

// DefaultPhaseOrder is the ordered phase list a full sleep cycle runs when
// the caller doesn't request specific phases (spec.md §4.6).
var DefaultPhaseOrder = []string{"connect", "relate", "themes", "calibrate", "decay"}

// OptionalPhases may be requested explicitly but are not part of the
// default order (spec.md §4.6: "plus optional dedup, promote, insights,
// gaps").
var OptionalPhases = map[string]bool{
	"dedup":    true,
	"promote":  true,
	"insights": true,
	"gaps":     true,
}

// Phase is one named, independently-runnable consolidation step. It returns
// a stats map so CLI wrappers and the status server can report
// per-phase results without a bespoke struct per phase (spec.md §4.6: "each
// returns a stats dict").
type Phase func(ctx context.Context, c *Cycle) (map[string]interface{}, error)

// registry maps phase name -> implementation. Decay is registered here too
// (it delegates to internal/health) so sleep_cycle(phases) can name it
// alongside the others, matching spec.md §6's unified surface.
var registry = map[string]Phase{
	"dedup":     phaseDedup,
	"connect":   phaseConnect,
	"relate":    phaseRelate,
	"themes":    phaseThemes,
	"calibrate": phaseCalibrate,
	"promote":   phasePromote,
	"insights":  phaseInsights,
	"gaps":      phaseGaps,
}

// DecayRunner abstracts internal/health's decay job so this package doesn't
// import internal/health directly (avoids a cycle: health depends on
// storage/types only, sleep could depend on health, but keeping the
// dependency injected keeps the two C6/C7 components independently
// testable, per spec.md §4.6/§4.7 being separate components).
type DecayRunner func(ctx context.Context, store storage.GraphStore) (map[string]interface{}, error)

// Config carries the tunables spec.md §4.6/§5 name explicitly rather than
// leaving them as magic literals.
type Config struct {
	// RelateThreshold is the cosine-similarity cutoff for RELATED_TO edges
	// (spec.md §4.6: "sim >= 0.75").
	RelateThreshold float64

	// RelateMaxCandidates caps the relate phase's O(n^2) TF-fallback
	// comparison set (spec.md §5: "max 500 candidates").
	RelateMaxCandidates int

	// MaxConsolidationEdges caps new CO_ACCESSED edges per consolidate()
	// call (spec.md §4.6, §9 Open Question #3).
	MaxConsolidationEdges int
}

// MaxConsolidationEdges is the fixed cap on new CO_ACCESSED edges per
// consolidate() call; DefaultConfig sets Config.MaxConsolidationEdges to it.
const MaxConsolidationEdges = 50

// DefaultConfig returns spec.md's literal defaults.
func DefaultConfig() Config {
	return Config{
		RelateThreshold:       0.75,
		RelateMaxCandidates:   500,
		MaxConsolidationEdges: MaxConsolidationEdges,
	}
}

// Cycle bundles everything a phase needs: the graph API for mutation, the
// raw store for batch SQL phases (calibrate, consolidate), an optional
// vector store for the relate phase's embeddings-first path, and tunables.
type Cycle struct {
	API    *graph.API
	Store  storage.GraphStore
	Vec    *vectorstore.Selector
	Config Config
	Decay  DecayRunner
	now    func() time.Time
}

// New builds a Cycle. vec may be nil (relate falls back to TF vectors).
// decay may be nil if the caller never requests the "decay" phase (e.g. a
// status server running connect/relate only).
func New(api *graph.API, store storage.GraphStore, vec *vectorstore.Selector, cfg Config, decay DecayRunner) *Cycle {
	return &Cycle{API: api, Store: store, Vec: vec, Config: cfg, Decay: decay, now: time.Now}
}

// Run executes the named phases in the order given (or DefaultPhaseOrder if
// phases is empty), collecting each phase's stats. A single phase's error
// is recorded in its own stats entry rather than aborting the remaining
// phases (spec.md §7 "cross-phase failures do not abort the cycle").
func (c *Cycle) Run(ctx context.Context, phases []string) (map[string]map[string]interface{}, error) {
	if len(phases) == 0 {
		phases = DefaultPhaseOrder
	}

	results := make(map[string]map[string]interface{}, len(phases))
	for _, name := range phases {
		if name == "decay" {
			results[name] = c.runDecay(ctx)
			continue
		}
		fn, ok := registry[name]
		if !ok {
			results[name] = map[string]interface{}{"error": "unknown phase: " + name}
			continue
		}
		stats, err := fn(ctx, c)
		if err != nil {
			results[name] = map[string]interface{}{"error": err.Error()}
			continue
		}
		results[name] = stats
	}
	return results, nil
}

func (c *Cycle) runDecay(ctx context.Context) map[string]interface{} {
	if c.Decay == nil {
		return map[string]interface{}{"error": "decay runner not configured"}
	}
	stats, err := c.Decay(ctx, c.Store)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	return stats
}

// allNodes fetches every node in the graph, paging through GetAllNodes.
// Sleep phases routinely need the whole graph in memory (dedup groups by
// title, relate builds a similarity matrix, themes groups by scope) so one
// shared pager keeps that pagination logic in one place.
func allNodes(ctx context.Context, store storage.GraphStore) ([]*types.Node, error) {
	var out []*types.Node
	page := 1
	for {
		res, err := store.GetAllNodes(ctx, storage.ListOptions{Page: page, Limit: 1000, SortBy: "created_at", SortOrder: "asc"})
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if !res.HasMore {
			break
		}
		page++
	}
	return out, nil
}

// allByLabel pages through GetByLabel the same way allNodes pages through
// GetAllNodes.
func allByLabel(ctx context.Context, store storage.GraphStore, label string) ([]*types.Node, error) {
	var out []*types.Node
	page := 1
	for {
		res, err := store.GetByLabel(ctx, label, storage.ListOptions{Page: page, Limit: 1000, SortBy: "created_at", SortOrder: "asc"})
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if !res.HasMore {
			break
		}
		page++
	}
	return out, nil
}
