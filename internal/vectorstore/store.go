package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nullgraph/brain/internal/storage"
)

const (
	metaKeyModelName = "embedding_model_name"
	metaKeyModelDims = "embedding_model_dims"
)

// Selector picks between a primary ANN backend and a brute-force fallback,
// and enforces that every vector in the store was produced by the same
// embedding model (spec §4.2): once a model name/dimension pair is recorded
// in meta, a mismatched configuration makes NewSelector return an error and
// no Selector is built, rather than silently corrupt the index with
// incompatible geometry.
type Selector struct {
	active     Store
	usingFallback bool
	meta       storage.MetaStore
	modelName  string
	dimensions int
}

// NewSelector builds a primary HNSW index and guards it against the model
// identity recorded in meta. If the primary index fails to construct (it
// can't today, but backends that load from disk can), it falls back to an
// in-memory brute-force store so the rest of the system keeps working at
// reduced query performance rather than refusing to start.
func NewSelector(ctx context.Context, meta storage.MetaStore, modelName string, dimensions int) (*Selector, error) {
	sel := &Selector{
		meta:       meta,
		modelName:  modelName,
		dimensions: dimensions,
	}

	if err := sel.guardModelIdentity(ctx); err != nil {
		return nil, err
	}

	primary, err := newPrimary(dimensions)
	if err != nil {
		sel.active = NewBruteForce(dimensions)
		sel.usingFallback = true
		return sel, nil
	}
	sel.active = primary
	return sel, nil
}

// newPrimary constructs the default ANN backend. Broken out so a future
// on-disk HNSW loader has a single seam to return an error from.
func newPrimary(dimensions int) (Store, error) {
	return NewHNSW(dimensions, DefaultHNSWConfig()), nil
}

// guardModelIdentity compares the configured model/dimension pair against
// whatever is recorded in meta. An empty meta record means this is the first
// time the store has been opened against this embedding model, so it seeds
// the record instead of rejecting it.
func (s *Selector) guardModelIdentity(ctx context.Context) error {
	rawName, nameOK, err := s.meta.GetMeta(ctx, metaKeyModelName)
	if err != nil {
		return fmt.Errorf("vectorstore: reading model identity: %w", err)
	}
	rawDims, dimsOK, err := s.meta.GetMeta(ctx, metaKeyModelDims)
	if err != nil {
		return fmt.Errorf("vectorstore: reading model dims: %w", err)
	}

	if !nameOK || !dimsOK {
		if err := s.meta.SetMeta(ctx, metaKeyModelName, s.modelName); err != nil {
			return err
		}
		var dimsJSON []byte
		dimsJSON, err = json.Marshal(s.dimensions)
		if err != nil {
			return err
		}
		return s.meta.SetMeta(ctx, metaKeyModelDims, string(dimsJSON))
	}

	var recordedDims int
	if err := json.Unmarshal([]byte(rawDims), &recordedDims); err != nil {
		return fmt.Errorf("vectorstore: corrupt recorded dims: %w", err)
	}

	if rawName != s.modelName || recordedDims != s.dimensions {
		return fmt.Errorf("%w: store was built with %q (%d dims), configured model is %q (%d dims)",
			ErrModelMismatch, rawName, recordedDims, s.modelName, s.dimensions)
	}
	return nil
}

// UsingFallback reports whether Selector is currently serving queries from
// the brute-force backend rather than the primary ANN index.
func (s *Selector) UsingFallback() bool { return s.usingFallback }

// PromoteFromFallback rebuilds a fresh primary index from the fallback's
// contents and switches to it, preserving every vector's ID. Used once the
// condition that forced the fallback (e.g. a corrupt on-disk index) has been
// resolved by an operator.
func (s *Selector) PromoteFromFallback(ctx context.Context) error {
	if !s.usingFallback {
		return nil
	}
	bf, ok := s.active.(*BruteForce)
	if !ok {
		return fmt.Errorf("vectorstore: not currently on a brute-force fallback")
	}

	primary, err := newPrimary(s.dimensions)
	if err != nil {
		return err
	}
	for id, vec := range bf.Snapshot() {
		if err := primary.Upsert(ctx, id, vec); err != nil {
			return fmt.Errorf("vectorstore: migrating %s to primary index: %w", id, err)
		}
	}

	s.active = primary
	s.usingFallback = false
	return nil
}

func (s *Selector) Dimensions() int { return s.dimensions }

func (s *Selector) Upsert(ctx context.Context, id string, vec []float32) error {
	return s.active.Upsert(ctx, id, vec)
}

func (s *Selector) Delete(ctx context.Context, id string) error {
	return s.active.Delete(ctx, id)
}

func (s *Selector) Count(ctx context.Context) (int, error) {
	return s.active.Count(ctx)
}

func (s *Selector) Get(ctx context.Context, ids []string) (map[string][]float32, error) {
	return s.active.Get(ctx, ids)
}

// Query returns the active backend's nearest neighbors. A model-identity
// mismatch is caught at construction time, so a caller with the same
// Selector instance never needs to special-case this error here; if vec's
// dimensionality doesn't match the configured model, Query returns an empty
// seed set rather than an error, per spec §4.2.
func (s *Selector) Query(ctx context.Context, vec []float32, k int) ([]Match, error) {
	if len(vec) != s.dimensions {
		return nil, nil
	}
	return s.active.Query(ctx, vec, k)
}

var _ Store = (*Selector)(nil)
