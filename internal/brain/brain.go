// Package brain is the external Query API (spec.md §6): the single facade
// CLI wrappers and other external collaborators use to open a memory graph,
// mutate it, retrieve from it, run its sleep/decay jobs, and close it. It
// wires together every constituent component (storage, vector store,
// embedding bridge, graph API, retrieval engine, sleep cycle) so a caller
// never has to import those packages directly.
package brain

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nullgraph/brain/internal/config"
	"github.com/nullgraph/brain/internal/embedding"
	"github.com/nullgraph/brain/internal/graph"
	"github.com/nullgraph/brain/internal/health"
	"github.com/nullgraph/brain/internal/llm"
	"github.com/nullgraph/brain/internal/retrieval"
	"github.com/nullgraph/brain/internal/sleep"
	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/internal/storage/postgres"
	"github.com/nullgraph/brain/internal/storage/sqlite"
	"github.com/nullgraph/brain/internal/vectorstore"
)

// DefaultDimensions is the dimensionality Open gives the vector store,
// whether or not an embedder is configured.
const DefaultDimensions = 768

// dbFileName is the on-disk database file name within cfg.Storage.DataPath
// for the sqlite backend.
const dbFileName = "brain.db"

// Brain bundles every component the Query API needs. It is not safe to share
// across processes (spec.md §5 single-writer-per-instance), but is safe for
// concurrent use within one process: all mutation ultimately serializes
// through the underlying storage.GraphStore.
type Brain struct {
	store     storage.GraphStore
	sqliteDB  *sqlite.GraphStore // non-nil only on the sqlite backend, for Save()'s WAL checkpoint
	vec       *vectorstore.Selector
	embed     *embedding.Bridge
	graphAPI  *graph.API
	retrieval *retrieval.Engine
	sleep     *sleep.Cycle
	dbPath    string
}

// Open constructs a Brain from a fully-loaded Config: it opens the
// configured storage backend, builds an embedder (if EMBEDDING_PROVIDER
// names one) wrapped in a circuit breaker, selects a vector store backend
// guarded against the embedder's model identity, and wires the graph,
// retrieval, and sleep components on top.
func Open(ctx context.Context, cfg *config.Config) (*Brain, error) {
	store, sqliteDB, dbPath, err := openStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("brain: open storage: %w", err)
	}

	embedGen, err := llm.NewEmbeddingGenerator(cfg.LLM)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("brain: embedding generator: %w", err)
	}
	embedBridge := embedding.New(embedding.NewCircuitBreakerEmbedder(embedGen))

	dims := DefaultDimensions
	meta, ok := store.(storage.MetaStore)
	if !ok {
		store.Close()
		return nil, fmt.Errorf("brain: storage backend does not implement MetaStore")
	}
	vec, err := vectorstore.NewSelector(ctx, meta, embedBridge.ModelName(), dims)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("brain: vector store: %w", err)
	}

	api := graph.New(store)

	retrievalEngine, err := retrieval.New(store, vec)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("brain: retrieval engine: %w", err)
	}

	sleepCfg := sleep.Config{
		RelateThreshold:       cfg.Sleep.RelateThreshold,
		RelateMaxCandidates:   cfg.Sleep.RelateMaxCandidates,
		MaxConsolidationEdges: cfg.Sleep.MaxConsolidationEdges,
	}
	cycle := sleep.New(api, store, vec, sleepCfg, health.Decay)

	return &Brain{
		store:     store,
		sqliteDB:  sqliteDB,
		vec:       vec,
		embed:     embedBridge,
		graphAPI:  api,
		retrieval: retrievalEngine,
		sleep:     cycle,
		dbPath:    dbPath,
	}, nil
}

// openStore builds the configured storage.GraphStore backend. The sqlite
// result is also returned concretely (when applicable) so Save() can issue
// a WAL checkpoint against it.
func openStore(cfg config.StorageConfig) (storage.GraphStore, *sqlite.GraphStore, string, error) {
	switch cfg.StorageEngine {
	case "", "sqlite":
		dbPath := filepath.Join(cfg.DataPath, dbFileName)
		store, err := sqlite.NewGraphStore(dbPath)
		if err != nil {
			return nil, nil, "", err
		}
		return store, store, dbPath, nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, nil, "", fmt.Errorf("BRAIN_POSTGRES_DSN is required for storage engine %q", cfg.StorageEngine)
		}
		store, err := postgres.NewGraphStore(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, "", err
		}
		return store, nil, cfg.PostgresDSN, nil
	default:
		return nil, nil, "", fmt.Errorf("unknown storage engine %q", cfg.StorageEngine)
	}
}

// Load confirms the backend is reachable and the embedding model identity is
// consistent with what was previously recorded (NewSelector already enforces
// the latter at construction time, so Load is a cheap liveness probe on top
// of an already-open Brain — spec.md §6 "load()").
func (b *Brain) Load(ctx context.Context) error {
	_, err := b.store.Stats(ctx)
	return err
}

// Save flushes the sqlite backend's WAL into the main database file so the
// on-disk brain.db reflects every committed write (spec.md §6 "save()").
// Postgres commits durably per-statement, so Save is a no-op there.
func (b *Brain) Save(ctx context.Context) error {
	if b.sqliteDB == nil {
		return nil
	}
	_, err := b.sqliteDB.DB().ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`)
	return err
}

// Close releases the storage backend's resources (spec.md §6 "close()").
func (b *Brain) Close() error {
	return b.store.Close()
}

// DBPath returns the path (or DSN) Save()/backup tooling act on.
func (b *Brain) DBPath() string { return b.dbPath }

// Store exposes the underlying storage.GraphStore for callers (ingestion
// packages) that need the raw interface rather than the Query API's
// higher-level wrappers.
func (b *Brain) Store() storage.GraphStore { return b.store }

// Embed exposes the embedding bridge for ingestion packages that compute a
// node's vector before calling AddMemory.
func (b *Brain) Embed() *embedding.Bridge { return b.embed }

// Vec exposes the vector store selector for callers that need direct
// Upsert/Query access (e.g. the embeddings CLI's backfill/migrate paths).
func (b *Brain) Vec() *vectorstore.Selector { return b.vec }

// GraphAPI exposes the graph facade for ingestion packages that build nodes
// and edges directly (git commit/diff ingestion, AST ingestion) rather than
// through add_memory's markdown-oriented inference pipeline.
func (b *Brain) GraphAPI() *graph.API { return b.graphAPI }
