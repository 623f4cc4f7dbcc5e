// Package postgres provides a PostgreSQL implementation of storage.GraphStore
// for multi-instance deployments (spec.md §9 Open Question 1 keeps SQLite as
// the authoritative single-file variant; this backend mirrors it exactly so
// a caller can switch StorageEngine without touching any other package).
package postgres

// Schema is the DDL applied on every open (idempotent via IF NOT EXISTS). It
// mirrors internal/storage/sqlite/schema.go's shape: nodes with projected
// reserved-key columns, a label index table, typed weighted edges, a meta
// table, and a tsvector-backed full-text index kept current by a trigger.
const Schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id            TEXT PRIMARY KEY,
	properties    JSONB NOT NULL DEFAULT '{}',
	title         TEXT NOT NULL DEFAULT '',
	author        TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL DEFAULT '',
	summary       TEXT NOT NULL DEFAULT '',
	strength      DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	access_count  INTEGER NOT NULL DEFAULT 0,
	last_accessed TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL,
	decay_rate    DOUBLE PRECISION NOT NULL DEFAULT 0.02,
	search_vector TSVECTOR
);

CREATE TABLE IF NOT EXISTS node_labels (
	node_id TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	label   TEXT NOT NULL,
	PRIMARY KEY (node_id, label)
);

CREATE TABLE IF NOT EXISTS edges (
	id         TEXT PRIMARY KEY,
	from_id    TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	to_id      TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	type       TEXT NOT NULL,
	weight     DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	properties JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE(from_id, to_id, type)
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_node_labels_label  ON node_labels(label);
CREATE INDEX IF NOT EXISTS idx_nodes_author        ON nodes(author);
CREATE INDEX IF NOT EXISTS idx_nodes_strength      ON nodes(strength);
CREATE INDEX IF NOT EXISTS idx_nodes_last_accessed ON nodes(last_accessed);
CREATE INDEX IF NOT EXISTS idx_nodes_created_at    ON nodes(created_at);
CREATE INDEX IF NOT EXISTS idx_edges_from_id       ON edges(from_id);
CREATE INDEX IF NOT EXISTS idx_edges_to_id         ON edges(to_id);
CREATE INDEX IF NOT EXISTS idx_edges_type          ON edges(type);
CREATE INDEX IF NOT EXISTS idx_nodes_search_vector ON nodes USING GIN(search_vector);

CREATE OR REPLACE FUNCTION nodes_search_vector_update() RETURNS TRIGGER AS $$
BEGIN
	NEW.search_vector :=
		setweight(to_tsvector('english', coalesce(NEW.title, '')), 'A') ||
		setweight(to_tsvector('english', coalesce(NEW.summary, '')), 'B') ||
		setweight(to_tsvector('english', coalesce(NEW.content, '')), 'C');
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS nodes_search_vector_trigger ON nodes;
CREATE TRIGGER nodes_search_vector_trigger
	BEFORE INSERT OR UPDATE OF title, content, summary ON nodes
	FOR EACH ROW EXECUTE FUNCTION nodes_search_vector_update();
`
