package sqlite

// Schema is the embedded DDL applied on every open (idempotent via
// IF NOT EXISTS). It implements the C1 storage contract (spec §4.1): nodes
// with projected reserved-key columns, a separate label index, typed
// weighted edges, a small meta table, and an FTS5 index over
// (title, content, summary) kept in sync by triggers.
const Schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id            TEXT PRIMARY KEY,
	properties    TEXT NOT NULL DEFAULT '{}',
	title         TEXT NOT NULL DEFAULT '',
	author        TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL DEFAULT '',
	summary       TEXT NOT NULL DEFAULT '',
	strength      REAL NOT NULL DEFAULT 1.0,
	access_count  INTEGER NOT NULL DEFAULT 0,
	last_accessed TIMESTAMP,
	created_at    TIMESTAMP NOT NULL,
	decay_rate    REAL NOT NULL DEFAULT 0.02
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
	weight     REAL NOT NULL DEFAULT 0.5,
	properties TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL,
	UNIQUE(from_id, to_id, type)
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_node_labels_label   ON node_labels(label);
CREATE INDEX IF NOT EXISTS idx_nodes_author         ON nodes(author);
CREATE INDEX IF NOT EXISTS idx_nodes_strength       ON nodes(strength);
CREATE INDEX IF NOT EXISTS idx_nodes_last_accessed  ON nodes(last_accessed);
CREATE INDEX IF NOT EXISTS idx_nodes_created_at     ON nodes(created_at);
CREATE INDEX IF NOT EXISTS idx_edges_from_id        ON edges(from_id);
CREATE INDEX IF NOT EXISTS idx_edges_to_id          ON edges(to_id);
CREATE INDEX IF NOT EXISTS idx_edges_type           ON edges(type);

CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
	title, content, summary,
	content='nodes', content_rowid='rowid',
	tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS nodes_fts_ai AFTER INSERT ON nodes BEGIN
	INSERT INTO nodes_fts(rowid, title, content, summary)
	VALUES (new.rowid, new.title, new.content, new.summary);
END;

CREATE TRIGGER IF NOT EXISTS nodes_fts_ad AFTER DELETE ON nodes BEGIN
	INSERT INTO nodes_fts(nodes_fts, rowid, title, content, summary)
	VALUES ('delete', old.rowid, old.title, old.content, old.summary);
END;

CREATE TRIGGER IF NOT EXISTS nodes_fts_au AFTER UPDATE ON nodes BEGIN
	INSERT INTO nodes_fts(nodes_fts, rowid, title, content, summary)
	VALUES ('delete', old.rowid, old.title, old.content, old.summary);
	INSERT INTO nodes_fts(rowid, title, content, summary)
	VALUES (new.rowid, new.title, new.content, new.summary);
END;
`
