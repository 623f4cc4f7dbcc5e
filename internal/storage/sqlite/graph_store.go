package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// GraphStore implements storage.GraphStore using SQLite (modernc.org/sqlite,
// pure Go, no cgo).
type GraphStore struct {
	db *sql.DB
}

// NewGraphStore opens a SQLite graph store with WAL self-healing. If the
// initial open fails due to stale WAL files (left behind by a crashed
// process), it verifies no other process holds them and retries once after
// removing the stale -shm/-wal files.
func NewGraphStore(dsn string) (*GraphStore, error) {
	store, err := openGraphStore(dsn)
	if err == nil {
		return store, nil
	}

	if !isRecoverableWALError(err) {
		return nil, err
	}

	dbPath := dbPathFromDSN(dsn)
	if dbPath == "" || dbPath == ":memory:" {
		return nil, err
	}

	if !isWALStale(dbPath) {
		return nil, err
	}

	removeStaleWAL(dbPath)

	store, retryErr := openGraphStore(dsn)
	if retryErr != nil {
		return nil, fmt.Errorf("failed after WAL recovery: %w (original: %v)", retryErr, err)
	}

	log.Printf("sqlite: recovered from stale WAL files for %s", dbPath)
	return store, nil
}

func openGraphStore(dsn string) (*GraphStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serializes writes and keeps the single-writer/multi-reader model
	// honest without an explicit process-wide lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &GraphStore{db: db}, nil
}

// DB exposes the underlying connection for packages that need direct access
// (internal/brain uses it to run a WAL checkpoint).
func (s *GraphStore) DB() *sql.DB { return s.db }

func (s *GraphStore) Close() error { return s.db.Close() }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *GraphStore) conn() execer { return s.db }

// WithTx runs fn against a transaction-scoped GraphStore. The returned
// GraphStore's methods issue their statements against the *sql.Tx instead of
// the pooled *sql.DB, so a panic or error rolls everything back.
func (s *GraphStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.GraphStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	txStore := &txGraphStore{GraphStore: s, tx: tx}
	if err := fn(ctx, txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// txGraphStore routes reads/writes through an open transaction while reusing
// every GraphStore method (they all go through conn()).
type txGraphStore struct {
	*GraphStore
	tx *sql.Tx
}

func (t *txGraphStore) conn() execer { return t.tx }

func (t *txGraphStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.GraphStore) error) error {
	return fn(ctx, t)
}

func (t *txGraphStore) Close() error { return nil }

// UpsertNode implements storage.GraphStore.
func (s *GraphStore) UpsertNode(ctx context.Context, node *types.Node) error {
	return upsertNode(ctx, s.conn(), node)
}

func upsertNode(ctx context.Context, c execer, node *types.Node) error {
	if node == nil || node.ID == "" {
		return storage.ErrInvalidInput
	}

	existing, err := getNode(ctx, c, node.ID)
	if err != nil && err != storage.ErrNotFound {
		return err
	}

	now := time.Now()
	if existing != nil {
		merged := append([]string(nil), existing.Labels...)
		node.AddLabels(merged...)
		if node.Memory.CreatedAt.IsZero() {
			node.Memory.CreatedAt = existing.Memory.CreatedAt
		}
	} else {
		if node.Memory == (types.Memory{}) {
			node.Memory = types.NewMemory(now, types.DecayRateForLabels(node.Labels))
		}
		if node.Memory.CreatedAt.IsZero() {
			node.Memory.CreatedAt = now
		}
	}

	propsJSON, err := json.Marshal(node.Properties)
	if err != nil {
		return fmt.Errorf("sqlite: marshal properties: %w", err)
	}

	_, err = c.ExecContext(ctx, `
		INSERT INTO nodes (id, properties, title, author, content, summary,
			strength, access_count, last_accessed, created_at, decay_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			properties = excluded.properties,
			title = excluded.title,
			author = excluded.author,
			content = excluded.content,
			summary = excluded.summary,
			strength = excluded.strength,
			access_count = excluded.access_count,
			last_accessed = excluded.last_accessed,
			decay_rate = excluded.decay_rate
	`,
		node.ID, string(propsJSON), node.Title(), node.Author(), node.Content(), node.Summary(),
		node.Memory.Strength, node.Memory.AccessCount, nullableTime(&node.Memory.LastAccessed),
		node.Memory.CreatedAt, node.Memory.DecayRate,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert node: %w", err)
	}

	for _, label := range node.Labels {
		if _, err := c.ExecContext(ctx,
			`INSERT OR IGNORE INTO node_labels (node_id, label) VALUES (?, ?)`,
			node.ID, label,
		); err != nil {
			return fmt.Errorf("sqlite: insert label: %w", err)
		}
	}

	return nil
}

// GetNode implements storage.GraphStore.
func (s *GraphStore) GetNode(ctx context.Context, id string) (*types.Node, error) {
	return getNode(ctx, s.conn(), id)
}

func getNode(ctx context.Context, c execer, id string) (*types.Node, error) {
	var propsJSON string
	var strength, decayRate float64
	var accessCount int
	var lastAccessed sql.NullTime
	var createdAt time.Time

	err := c.QueryRowContext(ctx, `
		SELECT properties, strength, access_count, last_accessed, created_at, decay_rate
		FROM nodes WHERE id = ?
	`, id).Scan(&propsJSON, &strength, &accessCount, &lastAccessed, &createdAt, &decayRate)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get node: %w", err)
	}

	node := &types.Node{
		ID: id,
		Memory: types.Memory{
			Strength:    strength,
			AccessCount: accessCount,
			CreatedAt:   createdAt,
			DecayRate:   decayRate,
		},
	}
	if lastAccessed.Valid {
		node.Memory.LastAccessed = lastAccessed.Time
	}
	if err := json.Unmarshal([]byte(propsJSON), &node.Properties); err != nil {
		return nil, fmt.Errorf("sqlite: unmarshal properties: %w", err)
	}

	labels, err := getLabels(ctx, c, id)
	if err != nil {
		return nil, err
	}
	node.Labels = labels
	return node, nil
}

func getLabels(ctx context.Context, c execer, id string) ([]string, error) {
	rows, err := c.QueryContext(ctx, `SELECT label FROM node_labels WHERE node_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// GetNodes implements storage.GraphStore.
func (s *GraphStore) GetNodes(ctx context.Context, ids []string) ([]*types.Node, error) {
	nodes := make([]*types.Node, 0, len(ids))
	for _, id := range ids {
		n, err := getNode(ctx, s.conn(), id)
		if err == storage.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// GetAllNodes implements storage.GraphStore.
func (s *GraphStore) GetAllNodes(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[*types.Node], error) {
	opts.Normalize()
	return listNodes(ctx, s.conn(), "SELECT id FROM nodes", nil, opts)
}

// GetByLabel implements storage.GraphStore.
func (s *GraphStore) GetByLabel(ctx context.Context, label string, opts storage.ListOptions) (*storage.PaginatedResult[*types.Node], error) {
	opts.Normalize()
	query := `SELECT DISTINCT n.id FROM nodes n JOIN node_labels l ON l.node_id = n.id WHERE l.label = ?`
	return listNodes(ctx, s.conn(), query, []interface{}{label}, opts)
}

func listNodes(ctx context.Context, c execer, baseQuery string, args []interface{}, opts storage.ListOptions) (*storage.PaginatedResult[*types.Node], error) {
	orderCol := map[string]string{
		"created_at":    "created_at",
		"last_accessed": "last_accessed",
		"strength":      "strength",
		"id":            "id",
	}[opts.SortBy]

	q := fmt.Sprintf("%s ORDER BY %s %s LIMIT ? OFFSET ?", baseQuery, orderCol, strings.ToUpper(opts.SortOrder))
	qargs := append(append([]interface{}{}, args...), opts.Limit, opts.Offset())

	rows, err := c.QueryContext(ctx, q, qargs...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list nodes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	nodes := make([]*types.Node, 0, len(ids))
	for _, id := range ids {
		n, err := getNode(ctx, c, id)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return &storage.PaginatedResult[*types.Node]{
		Items:    nodes,
		Page:     opts.Page,
		PageSize: opts.Limit,
		HasMore:  len(nodes) == opts.Limit,
	}, nil
}

// RemoveNode implements storage.GraphStore. FK cascades remove labels and
// incident edges (spec §4.1 "Cascading delete").
func (s *GraphStore) RemoveNode(ctx context.Context, id string) error {
	res, err := s.conn().ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: remove node: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ReinforceNode implements storage.GraphStore's retrieve() reinforcement
// step: access_count += 1, last_accessed := now, strength := min(1, s*1.05).
func (s *GraphStore) ReinforceNode(ctx context.Context, id string, now time.Time) error {
	_, err := s.conn().ExecContext(ctx, `
		UPDATE nodes SET
			access_count = access_count + 1,
			last_accessed = ?,
			strength = MIN(1.0, strength * 1.05)
		WHERE id = ?
	`, now, id)
	if err != nil {
		return fmt.Errorf("sqlite: reinforce node: %w", err)
	}
	return nil
}

// UpdateMemory implements storage.GraphStore.
func (s *GraphStore) UpdateMemory(ctx context.Context, id string, memory types.Memory) error {
	_, err := s.conn().ExecContext(ctx, `
		UPDATE nodes SET strength = ?, access_count = ?, last_accessed = ?, decay_rate = ?
		WHERE id = ?
	`, memory.Strength, memory.AccessCount, nullableTime(&memory.LastAccessed), memory.DecayRate, id)
	if err != nil {
		return fmt.Errorf("sqlite: update memory: %w", err)
	}
	return nil
}

// AddLabels implements storage.GraphStore.
func (s *GraphStore) AddLabels(ctx context.Context, id string, labels ...string) error {
	for _, l := range labels {
		if _, err := s.conn().ExecContext(ctx,
			`INSERT OR IGNORE INTO node_labels (node_id, label) VALUES (?, ?)`, id, l,
		); err != nil {
			return fmt.Errorf("sqlite: add label: %w", err)
		}
	}
	return nil
}

// RemoveLabel implements storage.GraphStore.
func (s *GraphStore) RemoveLabel(ctx context.Context, id string, label string) error {
	_, err := s.conn().ExecContext(ctx,
		`DELETE FROM node_labels WHERE node_id = ? AND label = ?`, id, label)
	if err != nil {
		return fmt.Errorf("sqlite: remove label: %w", err)
	}
	return nil
}

// UpsertEdge implements storage.GraphStore. Endpoint-missing FK violations
// are swallowed (spec §4.1 "Failure"); duplicate (from,to,type) resolves to
// weight := max(old,new).
func (s *GraphStore) UpsertEdge(ctx context.Context, edge *types.Edge) error {
	if edge == nil || edge.From == "" || edge.To == "" || edge.Type == "" {
		return storage.ErrInvalidInput
	}
	if edge.ID == "" {
		edge.ID = fmt.Sprintf("%s-%s-%s", edge.From, edge.To, edge.Type)
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now()
	}
	propsJSON, err := json.Marshal(edge.Properties)
	if err != nil {
		return fmt.Errorf("sqlite: marshal edge properties: %w", err)
	}

	_, err = s.conn().ExecContext(ctx, `
		INSERT INTO edges (id, from_id, to_id, type, weight, properties, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(from_id, to_id, type) DO UPDATE SET
			weight = MAX(edges.weight, excluded.weight),
			properties = excluded.properties
	`, edge.ID, edge.From, edge.To, edge.Type, edge.Weight, string(propsJSON), edge.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint") {
			return nil // missing endpoint: swallowed per spec §4.1
		}
		return fmt.Errorf("sqlite: upsert edge: %w", err)
	}
	return nil
}

// SetEdgeWeight overwrites an edge's weight unconditionally, unlike
// UpsertEdge's max-merge (internal/sleep's calibrate phase needs to lower a
// weight, not just raise it).
func (s *GraphStore) SetEdgeWeight(ctx context.Context, src, tgt, edgeType string, weight float64) error {
	res, err := s.conn().ExecContext(ctx, `
		UPDATE edges SET weight = ? WHERE from_id = ? AND to_id = ? AND type = ?
	`, weight, src, tgt, edgeType)
	if err != nil {
		return fmt.Errorf("sqlite: set edge weight: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: set edge weight: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanEdge(rows interface {
	Scan(dest ...interface{}) error
}) (*types.Edge, error) {
	var e types.Edge
	var propsJSON string
	if err := rows.Scan(&e.ID, &e.From, &e.To, &e.Type, &e.Weight, &propsJSON, &e.CreatedAt); err != nil {
		return nil, err
	}
	if propsJSON != "" {
		if err := json.Unmarshal([]byte(propsJSON), &e.Properties); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// GetEdge implements storage.GraphStore.
func (s *GraphStore) GetEdge(ctx context.Context, src, tgt, edgeType string) (*types.Edge, error) {
	var row *sql.Row
	if edgeType != "" {
		row = s.conn().QueryRowContext(ctx, `
			SELECT id, from_id, to_id, type, weight, properties, created_at
			FROM edges WHERE from_id = ? AND to_id = ? AND type = ?
		`, src, tgt, edgeType)
	} else {
		row = s.conn().QueryRowContext(ctx, `
			SELECT id, from_id, to_id, type, weight, properties, created_at
			FROM edges WHERE from_id = ? AND to_id = ? ORDER BY weight DESC LIMIT 1
		`, src, tgt)
	}
	e, err := scanEdge(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get edge: %w", err)
	}
	return e, nil
}

// HasEdge implements storage.GraphStore.
func (s *GraphStore) HasEdge(ctx context.Context, src, tgt, edgeType string) (bool, error) {
	_, err := s.GetEdge(ctx, src, tgt, edgeType)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetNeighbors implements storage.GraphStore.
func (s *GraphStore) GetNeighbors(ctx context.Context, id string, edgeType string) ([]storage.NeighborEdge, error) {
	return s.fetchSide(ctx, id, edgeType, true)
}

// GetPredecessors implements storage.GraphStore.
func (s *GraphStore) GetPredecessors(ctx context.Context, id string, edgeType string) ([]storage.NeighborEdge, error) {
	return s.fetchSide(ctx, id, edgeType, false)
}

func (s *GraphStore) fetchSide(ctx context.Context, id string, edgeType string, outgoing bool) ([]storage.NeighborEdge, error) {
	col, other := "from_id", "to_id"
	if !outgoing {
		col, other = "to_id", "from_id"
	}

	q := fmt.Sprintf(`SELECT id, from_id, to_id, type, weight, properties, created_at FROM edges WHERE %s = ?`, col)
	args := []interface{}{id}
	if edgeType != "" {
		q += " AND type = ?"
		args = append(args, edgeType)
	}

	rows, err := s.conn().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetch neighbors: %w", err)
	}
	defer rows.Close()

	var result []storage.NeighborEdge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		otherID := e.To
		if !outgoing {
			otherID = e.From
		}
		node, err := getNode(ctx, s.conn(), otherID)
		if err != nil && err != storage.ErrNotFound {
			return nil, err
		}
		result = append(result, storage.NeighborEdge{Edge: e, Node: node})
	}
	_ = other
	return result, rows.Err()
}

// GetEdgesByType implements storage.GraphStore.
func (s *GraphStore) GetEdgesByType(ctx context.Context, edgeType string) ([]*types.Edge, error) {
	rows, err := s.conn().QueryContext(ctx, `
		SELECT id, from_id, to_id, type, weight, properties, created_at FROM edges WHERE type = ?
	`, edgeType)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get edges by type: %w", err)
	}
	defer rows.Close()

	var edges []*types.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Degree implements storage.GraphStore.
func (s *GraphStore) Degree(ctx context.Context, id string) (int, int, error) {
	var out, in int
	if err := s.conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM edges WHERE from_id = ?`, id).Scan(&out); err != nil {
		return 0, 0, fmt.Errorf("sqlite: out degree: %w", err)
	}
	if err := s.conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM edges WHERE to_id = ?`, id).Scan(&in); err != nil {
		return 0, 0, fmt.Errorf("sqlite: in degree: %w", err)
	}
	return out, in, nil
}

// Stats implements storage.GraphStore.
func (s *GraphStore) Stats(ctx context.Context) (storage.GraphStats, error) {
	var st storage.GraphStats
	c := s.conn()

	if err := c.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&st.TotalNodes); err != nil {
		return st, err
	}
	if err := c.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&st.TotalEdges); err != nil {
		return st, err
	}
	countByLabel := func(label string) (int, error) {
		var n int
		err := c.QueryRowContext(ctx, `SELECT COUNT(*) FROM node_labels WHERE label = ?`, label).Scan(&n)
		return n, err
	}
	var err error
	if st.PersonNodes, err = countByLabel(types.LabelPerson); err != nil {
		return st, err
	}
	if st.DomainNodes, err = countByLabel(types.LabelDomain); err != nil {
		return st, err
	}
	if st.WeakMemories, err = countByLabel(types.LabelWeakMemory); err != nil {
		return st, err
	}
	if st.ArchivedNodes, err = countByLabel(types.LabelArchived); err != nil {
		return st, err
	}
	if st.CodeNodes, err = countByLabel(types.LabelCode); err != nil {
		return st, err
	}
	if st.TotalCommits, err = countByLabel(types.LabelCommit); err != nil {
		return st, err
	}

	structural := []string{types.EdgeAuthoredBy, types.EdgeBelongsTo}
	var structuralCount int
	for _, t := range structural {
		var n int
		if err := c.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges WHERE type = ?`, t).Scan(&n); err != nil {
			return st, err
		}
		structuralCount += n
	}
	st.SemanticEdges = st.TotalEdges - structuralCount

	if err := c.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM nodes WHERE json_extract(properties, '$.diff_enriched_at') IS NOT NULL
	`).Scan(&st.EnrichedCommits); err != nil {
		st.EnrichedCommits = 0
	}

	return st, nil
}

// --- shared helpers (also used by search_provider.go, graph_traversal.go) ---

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// dbPathFromDSN extracts the filesystem path from a SQLite DSN. Handles bare
// paths and file: URIs; returns "" for in-memory databases.
func dbPathFromDSN(dsn string) string {
	if dsn == ":memory:" || dsn == "" {
		return ""
	}
	if strings.HasPrefix(dsn, "file:") {
		u, err := url.Parse(dsn)
		if err != nil {
			return ""
		}
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == ":memory:" || path == "" {
			return ""
		}
		return path
	}
	return dsn
}

// isRecoverableWALError returns true if the error matches patterns caused by
// stale WAL files left behind after a crash.
func isRecoverableWALError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "disk I/O error") || strings.Contains(msg, "database is locked")
}

// isWALStale checks whether -shm/-wal files exist and no process holds them.
func isWALStale(dbPath string) bool {
	shmPath := dbPath + "-shm"
	walPath := dbPath + "-wal"
	if !fileExists(shmPath) && !fileExists(walPath) {
		return false
	}
	lsofPath, err := exec.LookPath("lsof")
	if err != nil {
		return false
	}
	cmd := exec.Command(lsofPath, "-t", dbPath, shmPath, walPath)
	output, err := cmd.Output()
	if err != nil {
		return true
	}
	return strings.TrimSpace(string(output)) == ""
}

func removeStaleWAL(dbPath string) {
	for _, suffix := range []string{"-shm", "-wal"} {
		path := dbPath + suffix
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("sqlite: failed to remove stale %s: %v", path, err)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
