package postgres

import (
	"context"
	"database/sql"

	"github.com/nullgraph/brain/internal/storage"
)

var _ storage.MetaStore = (*GraphStore)(nil)

// GetMeta reads a single key/value row from the meta table.
func (s *GraphStore) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn().QueryRowContext(ctx, `SELECT value FROM meta WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetMeta upserts a key/value row in the meta table.
func (s *GraphStore) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.conn().ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
