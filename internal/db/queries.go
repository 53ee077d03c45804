package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/hpungsan/pockets/internal/errors"
)

// GetState retrieves the value stored under key for workspace.
// Returns ok=false when no value exists.
func GetState(ctx context.Context, db *sql.DB, workspace, key string) ([]byte, bool, error) {
	var value []byte
	err := db.QueryRowContext(ctx,
		`SELECT value FROM workspace_state WHERE workspace = ? AND key = ?`,
		workspace, key,
	).Scan(&value)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.NewInternal(err)
	}
	return value, true, nil
}

// SetState inserts or replaces the value stored under key for workspace.
func SetState(ctx context.Context, db *sql.DB, workspace, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	query := `
		INSERT INTO workspace_state (workspace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(workspace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, workspace, key, value, time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
