package db

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/hpungsan/pockets/internal/host"
)

// StateStore is a host.StateStore over the workspace_state table, scoped to
// one workspace root.
type StateStore struct {
	db        *sql.DB
	workspace string
}

var _ host.StateStore = (*StateStore)(nil)

// NewStateStore scopes the database to workspace. The root is cleaned so
// "/w" and "/w/" share state.
func NewStateStore(db *sql.DB, workspace string) *StateStore {
	if workspace != "" {
		workspace = filepath.Clean(workspace)
	}
	return &StateStore{db: db, workspace: workspace}
}

func (s *StateStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return GetState(ctx, s.db, s.workspace, key)
}

func (s *StateStore) Set(ctx context.Context, key string, value []byte) error {
	return SetState(ctx, s.db, s.workspace, key, value)
}
