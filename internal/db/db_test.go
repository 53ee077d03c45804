package db

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pockets/internal/config"
)

func TestInit(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "nested", ".pockets")

	db, err := Init(baseDir)
	require.NoError(t, err)
	defer db.Close()

	require.FileExists(t, filepath.Join(baseDir, DBFileName))
	require.DirExists(t, filepath.Join(baseDir, "exports"))

	info, err := os.Stat(baseDir)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0700), info.Mode().Perm())

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode;").Scan(&mode))
	require.Equal(t, "wal", mode)

	var table string
	require.NoError(t, db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='workspace_state'",
	).Scan(&table))
}

func TestInit_Reopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := Init(dir)
	require.NoError(t, err)
	require.NoError(t, SetState(t.Context(), db1, "/w", "k", []byte("kept")))
	db1.Close()

	db2, err := Init(dir)
	require.NoError(t, err)
	defer db2.Close()

	version, err := GetUserVersion(db2)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, version)

	v, ok, err := GetState(t.Context(), db2, "/w", "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "kept", string(v))
}

func TestMigrate_SkipsAppliedVersions(t *testing.T) {
	db, err := Init(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	// A version beyond the known migrations is left alone.
	_, err = db.Exec(fmt.Sprintf("PRAGMA user_version=%d", CurrentSchemaVersion+5))
	require.NoError(t, err)
	require.NoError(t, migrate(db))

	version, err := GetUserVersion(db)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion+5, version)
}

func TestConfigurePool(t *testing.T) {
	db, err := Init(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ConfigurePool(db, nil)
	ConfigurePool(db, &config.Config{DBMaxOpenConns: 3, DBMaxIdleConns: 3})

	require.Equal(t, 3, db.Stats().MaxOpenConnections)
}
