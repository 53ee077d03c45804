package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/jsonc"

	"github.com/hpungsan/pockets/internal/host"
)

// Editor implements host.TabInspector and host.DocumentOpener over a session file.
// Every call re-reads the file, so edits made by other processes are picked up.
type Editor struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

var _ host.Editor = (*Editor)(nil)

// NewEditor returns an editor backed by the session file at path.
// The file need not exist yet.
func NewEditor(path string, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{path: path, logger: logger}
}

// Path returns the session file location.
func (e *Editor) Path() string { return e.path }

// ListGroups implements host.TabInspector.
func (e *Editor) ListGroups(ctx context.Context) ([]host.TabGroup, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.read()
	if err != nil {
		return nil, err
	}
	return st.ListGroups(), nil
}

// ActiveGroup implements host.TabInspector.
func (e *Editor) ActiveGroup(ctx context.Context) (host.GroupHandle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.read()
	if err != nil {
		return 0, false, err
	}
	h, ok := st.ActiveGroup()
	return h, ok, nil
}

// Open implements host.DocumentOpener. The file must exist on disk.
func (e *Editor) Open(ctx context.Context, path string, target host.Target) (host.GroupHandle, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("open %s: is a directory", path)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.read()
	if err != nil {
		return 0, err
	}
	h := st.Open(path, target)
	if err := e.write(st); err != nil {
		return 0, err
	}
	e.logger.Debug("opened document", "path", path, "group", h)
	return h, nil
}

// CloseAll implements host.DocumentOpener.
func (e *Editor) CloseAll(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.read()
	if err != nil {
		return err
	}
	st.CloseAll()
	return e.write(st)
}

// read loads the session file. A missing file is an empty session.
func (e *Editor) read() (*State, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("reading session %s: %w", e.path, err)
	}

	st := &State{}
	if err := json.Unmarshal(jsonc.ToJSON(data), st); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", e.path, err)
	}
	return st, nil
}

// write replaces the session file atomically (temp file + rename).
func (e *Editor) write(st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	if err := os.Rename(tmpPath, e.path); err != nil {
		return fmt.Errorf("replacing session: %w", err)
	}
	success = true
	return nil
}
