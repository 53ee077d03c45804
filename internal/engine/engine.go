// Package engine owns the pocket forest and applies every mutation to it,
// persisting after each one.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hpungsan/pockets/internal/branchlink"
	"github.com/hpungsan/pockets/internal/codec"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host"
	"github.com/hpungsan/pockets/internal/pocket"
)

// DefaultStateKey is the workspace-state key the forest is stored under.
const DefaultStateKey = "editorpocketstorage"

// Options configures an Engine.
type Options struct {
	Store    host.StateStore
	Editor   host.Editor
	Notifier host.Notifier
	Logger   *slog.Logger

	// Root is the workspace root used to derive document labels.
	Root string
	// StateKey defaults to DefaultStateKey.
	StateKey string
}

// Engine is the tree mutation engine. Each mutate-then-persist unit runs under
// one lock; host I/O happens outside it.
type Engine struct {
	store    host.StateStore
	editor   host.Editor
	notifier host.Notifier
	logger   *slog.Logger
	root     string
	key      string

	mu     sync.Mutex
	forest *pocket.Forest
	index  *branchlink.Index
}

var _ branchlink.Restorer = (*Engine)(nil)

// New returns an engine with an empty forest. Call Load to read stored state.
func New(opts Options) *Engine {
	e := &Engine{
		store:    opts.Store,
		editor:   opts.Editor,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		root:     opts.Root,
		key:      opts.StateKey,
		forest:   &pocket.Forest{},
		index:    branchlink.NewIndex(),
	}
	if e.notifier == nil {
		e.notifier = host.NopNotifier
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.key == "" {
		e.key = DefaultStateKey
	}
	return e
}

// Root returns the workspace root.
func (e *Engine) Root() string { return e.root }

// StateKey returns the key the forest is persisted under.
func (e *Engine) StateKey() string { return e.key }

// Load reads the stored forest and rebuilds the branch index. A stored value
// that is not a list of pockets is copied to "<key>.corrupt" and the engine
// starts empty.
func (e *Engine) Load(ctx context.Context) error {
	raw, ok, err := e.store.Get(ctx, e.key)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("reading pocket state: %w", err))
	}

	forest := &pocket.Forest{}
	if ok {
		decoded, err := codec.NewDecoder(e.root, e.logger).Unmarshal(raw)
		if err != nil {
			e.logger.Warn("pocket state is corrupt; starting empty", "key", e.key, "error", err)
			if err := e.store.Set(ctx, e.key+".corrupt", raw); err != nil {
				e.logger.Error("backing up corrupt pocket state failed", "error", err)
			}
		} else {
			forest = decoded
		}
	}

	e.mu.Lock()
	e.forest = forest
	cleared := e.index.Rebuild(forest)
	if len(cleared) > 0 {
		for _, p := range cleared {
			e.logger.Warn("cleared duplicate branch link", "pocket", p.Label, "id", p.ID)
		}
		if err := e.persistLocked(ctx); err != nil {
			e.mu.Unlock()
			return err
		}
	}
	e.mu.Unlock()

	e.logger.Debug("loaded pockets", "count", len(forest.Pockets), "branches", e.index.Len())
	e.notifier.ModelChanged()
	return nil
}

// Forest returns a deep copy of the forest.
func (e *Engine) Forest() *pocket.Forest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.forest.Clone()
}

// Pocket returns a copy of the pocket with id, or nil.
func (e *Engine) Pocket(id string) *pocket.Pocket {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p := e.forest.FindPocket(id); p != nil {
		return p.Clone()
	}
	return nil
}

// PocketByLabel returns a copy of the first pocket labelled label, or nil.
func (e *Engine) PocketByLabel(label string) *pocket.Pocket {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p := e.forest.FindPocketByLabel(label); p != nil {
		return p.Clone()
	}
	return nil
}

// Branches returns a copy of the branch -> pocket id index.
func (e *Engine) Branches() map[string]string {
	return e.index.Snapshot()
}

// mutate runs fn on the live forest. If fn reports a change the forest is
// persisted; a failed persist (or an fn error) restores the checkpoint.
// Listeners are notified after a successful persist, outside the lock.
func (e *Engine) mutate(ctx context.Context, fn func(f *pocket.Forest) (bool, error)) (bool, error) {
	e.mu.Lock()
	checkpoint := e.forest.Clone()
	branches := e.index.Snapshot()

	rollback := func() {
		e.forest = checkpoint
		e.index.Restore(branches)
	}

	changed, err := fn(e.forest)
	if err != nil {
		rollback()
		e.mu.Unlock()
		return false, err
	}
	if !changed {
		e.mu.Unlock()
		return false, nil
	}
	if err := e.persistLocked(ctx); err != nil {
		rollback()
		e.mu.Unlock()
		return false, err
	}
	e.mu.Unlock()

	e.notifier.ModelChanged()
	return true, nil
}

func (e *Engine) persistLocked(ctx context.Context) error {
	data, err := codec.Marshal(e.forest)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("encoding pockets: %w", err))
	}
	if err := e.store.Set(ctx, e.key, data); err != nil {
		return errors.NewInternal(fmt.Errorf("persisting pockets: %w", err))
	}
	return nil
}
