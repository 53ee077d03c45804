package branchlink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hpungsan/pockets/internal/host"
)

// Restorer restores the pocket linked to a branch. It reports false when no
// pocket is linked.
type Restorer interface {
	RestoreBranch(ctx context.Context, branch string) (bool, error)
}

// Coordinator reacts to branch changes by restoring the linked pocket.
type Coordinator struct {
	restorer Restorer
	logger   *slog.Logger

	mu   sync.Mutex
	last string
}

// NewCoordinator returns a coordinator restoring through r.
func NewCoordinator(r Restorer, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{restorer: r, logger: logger}
}

// HandleBranchChanged restores the pocket linked to branch. Blank names and
// repeats of the last seen branch are ignored. Errors are logged, never returned.
func (c *Coordinator) HandleBranchChanged(ctx context.Context, branch string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("branch change handler panicked", "branch", branch, "panic", fmt.Sprint(r))
		}
	}()

	branch = strings.TrimSpace(branch)
	if branch == "" {
		return
	}

	c.mu.Lock()
	if branch == c.last {
		c.mu.Unlock()
		return
	}
	c.last = branch
	c.mu.Unlock()

	restored, err := c.restorer.RestoreBranch(ctx, branch)
	switch {
	case err != nil:
		c.logger.Warn("restoring linked pocket failed", "branch", branch, "error", err)
	case restored:
		c.logger.Info("restored linked pocket", "branch", branch)
	default:
		c.logger.Debug("no pocket linked to branch", "branch", branch)
	}
}

// LastBranch returns the last branch handled.
func (c *Coordinator) LastBranch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Watch subscribes to src until ctx is done. The current branch seeds the
// last-seen name so startup does not trigger a restore.
func (c *Coordinator) Watch(ctx context.Context, src host.BranchSource) error {
	current, err := src.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.last = current
	c.mu.Unlock()

	cancel := src.OnBranchChanged(func(branch string) {
		c.HandleBranchChanged(ctx, branch)
	})
	defer cancel()

	<-ctx.Done()
	return nil
}
