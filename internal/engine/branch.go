package engine

import (
	"context"
	"strings"

	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/pocket"
)

// LinkBranch links the pocket to branch. A pocket already linked to branch
// loses the link; the pocket's own previous link is dropped.
func (e *Engine) LinkBranch(ctx context.Context, pocketID, branch string, autoCloseOthers bool) error {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return errors.NewInvalidRequest("branch name is required")
	}

	_, err := e.mutate(ctx, func(f *pocket.Forest) (bool, error) {
		p := f.FindPocket(pocketID)
		if p == nil {
			return false, errors.NewNotFound(pocketID)
		}

		if ownerID, ok := e.index.Lookup(branch); ok && ownerID != p.ID {
			if owner := f.FindPocket(ownerID); owner != nil {
				owner.Branch = ""
				e.logger.Info("moved branch link", "branch", branch, "from", owner.Label, "to", p.Label)
			}
		}
		if p.Branch != "" && p.Branch != branch {
			e.index.Delete(p.Branch)
		}

		p.Branch = branch
		p.AutoCloseOthers = autoCloseOthers
		e.index.Set(branch, p.ID)
		return true, nil
	})
	return err
}

// UnlinkBranch clears the pocket's branch link. Returns false when the pocket
// was not linked.
func (e *Engine) UnlinkBranch(ctx context.Context, pocketID string) (bool, error) {
	return e.mutate(ctx, func(f *pocket.Forest) (bool, error) {
		p := f.FindPocket(pocketID)
		if p == nil {
			return false, errors.NewNotFound(pocketID)
		}
		if p.Branch == "" {
			return false, nil
		}
		e.index.Delete(p.Branch)
		p.Branch = ""
		return true, nil
	})
}

// RestoreBranch restores the pocket linked to branch. Returns false when no
// pocket is linked.
func (e *Engine) RestoreBranch(ctx context.Context, branch string) (bool, error) {
	id, ok := e.index.Lookup(branch)
	if !ok {
		return false, nil
	}
	if _, err := e.Restore(ctx, id); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return false, nil
		}
		return true, err
	}
	return true, nil
}
