package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host"
)

// LinkBranchInput contains parameters for the LinkBranch operation.
type LinkBranchInput struct {
	ID              string
	Name            string
	Branch          string // optional, picked from the repository's branches when empty
	AutoCloseOthers *bool  // optional, asked when nil
}

// LinkBranchOutput contains the result of the LinkBranch operation.
type LinkBranchOutput struct {
	PocketID        string `json:"pocket_id,omitempty"`
	Label           string `json:"label,omitempty"`
	Branch          string `json:"branch,omitempty"`
	AutoCloseOthers bool   `json:"auto_close_others"`
	Cancelled       bool   `json:"cancelled,omitempty"`
}

// LinkBranch links a pocket to a branch so that checking the branch out
// restores the pocket. A pocket previously linked to the branch loses it.
func LinkBranch(ctx context.Context, eng *engine.Engine, prompter host.Prompter, branches host.BranchSource, input LinkBranchInput) (*LinkBranchOutput, error) {
	p, cancelled, err := ResolvePocket(ctx, eng, prompter, input.ID, input.Name, "Link which pocket?")
	if err != nil {
		return nil, err
	}
	if cancelled {
		return &LinkBranchOutput{Cancelled: true}, nil
	}

	branch := strings.TrimSpace(input.Branch)
	if branch == "" {
		var ok bool
		branch, ok, err = pickBranch(ctx, prompter, branches)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &LinkBranchOutput{Cancelled: true}, nil
		}
	}

	var autoClose bool
	if input.AutoCloseOthers != nil {
		autoClose = *input.AutoCloseOthers
	} else {
		yes, ok, err := confirm(ctx, prompter, "Close other tabs when "+branch+" is checked out?")
		if err != nil {
			return nil, err
		}
		if !ok {
			return &LinkBranchOutput{Cancelled: true}, nil
		}
		autoClose = yes
	}

	if err := eng.LinkBranch(ctx, p.ID, branch, autoClose); err != nil {
		return nil, err
	}
	return &LinkBranchOutput{
		PocketID:        p.ID,
		Label:           p.Label,
		Branch:          branch,
		AutoCloseOthers: autoClose,
	}, nil
}

func pickBranch(ctx context.Context, prompter host.Prompter, branches host.BranchSource) (string, bool, error) {
	if branches == nil {
		return "", false, errors.NewHostUnavailable("git", nil)
	}
	list, err := branches.ListBranches(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrHostUnavailable) {
			return "", false, err
		}
		return "", false, errors.NewHostUnavailable("git", err)
	}
	if len(list) == 0 {
		return "", false, errors.NewInvalidRequest("repository has no branches")
	}

	options := make([]host.Option, 0, len(list))
	for _, b := range list {
		desc := b.Commit
		if b.Remote {
			desc += " (remote)"
		}
		options = append(options, host.Option{Label: b.Name, Description: desc, Value: b.Name})
	}
	choice, ok, err := pick(ctx, prompter, options, "Pick a branch")
	if err != nil || !ok {
		return "", false, err
	}
	return choice.Value, true, nil
}

// UnlinkBranchInput contains parameters for the UnlinkBranch operation.
type UnlinkBranchInput struct {
	ID   string
	Name string
}

// UnlinkBranchOutput contains the result of the UnlinkBranch operation.
type UnlinkBranchOutput struct {
	PocketID  string `json:"pocket_id,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Unlinked  bool   `json:"unlinked"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// UnlinkBranch removes a pocket's branch link. Unlinking a pocket that has
// no link succeeds with Unlinked false.
func UnlinkBranch(ctx context.Context, eng *engine.Engine, prompter host.Prompter, input UnlinkBranchInput) (*UnlinkBranchOutput, error) {
	p, cancelled, err := ResolvePocket(ctx, eng, prompter, input.ID, input.Name, "Unlink which pocket?")
	if err != nil {
		return nil, err
	}
	if cancelled {
		return &UnlinkBranchOutput{Cancelled: true}, nil
	}

	unlinked, err := eng.UnlinkBranch(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &UnlinkBranchOutput{PocketID: p.ID, Branch: p.Branch, Unlinked: unlinked}, nil
}
