package engine

import (
	"context"
	"fmt"

	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/pocket"
)

// ImportMode controls how imported pockets whose id already exists are handled.
type ImportMode string

const (
	// ImportModeError aborts the whole import on any id collision.
	ImportModeError ImportMode = "error"
	// ImportModeReplace replaces the existing pocket in place.
	ImportModeReplace ImportMode = "replace"
	// ImportModeRename gives colliding pockets fresh ids.
	ImportModeRename ImportMode = "rename"
)

// ImportResult reports what ImportPockets did.
type ImportResult struct {
	Added           int      `json:"added"`
	Replaced        int      `json:"replaced"`
	Renamed         int      `json:"renamed"`
	ClearedBranches []string `json:"cleared_branches,omitempty"`
}

// ImportPockets merges pockets into the forest. Branch links that collide
// with existing links are cleared on the imported pocket; the existing
// owner keeps the branch.
func (e *Engine) ImportPockets(ctx context.Context, pockets []*pocket.Pocket, mode ImportMode) (*ImportResult, error) {
	switch mode {
	case "":
		mode = ImportModeError
	case ImportModeError, ImportModeReplace, ImportModeRename:
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid import mode %q (want error, replace or rename)", mode))
	}

	result := &ImportResult{}
	_, err := e.mutate(ctx, func(f *pocket.Forest) (bool, error) {
		if mode == ImportModeError {
			if ids := collisions(f, pockets); len(ids) > 0 {
				return false, &errors.PocketsError{
					Code:    errors.ErrInvalidRequest,
					Status:  400,
					Message: fmt.Sprintf("import aborted: %d id(s) already exist; use mode replace or rename", len(ids)),
					Details: map[string]any{"collisions": ids},
				}
			}
		}

		owners := e.index.Snapshot()
		imported := make([]*pocket.Pocket, 0, len(pockets))
		replaced := map[string]bool{}
		for _, in := range pockets {
			p := in.Clone()
			existing := f.PocketIndex(p.ID)
			switch {
			case existing >= 0 && mode == ImportModeReplace:
				replaced[p.ID] = true
				f.Pockets[existing] = p
				result.Replaced++
			case existing >= 0 || (mode == ImportModeRename && nestedCollision(f, p)):
				remint(p)
				f.Pockets = append(f.Pockets, p)
				result.Renamed++
			default:
				f.Pockets = append(f.Pockets, p)
				result.Added++
			}
			imported = append(imported, p)
		}

		reassignImportedIDs(f, imported)
		for _, p := range releaseBranches(owners, replaced, imported) {
			result.ClearedBranches = append(result.ClearedBranches, p.Label)
		}
		for _, p := range e.index.Rebuild(f) {
			result.ClearedBranches = append(result.ClearedBranches, p.Label)
		}
		return len(pockets) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	for _, label := range result.ClearedBranches {
		e.logger.Warn("imported pocket lost its branch link to an existing pocket", "pocket", label)
	}
	return result, nil
}

// collisions returns every id in pockets that already exists in f.
func collisions(f *pocket.Forest, pockets []*pocket.Pocket) []string {
	var ids []string
	for _, p := range pockets {
		if f.FindNode(p.ID) != nil {
			ids = append(ids, p.ID)
		}
		if nestedCollision(f, p) {
			for _, c := range p.Compartments {
				if f.FindNode(c.ID) != nil {
					ids = append(ids, c.ID)
				}
				for _, d := range c.Documents {
					if f.FindNode(d.ID) != nil {
						ids = append(ids, d.ID)
					}
				}
			}
		}
	}
	return ids
}

func nestedCollision(f *pocket.Forest, p *pocket.Pocket) bool {
	for _, c := range p.Compartments {
		if f.FindNode(c.ID) != nil {
			return true
		}
		for _, d := range c.Documents {
			if f.FindNode(d.ID) != nil {
				return true
			}
		}
	}
	return false
}

// remint assigns fresh ids to a pocket and everything under it.
func remint(p *pocket.Pocket) {
	p.ID = pocket.NewID()
	for _, c := range p.Compartments {
		c.ID = pocket.NewID()
		for _, d := range c.Documents {
			d.ID = pocket.NewID()
		}
	}
}

// reassignImportedIDs gives fresh ids to imported nodes whose id is already
// held elsewhere in the forest. Nodes that were not imported keep their ids.
func reassignImportedIDs(f *pocket.Forest, imported []*pocket.Pocket) {
	isImported := make(map[*pocket.Pocket]bool, len(imported))
	for _, p := range imported {
		isImported[p] = true
	}

	seen := map[string]bool{}
	for _, p := range f.Pockets {
		seen[p.ID] = true
		if isImported[p] {
			continue
		}
		for _, c := range p.Compartments {
			seen[c.ID] = true
			for _, d := range c.Documents {
				seen[d.ID] = true
			}
		}
	}

	for _, p := range imported {
		for _, c := range p.Compartments {
			if seen[c.ID] {
				c.ID = pocket.NewID()
			}
			seen[c.ID] = true
			for _, d := range c.Documents {
				if seen[d.ID] {
					d.ID = pocket.NewID()
				}
				seen[d.ID] = true
			}
		}
	}
}

// releaseBranches clears Branch on imported pockets whose branch is already
// linked to a pocket that stays in the forest, or to an earlier imported
// pocket. owners is the branch index from before the import; pockets in
// replaced give up their links. The cleared pockets are returned.
func releaseBranches(owners map[string]string, replaced map[string]bool, imported []*pocket.Pocket) (cleared []*pocket.Pocket) {
	claimed := make(map[string]string, len(owners))
	for b, id := range owners {
		if !replaced[id] {
			claimed[b] = id
		}
	}
	for _, p := range imported {
		if p.Branch == "" {
			continue
		}
		if id, taken := claimed[p.Branch]; taken && id != p.ID {
			p.Branch = ""
			cleared = append(cleared, p)
			continue
		}
		claimed[p.Branch] = p.ID
	}
	return cleared
}
