package engine

import (
	"context"

	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host"
	"github.com/hpungsan/pockets/internal/pocket"
)

// SnapshotTabsInto replaces the pocket's content with the editor's current
// layout: one compartment per group in group order, one document per text tab
// in tab order. Requires an active editor group.
func (e *Engine) SnapshotTabsInto(ctx context.Context, pocketID string) (*pocket.Pocket, error) {
	if e.Pocket(pocketID) == nil {
		return nil, errors.NewNotFound(pocketID)
	}
	compartments, err := e.captureTabs(ctx)
	if err != nil {
		return nil, err
	}

	// Re-fetch by id: the pocket may have gone while the editor was queried.
	var out *pocket.Pocket
	_, err = e.mutate(ctx, func(f *pocket.Forest) (bool, error) {
		p := f.FindPocket(pocketID)
		if p == nil {
			return false, errors.NewNotFound(pocketID)
		}
		p.Compartments = compartments
		out = p.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("saved tabs", "pocket", out.Label, "groups", len(out.Compartments), "documents", out.DocumentCount())
	return out, nil
}

// CreateFromTabs creates a pocket already holding the current layout.
// Nothing is created when the layout cannot be captured.
func (e *Engine) CreateFromTabs(ctx context.Context, name string) (*pocket.Pocket, error) {
	label := pocket.CleanLabel(name)
	if label == "" {
		return nil, errors.NewInvalidRequest("pocket name is required")
	}
	compartments, err := e.captureTabs(ctx)
	if err != nil {
		return nil, err
	}

	p := pocket.NewPocket(label)
	p.Compartments = compartments
	_, err = e.mutate(ctx, func(f *pocket.Forest) (bool, error) {
		f.Pockets = append(f.Pockets, p)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("created pocket from tabs", "id", p.ID, "label", p.Label, "documents", p.DocumentCount())
	return p.Clone(), nil
}

// HasActiveEditor reports whether the editor has a focused group.
func (e *Engine) HasActiveEditor(ctx context.Context) (bool, error) {
	if e.editor == nil {
		return false, errors.NewHostUnavailable("editor", nil)
	}
	_, ok, err := e.editor.ActiveGroup(ctx)
	if err != nil {
		return false, errors.NewHostUnavailable("editor", err)
	}
	return ok, nil
}

// captureTabs reads the live layout. Host I/O only; the forest is not touched.
func (e *Engine) captureTabs(ctx context.Context) ([]*pocket.Compartment, error) {
	ok, err := e.HasActiveEditor(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNoActiveEditor()
	}
	groups, err := e.editor.ListGroups(ctx)
	if err != nil {
		return nil, errors.NewHostUnavailable("editor", err)
	}
	return e.compartmentsFromGroups(groups), nil
}

func (e *Engine) compartmentsFromGroups(groups []host.TabGroup) []*pocket.Compartment {
	out := make([]*pocket.Compartment, 0, len(groups))
	for i, g := range groups {
		n := int(g.Handle)
		if n <= 0 {
			n = i + 1
		}
		c := pocket.NewCompartment(pocket.CompartmentLabel(n))
		for _, t := range g.Tabs {
			if t.Kind != host.TabText || t.Path == "" {
				continue
			}
			c.Documents = append(c.Documents, pocket.NewDocument(t.Path, e.root))
		}
		out = append(out, c)
	}
	return out
}
