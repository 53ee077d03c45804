package engine

import (
	"context"
	"slices"

	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/pocket"
)

// CreatePocket appends an empty pocket. Names need not be unique.
func (e *Engine) CreatePocket(ctx context.Context, name string) (*pocket.Pocket, error) {
	label := pocket.CleanLabel(name)
	if label == "" {
		return nil, errors.NewInvalidRequest("pocket name is required")
	}

	p := pocket.NewPocket(label)
	_, err := e.mutate(ctx, func(f *pocket.Forest) (bool, error) {
		f.Pockets = append(f.Pockets, p)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("created pocket", "id", p.ID, "label", p.Label)
	return p.Clone(), nil
}

// Remove deletes the node with id at any tier, cascading to its children.
// Returns false, with no write, when the id is unknown.
func (e *Engine) Remove(ctx context.Context, id string) (bool, error) {
	return e.mutate(ctx, func(f *pocket.Forest) (bool, error) {
		switch n := f.FindNode(id).(type) {
		case *pocket.Pocket:
			f.Pockets = slices.Delete(f.Pockets, f.PocketIndex(id), f.PocketIndex(id)+1)
			e.index.ForgetPocket(n.ID)
			return true, nil
		case *pocket.Compartment:
			parent := f.FindParent(id).(*pocket.Pocket)
			i := parent.CompartmentIndex(id)
			parent.Compartments = slices.Delete(parent.Compartments, i, i+1)
			return true, nil
		case *pocket.Document:
			parent := f.FindParent(id).(*pocket.Compartment)
			i := parent.DocumentIndex(id)
			parent.Documents = slices.Delete(parent.Documents, i, i+1)
			return true, nil
		default:
			return false, nil
		}
	})
}

// Rename relabels a pocket or compartment. Document labels are derived from
// the path and cannot be renamed.
func (e *Engine) Rename(ctx context.Context, id, label string) error {
	label = pocket.CleanLabel(label)
	if label == "" {
		return errors.NewInvalidRequest("name is required")
	}

	_, err := e.mutate(ctx, func(f *pocket.Forest) (bool, error) {
		switch n := f.FindNode(id).(type) {
		case *pocket.Pocket:
			if n.Label == label {
				return false, nil
			}
			n.Label = label
		case *pocket.Compartment:
			if n.Label == label {
				return false, nil
			}
			n.Label = label
		case *pocket.Document:
			return false, errors.NewInvalidRequest("documents take their name from the file and cannot be renamed")
		default:
			return false, errors.NewNotFound(id)
		}
		return true, nil
	})
	return err
}

// Move reparents or reorders a node (drag-and-drop).
//
// A pocket may be dropped on the root (targetID "") at index, or on another
// pocket to take its position. A compartment may be dropped into a pocket at
// index or onto a sibling compartment. A document may be dropped into a
// compartment at index or onto a sibling document. Any other pairing, an
// unknown id, or a drop onto itself returns false with no write.
//
// The index is applied to the destination list after the node is detached;
// a negative or too large index appends.
func (e *Engine) Move(ctx context.Context, id, targetID string, index int) (bool, error) {
	if id == targetID {
		return false, nil
	}
	return e.mutate(ctx, func(f *pocket.Forest) (bool, error) {
		switch n := f.FindNode(id).(type) {
		case *pocket.Pocket:
			return movePocket(f, n, targetID, index), nil
		case *pocket.Compartment:
			return moveCompartment(f, n, targetID, index), nil
		case *pocket.Document:
			return moveDocument(f, n, targetID, index), nil
		default:
			return false, nil
		}
	})
}

func movePocket(f *pocket.Forest, p *pocket.Pocket, targetID string, index int) bool {
	if targetID != "" {
		if _, ok := f.FindNode(targetID).(*pocket.Pocket); !ok {
			return false
		}
		index = f.PocketIndex(targetID)
	}
	f.Pockets = detach(f.Pockets, f.PocketIndex(p.ID))
	f.Pockets = attach(f.Pockets, p, index)
	return true
}

func moveCompartment(f *pocket.Forest, c *pocket.Compartment, targetID string, index int) bool {
	var dest *pocket.Pocket
	switch t := f.FindNode(targetID).(type) {
	case *pocket.Pocket:
		dest = t
	case *pocket.Compartment:
		dest = f.FindParent(t.ID).(*pocket.Pocket)
		index = dest.CompartmentIndex(t.ID)
	default:
		return false
	}

	src := f.FindParent(c.ID).(*pocket.Pocket)
	src.Compartments = detach(src.Compartments, src.CompartmentIndex(c.ID))
	dest.Compartments = attach(dest.Compartments, c, index)
	return true
}

func moveDocument(f *pocket.Forest, d *pocket.Document, targetID string, index int) bool {
	var dest *pocket.Compartment
	switch t := f.FindNode(targetID).(type) {
	case *pocket.Compartment:
		dest = t
	case *pocket.Document:
		dest = f.FindParent(t.ID).(*pocket.Compartment)
		index = dest.DocumentIndex(t.ID)
	default:
		return false
	}

	src := f.FindParent(d.ID).(*pocket.Compartment)
	src.Documents = detach(src.Documents, src.DocumentIndex(d.ID))
	dest.Documents = attach(dest.Documents, d, index)
	return true
}

func detach[T any](list []T, i int) []T {
	return slices.Delete(list, i, i+1)
}

func attach[T any](list []T, v T, i int) []T {
	if i < 0 || i > len(list) {
		i = len(list)
	}
	return slices.Insert(list, i, v)
}
