package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host"
	"github.com/hpungsan/pockets/internal/pocket"
)

// RenameInput contains parameters for the Rename operation.
// ID may name a pocket or a compartment; Name addresses pockets only.
type RenameInput struct {
	ID      string
	Name    string
	NewName string // optional, prompted for (pre-filled with the current label) when empty
}

// RenameOutput contains the result of the Rename operation.
type RenameOutput struct {
	ID        string `json:"id,omitempty"`
	Label     string `json:"label,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// Rename changes the label of a pocket or compartment.
func Rename(ctx context.Context, eng *engine.Engine, prompter host.Prompter, input RenameInput) (*RenameOutput, error) {
	node, cancelled, err := resolveNamed(ctx, eng, prompter, input.ID, input.Name)
	if err != nil {
		return nil, err
	}
	if cancelled {
		return &RenameOutput{Cancelled: true}, nil
	}

	label := pocket.CleanLabel(input.NewName)
	if label == "" {
		text, ok, err := ask(ctx, prompter, "New name", node.NodeLabel())
		if err != nil {
			return nil, err
		}
		if !ok {
			return &RenameOutput{Cancelled: true}, nil
		}
		label = pocket.CleanLabel(text)
	}
	if label == "" {
		return nil, errors.NewInvalidRequest("name must not be empty")
	}

	if err := eng.Rename(ctx, node.NodeID(), label); err != nil {
		return nil, err
	}
	return &RenameOutput{ID: node.NodeID(), Label: label}, nil
}

// resolveNamed resolves a renameable node: any node by id, or a pocket.
func resolveNamed(ctx context.Context, eng *engine.Engine, prompter host.Prompter, id, name string) (pocket.Node, bool, error) {
	id = strings.TrimSpace(id)
	if id != "" && pocket.CleanLabel(name) == "" {
		n := eng.Forest().FindNode(id)
		if n == nil {
			return nil, false, errors.NewNotFound(id)
		}
		if n.Kind() == pocket.KindDocument {
			return nil, false, errors.NewInvalidRequest("documents cannot be renamed")
		}
		return n, false, nil
	}
	p, cancelled, err := ResolvePocket(ctx, eng, prompter, id, name, "Rename which pocket?")
	if err != nil || cancelled {
		return nil, cancelled, err
	}
	return p, false, nil
}
