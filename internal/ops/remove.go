package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host"
	"github.com/hpungsan/pockets/internal/pocket"
)

// RemoveInput contains parameters for the Remove operation.
// ID may name a node of any tier; Name addresses pockets only.
type RemoveInput struct {
	ID   string
	Name string
}

// RemoveOutput contains the result of the Remove operation.
type RemoveOutput struct {
	ID        string `json:"id,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Removed   bool   `json:"removed"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// Remove deletes a pocket, compartment or document and everything below it.
func Remove(ctx context.Context, eng *engine.Engine, prompter host.Prompter, input RemoveInput) (*RemoveOutput, error) {
	id := strings.TrimSpace(input.ID)
	var node pocket.Node
	if id != "" && pocket.CleanLabel(input.Name) == "" {
		node = eng.Forest().FindNode(id)
		if node == nil {
			return nil, errors.NewNotFound(id)
		}
	} else {
		p, cancelled, err := ResolvePocket(ctx, eng, prompter, id, input.Name, "Remove which pocket?")
		if err != nil {
			return nil, err
		}
		if cancelled {
			return &RemoveOutput{Cancelled: true}, nil
		}
		node = p
	}

	removed, err := eng.Remove(ctx, node.NodeID())
	if err != nil {
		return nil, err
	}
	return &RemoveOutput{ID: node.NodeID(), Kind: string(node.Kind()), Removed: removed}, nil
}
