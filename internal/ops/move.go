package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
)

// MoveInput contains parameters for the Move operation.
type MoveInput struct {
	ID       string
	TargetID string // "" drops a pocket on the root
	Index    *int   // optional, default: end of the destination
}

// MoveOutput contains the result of the Move operation.
type MoveOutput struct {
	Moved bool `json:"moved"`
}

// Move reparents or reorders a node. An unsupported drop is not an error;
// it reports Moved false.
func Move(ctx context.Context, eng *engine.Engine, input MoveInput) (*MoveOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	f := eng.Forest()
	if f.FindNode(id) == nil {
		return nil, errors.NewNotFound(id)
	}
	target := strings.TrimSpace(input.TargetID)
	if target != "" && f.FindNode(target) == nil {
		return nil, errors.NewNotFound(target)
	}

	index := -1
	if input.Index != nil {
		index = *input.Index
	}
	moved, err := eng.Move(ctx, id, target, index)
	if err != nil {
		return nil, err
	}
	return &MoveOutput{Moved: moved}, nil
}
