package ops

import (
	"context"

	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/host"
)

// RestoreInput contains parameters for the Restore operation.
type RestoreInput struct {
	ID   string
	Name string
}

// RestoreOutput contains the result of the Restore operation.
type RestoreOutput struct {
	Report    *engine.RestoreReport `json:"report,omitempty"`
	Cancelled bool                  `json:"cancelled,omitempty"`
}

// Restore reopens a pocket's documents in the editor.
func Restore(ctx context.Context, eng *engine.Engine, prompter host.Prompter, input RestoreInput) (*RestoreOutput, error) {
	p, cancelled, err := ResolvePocket(ctx, eng, prompter, input.ID, input.Name, "Restore which pocket?")
	if err != nil {
		return nil, err
	}
	if cancelled {
		return &RestoreOutput{Cancelled: true}, nil
	}

	report, err := eng.Restore(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &RestoreOutput{Report: report}, nil
}
