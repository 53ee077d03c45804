package ops

import (
	"context"

	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host"
	"github.com/hpungsan/pockets/internal/pocket"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Name     string // optional, prompted for when empty
	SaveTabs bool   // capture the current layout into the new pocket
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	Pocket    *PocketSummary `json:"pocket,omitempty"`
	Cancelled bool           `json:"cancelled,omitempty"`
}

// Create adds a new pocket at the end of the forest.
func Create(ctx context.Context, eng *engine.Engine, prompter host.Prompter, input CreateInput) (*CreateOutput, error) {
	name := pocket.CleanLabel(input.Name)
	if name == "" {
		text, ok, err := ask(ctx, prompter, "Pocket name", "")
		if err != nil {
			return nil, err
		}
		if !ok {
			return &CreateOutput{Cancelled: true}, nil
		}
		name = pocket.CleanLabel(text)
		if name == "" {
			return nil, errors.NewInvalidRequest("pocket name is required")
		}
	}

	var p *pocket.Pocket
	var err error
	if input.SaveTabs {
		p, err = eng.CreateFromTabs(ctx, name)
	} else {
		p, err = eng.CreatePocket(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	summary := Summarize(p)
	return &CreateOutput{Pocket: &summary}, nil
}
