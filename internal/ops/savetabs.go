package ops

import (
	"context"

	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host"
	"github.com/hpungsan/pockets/internal/pocket"
)

// SaveTabsInput contains parameters for the SaveTabs operation.
// Without id or name the user picks a pocket, or names a new one when
// there are none yet.
type SaveTabsInput struct {
	ID   string
	Name string
}

// SaveTabsOutput contains the result of the SaveTabs operation.
type SaveTabsOutput struct {
	Pocket    *PocketSummary `json:"pocket,omitempty"`
	Created   bool           `json:"created,omitempty"`
	Cancelled bool           `json:"cancelled,omitempty"`
}

// SaveTabs replaces a pocket's content with the current editor layout.
func SaveTabs(ctx context.Context, eng *engine.Engine, prompter host.Prompter, input SaveTabsInput) (*SaveTabsOutput, error) {
	active, err := eng.HasActiveEditor(ctx)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.NewNoActiveEditor()
	}

	if input.ID == "" && pocket.CleanLabel(input.Name) == "" && len(eng.Forest().Pockets) == 0 {
		return saveIntoNewPocket(ctx, eng, prompter)
	}

	target, cancelled, err := ResolvePocket(ctx, eng, prompter, input.ID, input.Name, "Save tabs into which pocket?")
	if err != nil {
		return nil, err
	}
	if cancelled {
		return &SaveTabsOutput{Cancelled: true}, nil
	}

	p, err := eng.SnapshotTabsInto(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(p)
	return &SaveTabsOutput{Pocket: &summary}, nil
}

func saveIntoNewPocket(ctx context.Context, eng *engine.Engine, prompter host.Prompter) (*SaveTabsOutput, error) {
	text, ok, err := ask(ctx, prompter, "No pockets yet. Name a new pocket", "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return &SaveTabsOutput{Cancelled: true}, nil
	}
	name := pocket.CleanLabel(text)
	if name == "" {
		return nil, errors.NewInvalidRequest("pocket name is required")
	}

	p, err := eng.CreateFromTabs(ctx, name)
	if err != nil {
		return nil, err
	}
	summary := Summarize(p)
	return &SaveTabsOutput{Pocket: &summary, Created: true}, nil
}
