// Package ops implements the user-facing pocket actions shared by the CLI,
// the MCP server and the web viewer. Each action takes an XxxInput, talks to
// the engine and whatever host ports it needs, and returns an XxxOutput.
//
// A prompt the user dismisses yields an output with Cancelled set and leaves
// the pockets untouched.
package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host"
	"github.com/hpungsan/pockets/internal/pocket"
)

// PocketSummary is the listing view of a pocket.
type PocketSummary struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	Branch          string `json:"branch,omitempty"`
	AutoCloseOthers bool   `json:"auto_close_others"`
	Compartments    int    `json:"compartments"`
	Documents       int    `json:"documents"`
}

// Summarize builds the listing view of p.
func Summarize(p *pocket.Pocket) PocketSummary {
	return PocketSummary{
		ID:              p.ID,
		Label:           p.Label,
		Branch:          p.Branch,
		AutoCloseOthers: p.AutoCloseOthers,
		Compartments:    len(p.Compartments),
		Documents:       p.DocumentCount(),
	}
}

// ResolvePocket finds the pocket addressed by id or by label.
// Rules:
// - id and name together → ErrAmbiguousAddressing
// - neither → the user picks one (cancelled reports true)
// - no pockets at all → ErrNoPockets
func ResolvePocket(ctx context.Context, eng *engine.Engine, prompter host.Prompter, id, name, placeholder string) (*pocket.Pocket, bool, error) {
	id = strings.TrimSpace(id)
	name = pocket.CleanLabel(name)

	if id != "" && name != "" {
		return nil, false, errors.NewAmbiguousAddressing()
	}
	if id != "" {
		p := eng.Pocket(id)
		if p == nil {
			return nil, false, errors.NewNotFound(id)
		}
		return p, false, nil
	}
	if name != "" {
		p := eng.PocketByLabel(name)
		if p == nil {
			return nil, false, errors.NewNotFound(name)
		}
		return p, false, nil
	}
	return pickPocket(ctx, eng, prompter, placeholder)
}

func pickPocket(ctx context.Context, eng *engine.Engine, prompter host.Prompter, placeholder string) (*pocket.Pocket, bool, error) {
	f := eng.Forest()
	if len(f.Pockets) == 0 {
		return nil, false, errors.NewNoPockets()
	}
	options := make([]host.Option, 0, len(f.Pockets))
	for _, p := range f.Pockets {
		options = append(options, host.Option{
			Label:       p.Label,
			Description: describe(p),
			Value:       p.ID,
		})
	}

	choice, ok, err := pick(ctx, prompter, options, placeholder)
	if err != nil || !ok {
		return nil, !ok && err == nil, err
	}
	p := eng.Pocket(choice.Value)
	if p == nil {
		return nil, false, errors.NewNotFound(choice.Value)
	}
	return p, false, nil
}

func describe(p *pocket.Pocket) string {
	s := fmt.Sprintf("%d file(s)", p.DocumentCount())
	if p.Branch != "" {
		s += ", branch " + p.Branch
	}
	return s
}

// ask prompts for text. A nil prompter behaves like a dismissed prompt.
func ask(ctx context.Context, prompter host.Prompter, placeholder, value string) (string, bool, error) {
	if prompter == nil {
		return "", false, nil
	}
	text, ok, err := prompter.TextInput(ctx, placeholder, value)
	if err != nil {
		return "", false, errors.NewHostUnavailable("prompt", err)
	}
	return text, ok, nil
}

func pick(ctx context.Context, prompter host.Prompter, options []host.Option, placeholder string) (host.Option, bool, error) {
	if prompter == nil {
		return host.Option{}, false, nil
	}
	choice, ok, err := prompter.Pick(ctx, options, placeholder)
	if err != nil {
		return host.Option{}, false, errors.NewHostUnavailable("prompt", err)
	}
	return choice, ok, nil
}

// confirm asks a yes/no question through Pick.
func confirm(ctx context.Context, prompter host.Prompter, placeholder string) (bool, bool, error) {
	choice, ok, err := pick(ctx, prompter, []host.Option{
		{Label: "Yes", Value: "yes"},
		{Label: "No", Value: "no"},
	}, placeholder)
	if err != nil || !ok {
		return false, ok, err
	}
	return choice.Value == "yes", true, nil
}
