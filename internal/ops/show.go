package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/pockets/internal/codec"
	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/host"
	"github.com/hpungsan/pockets/internal/pocket"
)

// ShowInput contains parameters for the Show operation.
type ShowInput struct {
	ID   string
	Name string
}

// ShowOutput contains the result of the Show operation.
type ShowOutput struct {
	Pocket    *codec.PocketRecord `json:"pocket,omitempty"`
	Markdown  string              `json:"markdown,omitempty"`
	Cancelled bool                `json:"cancelled,omitempty"`
}

// Show returns one pocket as its durable record and as a markdown outline.
func Show(ctx context.Context, eng *engine.Engine, prompter host.Prompter, input ShowInput) (*ShowOutput, error) {
	p, cancelled, err := ResolvePocket(ctx, eng, prompter, input.ID, input.Name, "Show which pocket?")
	if err != nil {
		return nil, err
	}
	if cancelled {
		return &ShowOutput{Cancelled: true}, nil
	}
	rec := codec.PocketToRecord(p)
	return &ShowOutput{Pocket: &rec, Markdown: Outline(p)}, nil
}

// Outline renders a pocket as markdown: a heading, one subheading per
// compartment and one list item per document.
func Outline(p *pocket.Pocket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Label)
	if p.Branch != "" {
		fmt.Fprintf(&b, "Linked to branch `%s`", p.Branch)
		if p.AutoCloseOthers {
			b.WriteString(", closes other tabs on restore")
		}
		b.WriteString(".\n\n")
	}
	if len(p.Compartments) == 0 {
		b.WriteString("_Empty pocket._\n")
		return b.String()
	}
	for _, c := range p.Compartments {
		fmt.Fprintf(&b, "## %s\n\n", c.Label)
		if len(c.Documents) == 0 {
			b.WriteString("_No files._\n\n")
			continue
		}
		for _, d := range c.Documents {
			if d.Description != "" {
				fmt.Fprintf(&b, "- `%s` %s\n", d.Label, d.Description)
			} else {
				fmt.Fprintf(&b, "- `%s`\n", d.Label)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
