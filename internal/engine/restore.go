package engine

import (
	"context"

	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host"
)

// FailedOpen is a document that could not be opened during a restore.
type FailedOpen struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// RestoreReport summarises a restore.
type RestoreReport struct {
	PocketID string       `json:"pocket_id"`
	Label    string       `json:"label"`
	Closed   bool         `json:"closed_others"`
	Opened   int          `json:"opened"`
	Groups   int          `json:"groups"`
	Failed   []FailedOpen `json:"failed,omitempty"`
}

// Restore reopens the pocket's documents. The first compartment opens into
// the group that was active before the restore; each later compartment opens
// into a new group placed after the previous compartment's group. Documents
// that fail to open are logged and reported, not returned as errors.
func (e *Engine) Restore(ctx context.Context, pocketID string) (*RestoreReport, error) {
	p := e.Pocket(pocketID)
	if p == nil {
		return nil, errors.NewNotFound(pocketID)
	}
	if e.editor == nil {
		return nil, errors.NewHostUnavailable("editor", nil)
	}

	report := &RestoreReport{PocketID: p.ID, Label: p.Label}

	prev, ok, err := e.editor.ActiveGroup(ctx)
	if err != nil {
		e.logger.Warn("reading active group failed", "error", err)
	}
	if err != nil || !ok {
		prev = 0
	}

	if p.AutoCloseOthers {
		if err := e.editor.CloseAll(ctx); err != nil {
			e.logger.Warn("closing open documents failed", "pocket", p.Label, "error", err)
		} else {
			report.Closed = true
		}
	}

	for i, c := range p.Compartments {
		var landed host.GroupHandle
		for _, d := range c.Documents {
			if err := ctx.Err(); err != nil {
				return report, errors.NewCancelled("restore")
			}

			target := host.Target{Group: prev}
			switch {
			case landed != 0:
				target = host.Target{Group: landed}
			case i > 0:
				target.NewGroup = true
			}

			g, err := e.editor.Open(ctx, d.Path, target)
			if err != nil {
				e.logger.Warn("opening document failed", "path", d.Path, "error", err)
				report.Failed = append(report.Failed, FailedOpen{Path: d.Path, Error: err.Error()})
				continue
			}
			landed = g
			report.Opened++
		}
		if landed != 0 {
			prev = landed
			report.Groups++
		}
	}

	e.logger.Info("restored pocket", "pocket", p.Label, "opened", report.Opened, "failed", len(report.Failed))
	return report, nil
}
