package ops

import (
	"github.com/hpungsan/pockets/internal/engine"
)

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Pockets []PocketSummary `json:"pockets"`
	Total   int             `json:"total"`
}

// List returns every pocket in forest order.
func List(eng *engine.Engine) *ListOutput {
	f := eng.Forest()
	out := &ListOutput{Pockets: make([]PocketSummary, 0, len(f.Pockets))}
	for _, p := range f.Pockets {
		out.Pockets = append(out.Pockets, Summarize(p))
	}
	out.Total = len(out.Pockets)
	return out
}
