package web

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/ops"
)

// changesTimeout bounds one long-poll on /api/changes.
const changesTimeout = 25 * time.Second

// Handlers contains HTTP route handlers for the viewer.
type Handlers struct {
	eng      *engine.Engine
	changes  *Changes
	renderer *Renderer
}

func newHandlers(deps Deps, renderer *Renderer) *Handlers {
	changes := deps.Changes
	if changes == nil {
		changes = NewChanges()
	}
	return &Handlers{eng: deps.Engine, changes: changes, renderer: renderer}
}

func (h *Handlers) page(title, nav string) PageData {
	return PageData{
		Title:   title,
		Version: h.renderer.version,
		Nav:     nav,
		Change:  h.changes.Version(),
	}
}

// HandleList handles GET /pockets.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result := ops.List(h.eng)

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: h.page("Pockets", "pockets"),
		Items:    result.Pockets,
	})
}

// HandleDetail handles GET /pockets/{id}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("pocket ID is required"))
		return
	}

	out, err := ops.Show(r.Context(), h.eng, nil, ops.ShowInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}

	p := h.eng.Pocket(id)
	if p == nil {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}
	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData:     h.page(p.Label, "pockets"),
		Pocket:       p,
		RenderedHTML: renderMarkdown(out.Markdown),
		Flash:        r.URL.Query().Get("flash"),
	})
}

// HandleRestore handles POST /pockets/{id}/restore.
func (h *Handlers) HandleRestore(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	out, err := ops.Restore(r.Context(), h.eng, nil, ops.RestoreInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out.Report)
		return
	}

	flash := "Opened " + plural(out.Report.Opened, "file", "files")
	if n := len(out.Report.Failed); n > 0 {
		flash += ", " + strconv.Itoa(n) + " failed"
	}
	http.Redirect(w, r, "/pockets/"+id+"?flash="+url.QueryEscape(flash), http.StatusSeeOther)
}

// HandleRename handles POST /pockets/{id}/rename with form field "name".
func (h *Handlers) HandleRename(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	id := r.PathValue("id")
	name := r.FormValue("name")
	if name == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("name is required"))
		return
	}

	out, err := ops.Rename(r.Context(), h.eng, nil, ops.RenameInput{ID: id, NewName: name})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	http.Redirect(w, r, "/pockets/"+id, http.StatusSeeOther)
}

// HandleDelete handles DELETE /pockets/{id} and POST /pockets/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.eng.Pocket(id) == nil {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	out, err := ops.Remove(r.Context(), h.eng, nil, ops.RemoveInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/pockets")
		w.WriteHeader(http.StatusOK)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	http.Redirect(w, r, "/pockets", http.StatusSeeOther)
}

// HandleChanges handles GET /api/changes?since=N. It answers as soon as the
// model version differs from since, or with the same version after a timeout.
func (h *Handlers) HandleChanges(w http.ResponseWriter, r *http.Request) {
	since, err := strconv.ParseUint(r.URL.Query().Get("since"), 10, 64)
	if err != nil {
		renderJSON(w, http.StatusOK, map[string]any{"version": h.changes.Version()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), changesTimeout)
	defer cancel()
	renderJSON(w, http.StatusOK, map[string]any{"version": h.changes.Wait(ctx, since)})
}
