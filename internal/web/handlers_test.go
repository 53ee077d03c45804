package web

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/host/hosttest"
	"github.com/hpungsan/pockets/internal/pocket"
)

type testEnv struct {
	h       *Handlers
	eng     *engine.Engine
	editor  *hosttest.Editor
	changes *Changes
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	changes := NewChanges()
	editor := hosttest.NewEditor()
	eng := engine.New(engine.Options{
		Store:    hosttest.NewMemoryStore(),
		Editor:   editor,
		Notifier: changes,
		Root:     "/w",
	})
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}
	deps := Deps{Engine: eng, Changes: changes}
	return &testEnv{
		h:       newHandlers(deps, NewRenderer(templateSub, "test", nil)),
		eng:     eng,
		editor:  editor,
		changes: changes,
	}
}

// seedPocket creates a pocket holding one group with the given files.
func seedPocket(t *testing.T, env *testEnv, label string, files ...string) *pocket.Pocket {
	t.Helper()
	env.editor.SetLayout(1, files)
	p, err := env.eng.CreateFromTabs(context.Background(), label)
	if err != nil {
		t.Fatalf("seed pocket %q: %v", label, err)
	}
	return p
}

func serve(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// --- HandleList ---

func TestHandleList(t *testing.T) {
	env := setupTest(t)
	seedPocket(t, env, "Feature A", "/w/src/a.go", "/w/src/b.go")

	rec := serve(env.h.HandleList, httptest.NewRequest("GET", "/pockets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Feature A") {
		t.Error("expected pocket label in response")
	}
	if !strings.Contains(body, "2 files") {
		t.Error("expected document count in response")
	}
	if !strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("full request should render the layout")
	}
}

func TestHandleList_Empty(t *testing.T) {
	env := setupTest(t)

	rec := serve(env.h.HandleList, httptest.NewRequest("GET", "/pockets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No pockets yet") {
		t.Error("expected empty state message")
	}
}

func TestHandleList_PartialReturnsContentOnly(t *testing.T) {
	env := setupTest(t)
	seedPocket(t, env, "partial-test", "/w/a.go")

	req := httptest.NewRequest("GET", "/pockets", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve(env.h.HandleList, req)

	body := rec.Body.String()
	if strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("partial response should not contain full layout")
	}
	if !strings.Contains(body, "partial-test") {
		t.Error("partial response should contain pocket data")
	}
}

func TestHandleList_JSON(t *testing.T) {
	env := setupTest(t)
	seedPocket(t, env, "Alpha", "/w/a.go")

	req := httptest.NewRequest("GET", "/pockets", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(env.h.HandleList, req)

	var out struct {
		Pockets []struct {
			Label     string `json:"label"`
			Documents int    `json:"documents"`
		} `json:"pockets"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 1 || out.Pockets[0].Label != "Alpha" || out.Pockets[0].Documents != 1 {
		t.Errorf("unexpected list: %+v", out)
	}
}

// --- HandleDetail ---

func TestHandleDetail(t *testing.T) {
	env := setupTest(t)
	p := seedPocket(t, env, "Feature A", "/w/src/a.go")

	req := httptest.NewRequest("GET", "/pockets/"+p.ID, nil)
	req.SetPathValue("id", p.ID)
	rec := serve(env.h.HandleDetail, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Feature A</h1>") {
		t.Error("expected rendered outline heading")
	}
	if !strings.Contains(body, "<code>a.go</code>") {
		t.Error("expected document label in outline")
	}
	if !strings.Contains(body, "/pockets/"+p.ID+"/restore") {
		t.Error("expected restore action")
	}
}

func TestHandleDetail_EscapesLabel(t *testing.T) {
	env := setupTest(t)
	p := seedPocket(t, env, "<script>alert(1)</script>", "/w/a.go")

	req := httptest.NewRequest("GET", "/pockets/"+p.ID, nil)
	req.SetPathValue("id", p.ID)
	rec := serve(env.h.HandleDetail, req)

	if strings.Contains(rec.Body.String(), "<script>alert(1)</script>") {
		t.Error("label must not be rendered as raw HTML")
	}
}

func TestHandleDetail_NotFound(t *testing.T) {
	env := setupTest(t)

	req := httptest.NewRequest("GET", "/pockets/nope", nil)
	req.SetPathValue("id", "nope")
	rec := serve(env.h.HandleDetail, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error-message") {
		t.Error("expected error page")
	}
}

func TestHandleDetail_NotFoundJSON(t *testing.T) {
	env := setupTest(t)

	req := httptest.NewRequest("GET", "/pockets/nope", nil)
	req.SetPathValue("id", "nope")
	req.Header.Set("Accept", "application/json")
	rec := serve(env.h.HandleDetail, req)

	var out struct {
		Error struct {
			Code   string `json:"code"`
			Status int    `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error.Code != "NOT_FOUND" || out.Error.Status != http.StatusNotFound {
		t.Errorf("unexpected error: %+v", out.Error)
	}
}

// --- HandleRestore ---

func TestHandleRestore(t *testing.T) {
	env := setupTest(t)
	p := seedPocket(t, env, "Feature A", "/w/a.go", "/w/b.go")

	req := httptest.NewRequest("POST", "/pockets/"+p.ID+"/restore", nil)
	req.SetPathValue("id", p.ID)
	rec := serve(env.h.HandleRestore, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != "/pockets/"+p.ID {
		t.Errorf("redirect path = %q", loc.Path)
	}
	if got := loc.Query().Get("flash"); got != "Opened 2 files" {
		t.Errorf("flash = %q", got)
	}
	if len(env.editor.Opens) != 2 {
		t.Errorf("opened %d documents, want 2", len(env.editor.Opens))
	}
}

func TestHandleRestore_JSON(t *testing.T) {
	env := setupTest(t)
	p := seedPocket(t, env, "Feature A", "/w/a.go")

	req := httptest.NewRequest("POST", "/pockets/"+p.ID+"/restore", nil)
	req.SetPathValue("id", p.ID)
	req.Header.Set("Accept", "application/json")
	rec := serve(env.h.HandleRestore, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var report engine.RestoreReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.PocketID != p.ID || report.Opened != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
}

// --- HandleRename ---

func TestHandleRename(t *testing.T) {
	env := setupTest(t)
	p := seedPocket(t, env, "Old", "/w/a.go")

	form := url.Values{"name": {"  New   name "}}
	req := httptest.NewRequest("POST", "/pockets/"+p.ID+"/rename", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetPathValue("id", p.ID)
	rec := serve(env.h.HandleRename, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if got := env.eng.Pocket(p.ID).Label; got != "New name" {
		t.Errorf("label = %q, want %q", got, "New name")
	}
}

func TestHandleRename_MissingName(t *testing.T) {
	env := setupTest(t)
	p := seedPocket(t, env, "Old", "/w/a.go")

	req := httptest.NewRequest("POST", "/pockets/"+p.ID+"/rename", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetPathValue("id", p.ID)
	rec := serve(env.h.HandleRename, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := env.eng.Pocket(p.ID).Label; got != "Old" {
		t.Errorf("label changed to %q", got)
	}
}

// --- HandleDelete ---

func TestHandleDelete(t *testing.T) {
	env := setupTest(t)
	p := seedPocket(t, env, "Doomed", "/w/a.go")

	req := httptest.NewRequest("POST", "/pockets/"+p.ID+"/delete", nil)
	req.SetPathValue("id", p.ID)
	rec := serve(env.h.HandleDelete, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if rec.Header().Get("Location") != "/pockets" {
		t.Errorf("Location = %q", rec.Header().Get("Location"))
	}
	if env.eng.Pocket(p.ID) != nil {
		t.Error("pocket still present")
	}
}

func TestHandleDelete_Partial(t *testing.T) {
	env := setupTest(t)
	p := seedPocket(t, env, "Doomed", "/w/a.go")

	req := httptest.NewRequest("DELETE", "/pockets/"+p.ID, nil)
	req.SetPathValue("id", p.ID)
	req.Header.Set("HX-Request", "true")
	rec := serve(env.h.HandleDelete, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("HX-Redirect") != "/pockets" {
		t.Errorf("HX-Redirect = %q", rec.Header().Get("HX-Redirect"))
	}
}

func TestHandleDelete_NotFound(t *testing.T) {
	env := setupTest(t)

	req := httptest.NewRequest("DELETE", "/pockets/nope", nil)
	req.SetPathValue("id", "nope")
	rec := serve(env.h.HandleDelete, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// --- HandleChanges ---

func TestHandleChanges_ReturnsWhenBehind(t *testing.T) {
	env := setupTest(t)
	seedPocket(t, env, "A", "/w/a.go")

	req := httptest.NewRequest("GET", "/api/changes?since=0", nil)
	rec := serve(env.h.HandleChanges, req)

	var out struct {
		Version uint64 `json:"version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Version != env.changes.Version() || out.Version == 0 {
		t.Errorf("version = %d, current %d", out.Version, env.changes.Version())
	}
}

func TestHandleChanges_WaitsForNextChange(t *testing.T) {
	env := setupTest(t)
	since := env.changes.Version()

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest("GET", "/api/changes?since="+strconv.FormatUint(since, 10), nil)
		done <- serve(env.h.HandleChanges, req)
	}()

	select {
	case <-done:
		t.Fatal("long-poll returned before any change")
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := env.eng.CreatePocket(context.Background(), "B"); err != nil {
		t.Fatalf("CreatePocket: %v", err)
	}

	select {
	case rec := <-done:
		var out struct {
			Version uint64 `json:"version"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.Version <= since {
			t.Errorf("version = %d, want > %d", out.Version, since)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("long-poll did not return after a change")
	}
}

func TestHandleChanges_CancelledRequest(t *testing.T) {
	env := setupTest(t)
	since := env.changes.Version()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("GET", "/api/changes?since="+strconv.FormatUint(since, 10), nil).WithContext(ctx)
	rec := serve(env.h.HandleChanges, req)

	if !strings.Contains(rec.Body.String(), `"version":`+strconv.FormatUint(since, 10)) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestChanges_Wait(t *testing.T) {
	c := NewChanges()
	c.ModelChanged()
	if got := c.Wait(context.Background(), 0); got != 1 {
		t.Errorf("Wait(0) = %d, want 1", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if got := c.Wait(ctx, 1); got != 1 {
		t.Errorf("Wait(1) after timeout = %d, want 1", got)
	}
}

// --- Server ---

func TestNewServer_Routes(t *testing.T) {
	env := setupTest(t)
	p := seedPocket(t, env, "Routed", "/w/a.go")

	srv, err := NewServer(Deps{Engine: env.eng, Changes: env.changes}, "test", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/", http.StatusFound},
		{"GET", "/pockets", http.StatusOK},
		{"GET", "/pockets/" + p.ID, http.StatusOK},
		{"GET", "/static/app.js", http.StatusOK},
		{"GET", "/static/style.css", http.StatusOK},
		{"GET", "/api/changes", http.StatusOK},
		{"PUT", "/pockets", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
		if rec.Header().Get("X-Frame-Options") != "DENY" {
			t.Errorf("%s %s missing security headers", tt.method, tt.path)
		}
	}
}
