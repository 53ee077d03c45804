package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host/hosttest"
	"github.com/hpungsan/pockets/internal/pocket"
)

const root = "/w"

type fixture struct {
	engine *engine.Engine
	store  *hosttest.MemoryStore
	editor *hosttest.Editor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		store:  hosttest.NewMemoryStore(),
		editor: hosttest.NewEditor(),
	}
	fx.engine = engine.New(engine.Options{
		Store:  fx.store,
		Editor: fx.editor,
		Root:   root,
	})
	require.NoError(t, fx.engine.Load(context.Background()))
	return fx
}

func (fx *fixture) create(t *testing.T, names ...string) []*pocket.Pocket {
	t.Helper()
	var out []*pocket.Pocket
	for _, n := range names {
		p, err := fx.engine.CreatePocket(context.Background(), n)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func (fx *fixture) labels() []string {
	var out []string
	for _, p := range fx.engine.Forest().Pockets {
		out = append(out, p.Label)
	}
	return out
}

func TestResolvePocket(t *testing.T) {
	ctx := context.Background()

	t.Run("no pockets", func(t *testing.T) {
		fx := newFixture(t)
		_, _, err := ResolvePocket(ctx, fx.engine, hosttest.NewPrompter(), "", "", "Pick")
		require.True(t, errors.Is(err, errors.ErrNoPockets))
	})

	fx := newFixture(t)
	ps := fx.create(t, "Alpha", "Beta")

	t.Run("ambiguous", func(t *testing.T) {
		_, _, err := ResolvePocket(ctx, fx.engine, nil, ps[0].ID, "Alpha", "Pick")
		require.True(t, errors.Is(err, errors.ErrAmbiguousAddressing))
	})

	t.Run("by id", func(t *testing.T) {
		p, cancelled, err := ResolvePocket(ctx, fx.engine, nil, ps[1].ID, "", "Pick")
		require.NoError(t, err)
		require.False(t, cancelled)
		require.Equal(t, "Beta", p.Label)
	})

	t.Run("by label", func(t *testing.T) {
		p, _, err := ResolvePocket(ctx, fx.engine, nil, "", "  Beta ", "Pick")
		require.NoError(t, err)
		require.Equal(t, ps[1].ID, p.ID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := ResolvePocket(ctx, fx.engine, nil, "nope", "", "Pick")
		require.True(t, errors.Is(err, errors.ErrNotFound))
		_, _, err = ResolvePocket(ctx, fx.engine, nil, "", "Gamma", "Pick")
		require.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("picked", func(t *testing.T) {
		prompter := hosttest.NewPrompter(hosttest.PromptReply{Choice: "Alpha"})
		p, cancelled, err := ResolvePocket(ctx, fx.engine, prompter, "", "", "Which?")
		require.NoError(t, err)
		require.False(t, cancelled)
		require.Equal(t, ps[0].ID, p.ID)
		require.Equal(t, []string{"Which?"}, prompter.Asked)
		require.Len(t, prompter.Offered[0], 2)
	})

	t.Run("pick dismissed", func(t *testing.T) {
		p, cancelled, err := ResolvePocket(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Cancel: true}), "", "", "Which?")
		require.NoError(t, err)
		require.True(t, cancelled)
		require.Nil(t, p)
	})

	t.Run("no prompter", func(t *testing.T) {
		_, cancelled, err := ResolvePocket(ctx, fx.engine, nil, "", "", "Which?")
		require.NoError(t, err)
		require.True(t, cancelled)
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	out, err := Create(ctx, fx.engine, nil, CreateInput{Name: "  Feature   A "})
	require.NoError(t, err)
	require.Equal(t, "Feature A", out.Pocket.Label)
	require.Equal(t, 0, out.Pocket.Compartments)

	out, err = Create(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Text: "Bugfix"}), CreateInput{})
	require.NoError(t, err)
	require.Equal(t, "Bugfix", out.Pocket.Label)
	require.Equal(t, []string{"Feature A", "Bugfix"}, fx.labels())

	sets := fx.store.Sets
	out, err = Create(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Cancel: true}), CreateInput{})
	require.NoError(t, err)
	require.True(t, out.Cancelled)
	require.Equal(t, sets, fx.store.Sets)

	_, err = Create(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Text: "   "}), CreateInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.Len(t, fx.engine.Forest().Pockets, 2)
}

func TestCreate_SaveTabs(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	_, err := Create(ctx, fx.engine, nil, CreateInput{Name: "Tabs", SaveTabs: true})
	require.True(t, errors.Is(err, errors.ErrNoActiveEditor))
	require.Empty(t, fx.engine.Forest().Pockets)

	fx.editor.SetLayout(1, []string{"/w/a.go", "/w/src/b.go"}, []string{"/w/c.go"})
	out, err := Create(ctx, fx.engine, nil, CreateInput{Name: "Tabs", SaveTabs: true})
	require.NoError(t, err)
	require.Equal(t, 2, out.Pocket.Compartments)
	require.Equal(t, 3, out.Pocket.Documents)
}

func TestSaveTabs(t *testing.T) {
	ctx := context.Background()

	t.Run("no active editor", func(t *testing.T) {
		fx := newFixture(t)
		prompter := hosttest.NewPrompter()
		_, err := SaveTabs(ctx, fx.engine, prompter, SaveTabsInput{})
		require.True(t, errors.Is(err, errors.ErrNoActiveEditor))
		require.Empty(t, prompter.Asked)
	})

	t.Run("first pocket is named", func(t *testing.T) {
		fx := newFixture(t)
		fx.editor.SetLayout(1, []string{"/w/a.go", "/w/b.go"})
		out, err := SaveTabs(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Text: "Feature A"}), SaveTabsInput{})
		require.NoError(t, err)
		require.True(t, out.Created)
		require.Equal(t, "Feature A", out.Pocket.Label)
		require.Equal(t, 2, out.Pocket.Documents)
	})

	t.Run("first pocket dismissed", func(t *testing.T) {
		fx := newFixture(t)
		fx.editor.SetLayout(1, []string{"/w/a.go"})
		out, err := SaveTabs(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Cancel: true}), SaveTabsInput{})
		require.NoError(t, err)
		require.True(t, out.Cancelled)
		require.Empty(t, fx.engine.Forest().Pockets)
		require.Equal(t, 0, fx.store.Sets)
	})

	t.Run("existing pocket picked", func(t *testing.T) {
		fx := newFixture(t)
		ps := fx.create(t, "Alpha", "Beta")
		fx.editor.SetLayout(2, []string{"/w/a.go"}, []string{"/w/b.go", "/w/c.go"})

		out, err := SaveTabs(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Choice: "Beta"}), SaveTabsInput{})
		require.NoError(t, err)
		require.False(t, out.Created)
		require.Equal(t, ps[1].ID, out.Pocket.ID)
		require.Equal(t, 3, out.Pocket.Documents)
		require.Equal(t, 0, fx.engine.Pocket(ps[0].ID).DocumentCount())
	})

	t.Run("addressed by name", func(t *testing.T) {
		fx := newFixture(t)
		fx.create(t, "Alpha")
		fx.editor.SetLayout(1, []string{"/w/a.go"})
		out, err := SaveTabs(ctx, fx.engine, nil, SaveTabsInput{Name: "Alpha"})
		require.NoError(t, err)
		require.Equal(t, 1, out.Pocket.Documents)
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.editor.SetLayout(1, []string{"/w/a.go"}, []string{"/w/b.go"})
	_, err := Create(ctx, fx.engine, nil, CreateInput{Name: "Feature A", SaveTabs: true})
	require.NoError(t, err)
	fx.editor.SetLayout(0)

	out, err := Restore(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Choice: "Feature A"}), RestoreInput{})
	require.NoError(t, err)
	require.Equal(t, 2, out.Report.Opened)
	require.Equal(t, [][]string{{"/w/a.go"}, {"/w/b.go"}}, fx.editor.Layout())

	out, err = Restore(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Cancel: true}), RestoreInput{})
	require.NoError(t, err)
	require.True(t, out.Cancelled)
	require.Nil(t, out.Report)
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.editor.SetLayout(1, []string{"/w/a.go"})
	created, err := Create(ctx, fx.engine, nil, CreateInput{Name: "Old", SaveTabs: true})
	require.NoError(t, err)
	p := fx.engine.Pocket(created.Pocket.ID)

	out, err := Rename(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Text: "New"}), RenameInput{Name: "Old"})
	require.NoError(t, err)
	require.Equal(t, "New", out.Label)
	require.Equal(t, "New", fx.engine.Pocket(p.ID).Label)

	out, err = Rename(ctx, fx.engine, nil, RenameInput{ID: p.Compartments[0].ID, NewName: "Left"})
	require.NoError(t, err)
	require.Equal(t, "Left", fx.engine.Pocket(p.ID).Compartments[0].Label)

	_, err = Rename(ctx, fx.engine, nil, RenameInput{ID: p.Compartments[0].Documents[0].ID, NewName: "x"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	out, err = Rename(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Cancel: true}), RenameInput{ID: p.ID})
	require.NoError(t, err)
	require.True(t, out.Cancelled)
	require.Equal(t, "New", fx.engine.Pocket(p.ID).Label)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.editor.SetLayout(1, []string{"/w/a.go", "/w/b.go"})
	created, err := Create(ctx, fx.engine, nil, CreateInput{Name: "Tabs", SaveTabs: true})
	require.NoError(t, err)
	fx.create(t, "Other")
	p := fx.engine.Pocket(created.Pocket.ID)

	out, err := Remove(ctx, fx.engine, nil, RemoveInput{ID: p.Compartments[0].Documents[0].ID})
	require.NoError(t, err)
	require.True(t, out.Removed)
	require.Equal(t, "document", out.Kind)
	require.Equal(t, 1, fx.engine.Pocket(p.ID).DocumentCount())

	out, err = Remove(ctx, fx.engine, nil, RemoveInput{Name: "Tabs"})
	require.NoError(t, err)
	require.True(t, out.Removed)
	require.Equal(t, []string{"Other"}, fx.labels())

	_, err = Remove(ctx, fx.engine, nil, RemoveInput{ID: p.ID})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	ps := fx.create(t, "A", "B", "C")

	zero := 0
	out, err := Move(ctx, fx.engine, MoveInput{ID: ps[2].ID, Index: &zero})
	require.NoError(t, err)
	require.True(t, out.Moved)
	require.Equal(t, []string{"C", "A", "B"}, fx.labels())

	out, err = Move(ctx, fx.engine, MoveInput{ID: ps[2].ID})
	require.NoError(t, err)
	require.True(t, out.Moved)
	require.Equal(t, []string{"A", "B", "C"}, fx.labels())

	_, err = Move(ctx, fx.engine, MoveInput{ID: ps[0].ID, TargetID: "nope"})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = Move(ctx, fx.engine, MoveInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	out, err = Move(ctx, fx.engine, MoveInput{ID: ps[0].ID, TargetID: ps[0].ID})
	require.NoError(t, err)
	require.False(t, out.Moved)
}

func TestListAndShow(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	require.Equal(t, 0, List(fx.engine).Total)

	fx.editor.SetLayout(1, []string{"/w/src/a.go", "/w/README.md"}, []string{})
	_, err := Create(ctx, fx.engine, nil, CreateInput{Name: "Feature A", SaveTabs: true})
	require.NoError(t, err)
	fx.create(t, "Empty")

	list := List(fx.engine)
	require.Equal(t, 2, list.Total)
	require.Equal(t, "Feature A", list.Pockets[0].Label)
	require.Equal(t, 2, list.Pockets[0].Documents)
	require.Equal(t, 2, list.Pockets[0].Compartments)

	show, err := Show(ctx, fx.engine, nil, ShowInput{Name: "Feature A"})
	require.NoError(t, err)
	require.Equal(t, []string{"/w/src/a.go", "/w/README.md"}, show.Pocket.Compartments[0].Documents)
	require.Contains(t, show.Markdown, "# Feature A\n")
	require.Contains(t, show.Markdown, "## Group 1\n")
	require.Contains(t, show.Markdown, "- `a.go` src\n")
	require.Contains(t, show.Markdown, "- `README.md`\n")
	require.Contains(t, show.Markdown, "## Group 2\n\n_No files._")

	show, err = Show(ctx, fx.engine, nil, ShowInput{Name: "Empty"})
	require.NoError(t, err)
	require.Contains(t, show.Markdown, "_Empty pocket._")
}
