package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host/hosttest"
)

func TestLinkBranch_Prompted(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	ps := fx.create(t, "Feature A")
	branches := hosttest.NewBranchSource("main", "dev")

	prompter := hosttest.NewPrompter(
		hosttest.PromptReply{Choice: "dev"},
		hosttest.PromptReply{Choice: "yes"},
	)
	out, err := LinkBranch(ctx, fx.engine, prompter, branches, LinkBranchInput{ID: ps[0].ID})
	require.NoError(t, err)
	require.Equal(t, "dev", out.Branch)
	require.True(t, out.AutoCloseOthers)

	require.Len(t, prompter.Offered, 2)
	require.Equal(t, "main", prompter.Offered[0][0].Label)
	require.Equal(t, "0000001", prompter.Offered[0][0].Description)

	p := fx.engine.Pocket(ps[0].ID)
	require.Equal(t, "dev", p.Branch)
	require.True(t, p.AutoCloseOthers)
	require.Equal(t, ps[0].ID, fx.engine.Branches()["dev"])
}

func TestLinkBranch_Explicit(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	ps := fx.create(t, "A", "B")
	no := false

	_, err := LinkBranch(ctx, fx.engine, nil, nil, LinkBranchInput{Name: "A", Branch: "main", AutoCloseOthers: &no})
	require.NoError(t, err)
	_, err = LinkBranch(ctx, fx.engine, nil, nil, LinkBranchInput{Name: "B", Branch: "main", AutoCloseOthers: &no})
	require.NoError(t, err)

	require.Equal(t, "", fx.engine.Pocket(ps[0].ID).Branch)
	require.Equal(t, "main", fx.engine.Pocket(ps[1].ID).Branch)
}

func TestLinkBranch_Cancelled(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	ps := fx.create(t, "A")
	branches := hosttest.NewBranchSource("main")
	sets := fx.store.Sets

	out, err := LinkBranch(ctx, fx.engine, hosttest.NewPrompter(hosttest.PromptReply{Cancel: true}), branches, LinkBranchInput{ID: ps[0].ID})
	require.NoError(t, err)
	require.True(t, out.Cancelled)

	out, err = LinkBranch(ctx, fx.engine, hosttest.NewPrompter(
		hosttest.PromptReply{Choice: "main"},
		hosttest.PromptReply{Cancel: true},
	), branches, LinkBranchInput{ID: ps[0].ID})
	require.NoError(t, err)
	require.True(t, out.Cancelled)

	require.Equal(t, sets, fx.store.Sets)
	require.Empty(t, fx.engine.Branches())
}

func TestLinkBranch_NoBranchSource(t *testing.T) {
	fx := newFixture(t)
	ps := fx.create(t, "A")
	_, err := LinkBranch(context.Background(), fx.engine, hosttest.NewPrompter(), nil, LinkBranchInput{ID: ps[0].ID})
	require.True(t, errors.Is(err, errors.ErrHostUnavailable))
}

func TestUnlinkBranch(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	ps := fx.create(t, "A")
	yes := true
	_, err := LinkBranch(ctx, fx.engine, nil, nil, LinkBranchInput{ID: ps[0].ID, Branch: "main", AutoCloseOthers: &yes})
	require.NoError(t, err)

	out, err := UnlinkBranch(ctx, fx.engine, nil, UnlinkBranchInput{Name: "A"})
	require.NoError(t, err)
	require.True(t, out.Unlinked)
	require.Equal(t, "main", out.Branch)
	require.Empty(t, fx.engine.Branches())

	out, err = UnlinkBranch(ctx, fx.engine, nil, UnlinkBranchInput{Name: "A"})
	require.NoError(t, err)
	require.False(t, out.Unlinked)
}
