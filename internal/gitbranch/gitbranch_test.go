package gitbranch

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pockets/internal/host"
)

func TestParseRefs(t *testing.T) {
	out := "refs/heads/main\tabc1234\n" +
		"refs/remotes/origin/HEAD\tabc1234\n" +
		"refs/remotes/origin/main\tabc1234\n" +
		"refs/heads/feature/x\tdef5678\n" +
		"refs/remotes/upstream/dev\t0000001\n" +
		"refs/tags/v1\t1111111\n"

	got := parseRefs(out)
	require.Equal(t, []host.Branch{
		{Name: "main", Commit: "abc1234"},
		{Name: "feature/x", Commit: "def5678"},
		{Name: "origin/main", Commit: "abc1234", Remote: true},
		{Name: "upstream/dev", Commit: "0000001", Remote: true},
	}, got)

	require.Empty(t, parseRefs(""))
}

// setupTestRepo creates a git repository with one commit on main.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	runGitCmd(t, dir, "init", "-q")
	runGitCmd(t, dir, "checkout", "-q", "-b", "main")
	runGitCmd(t, dir, "config", "user.name", "Test User")
	runGitCmd(t, dir, "config", "user.email", "test@example.com")
	runGitCmd(t, dir, "commit", "-q", "--allow-empty", "-m", "init")
	return dir
}

func runGitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\nOutput: %s", args, err, string(output))
	}
}

func TestSource_ListAndCurrent(t *testing.T) {
	dir := setupTestRepo(t)
	runGitCmd(t, dir, "branch", "feature")
	ctx := context.Background()

	s := New(dir, nil)

	current, err := s.CurrentBranch(ctx)
	require.NoError(t, err)
	require.Equal(t, "main", current)

	branches, err := s.ListBranches(ctx)
	require.NoError(t, err)
	var names []string
	for _, b := range branches {
		names = append(names, b.Name)
		require.NotEmpty(t, b.Commit)
	}
	require.ElementsMatch(t, []string{"main", "feature"}, names)
}

func TestSource_DetachedHead(t *testing.T) {
	dir := setupTestRepo(t)
	runGitCmd(t, dir, "checkout", "-q", "--detach")

	current, err := New(dir, nil).CurrentBranch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "", current)
}

func TestSource_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	_, err := New(t.TempDir(), nil).ListBranches(context.Background())
	require.Error(t, err)
}

func TestSource_OnBranchChanged(t *testing.T) {
	dir := setupTestRepo(t)
	runGitCmd(t, dir, "branch", "feature")

	s := New(dir, nil)
	var mu sync.Mutex
	var seen []string
	cancel := s.OnBranchChanged(func(b string) {
		mu.Lock()
		seen = append(seen, b)
		mu.Unlock()
	})
	defer cancel()

	runGitCmd(t, dir, "checkout", "-q", "feature")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	require.Equal(t, "feature", seen[0])
	mu.Unlock()
}
