// Package gitbranch implements host.BranchSource with the git CLI and an
// fsnotify watch on the repository's git directory.
package gitbranch

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/host"
)

const gitTimeout = 5 * time.Second

// Source lists and watches branches of the repository containing dir.
type Source struct {
	dir    string
	logger *slog.Logger

	mu        sync.Mutex
	listeners map[int]func(string)
	nextID    int
	watcher   *fsnotify.Watcher
	stop      chan struct{}
	done      chan struct{}
	last      string
}

var _ host.BranchSource = (*Source)(nil)

// New returns a source for the repository containing dir.
func New(dir string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{dir: dir, logger: logger, listeners: map[int]func(string){}}
}

// git runs a git subcommand in the source directory and returns trimmed stdout.
func (s *Source) git(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", s.dir}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if stderrors.Is(err, exec.ErrNotFound) {
			return "", errors.NewHostUnavailable("git", err)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ListBranches returns local branches followed by remote-tracking branches,
// each with its abbreviated commit hash. Symbolic remote HEADs are skipped.
func (s *Source) ListBranches(ctx context.Context) ([]host.Branch, error) {
	out, err := s.git(ctx, "for-each-ref", "--format=%(refname)%09%(objectname:short)", "refs/heads", "refs/remotes")
	if err != nil {
		return nil, err
	}
	return parseRefs(out), nil
}

func parseRefs(out string) []host.Branch {
	var local, remote []host.Branch
	for _, line := range strings.Split(out, "\n") {
		ref, commit, _ := strings.Cut(strings.TrimSpace(line), "\t")
		switch {
		case strings.HasPrefix(ref, "refs/heads/"):
			local = append(local, host.Branch{Name: strings.TrimPrefix(ref, "refs/heads/"), Commit: commit})
		case strings.HasPrefix(ref, "refs/remotes/"):
			name := strings.TrimPrefix(ref, "refs/remotes/")
			if strings.HasSuffix(name, "/HEAD") {
				continue
			}
			remote = append(remote, host.Branch{Name: name, Commit: commit, Remote: true})
		}
	}
	return append(local, remote...)
}

// CurrentBranch returns the checked-out branch, or "" when HEAD is detached.
func (s *Source) CurrentBranch(ctx context.Context) (string, error) {
	out, err := s.git(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// GitDir returns the absolute git directory of the repository.
func (s *Source) GitDir(ctx context.Context) (string, error) {
	return s.git(ctx, "rev-parse", "--absolute-git-dir")
}

// OnBranchChanged registers fn to be called with the new branch name after a
// checkout. The git directory is watched while at least one listener exists.
func (s *Source) OnBranchChanged(fn func(string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	start := s.watcher == nil
	s.mu.Unlock()

	if start {
		if err := s.startWatch(); err != nil {
			s.logger.Warn("branch watch unavailable", "dir", s.dir, "error", err)
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			empty := len(s.listeners) == 0
			s.mu.Unlock()
			if empty {
				s.Close()
			}
		})
	}
}

func (s *Source) startWatch() error {
	ctx := context.Background()
	gitDir, err := s.GitDir(ctx)
	if err != nil {
		return err
	}
	current, err := s.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(gitDir); err != nil {
		w.Close()
		return err
	}

	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		w.Close()
		return nil
	}
	s.watcher = w
	s.last = current
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go s.watch(w, stop, done)
	s.logger.Debug("watching branch changes", "git_dir", gitDir, "branch", current)
	return nil
}

func (s *Source) watch(w *fsnotify.Watcher, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != "HEAD" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.checkHead()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Error("branch watcher error", "error", err)
		}
	}
}

// checkHead emits the current branch when it differs from the last one seen.
func (s *Source) checkHead() {
	branch, err := s.CurrentBranch(context.Background())
	if err != nil {
		s.logger.Warn("reading current branch failed", "error", err)
		return
	}

	s.mu.Lock()
	if branch == s.last {
		s.mu.Unlock()
		return
	}
	s.last = branch
	fns := make([]func(string), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if branch == "" {
		return
	}
	for _, fn := range fns {
		fn(branch)
	}
}

// Close stops watching. Listeners stay registered but receive nothing.
func (s *Source) Close() error {
	s.mu.Lock()
	w, stop, done := s.watcher, s.stop, s.done
	s.watcher, s.stop, s.done = nil, nil, nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	close(stop)
	<-done
	return w.Close()
}
