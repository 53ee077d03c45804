// Package hosttest provides in-memory fakes of the host ports for tests.
package hosttest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hpungsan/pockets/internal/host"
	"github.com/hpungsan/pockets/internal/session"
)

// OpenCall records one Editor.Open invocation.
type OpenCall struct {
	Path   string
	Target host.Target
	Landed host.GroupHandle
	Err    error
}

// Editor is an in-memory editor sharing the session file's layout rules.
type Editor struct {
	mu sync.Mutex

	state session.State

	// Missing paths fail to open.
	Missing map[string]bool
	// CloseAllErr is returned by CloseAll when set (tabs stay open).
	CloseAllErr error
	// ListErr is returned by ListGroups when set.
	ListErr error

	Opens     []OpenCall
	CloseAlls int
}

var _ host.Editor = (*Editor)(nil)

// NewEditor returns an editor with no groups and nothing focused.
func NewEditor() *Editor {
	return &Editor{Missing: map[string]bool{}}
}

// SetLayout replaces the layout. Each inner slice is one group of text tabs;
// active is the 1-based focused group (0 for none).
func (e *Editor) SetLayout(active int, groups ...[]string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = session.State{Active: host.GroupHandle(active)}
	for i, paths := range groups {
		g := session.Group{Handle: host.GroupHandle(i + 1)}
		for _, p := range paths {
			g.Tabs = append(g.Tabs, host.Tab{Kind: host.TabText, Path: p})
		}
		e.state.Groups = append(e.state.Groups, g)
	}
}

// AddTab appends a tab of any kind to a 1-based group.
func (e *Editor) AddTab(group int, tab host.Tab) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Groups[group-1].Tabs = append(e.state.Groups[group-1].Tabs, tab)
}

// Layout returns the text tab paths of each group.
func (e *Editor) Layout() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([][]string, len(e.state.Groups))
	for i, g := range e.state.Groups {
		out[i] = []string{}
		for _, t := range g.Tabs {
			if t.Kind == host.TabText {
				out[i] = append(out[i], t.Path)
			}
		}
	}
	return out
}

func (e *Editor) ListGroups(ctx context.Context) ([]host.TabGroup, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ListErr != nil {
		return nil, e.ListErr
	}
	return e.state.ListGroups(), nil
}

func (e *Editor) ActiveGroup(ctx context.Context) (host.GroupHandle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.state.ActiveGroup()
	return h, ok, nil
}

func (e *Editor) Open(ctx context.Context, path string, target host.Target) (host.GroupHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	call := OpenCall{Path: path, Target: target}
	if e.Missing[path] {
		call.Err = fmt.Errorf("open %s: file does not exist", path)
		e.Opens = append(e.Opens, call)
		return 0, call.Err
	}
	call.Landed = e.state.Open(path, target)
	e.Opens = append(e.Opens, call)
	return call.Landed, nil
}

func (e *Editor) CloseAll(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CloseAlls++
	if e.CloseAllErr != nil {
		return e.CloseAllErr
	}
	e.state.CloseAll()
	return nil
}

// PromptReply is one scripted answer. Cancel makes the prompt report cancellation.
type PromptReply struct {
	Text   string
	Choice string // matched against Option.Value, then Option.Label
	Cancel bool
}

// Prompter replays scripted replies in order and records what was asked.
type Prompter struct {
	mu      sync.Mutex
	Replies []PromptReply

	Asked   []string
	Offered [][]host.Option
}

var _ host.Prompter = (*Prompter)(nil)

// ErrNoReply is returned when the script runs out.
var ErrNoReply = errors.New("hosttest: no scripted reply")

// NewPrompter returns a prompter answering with replies.
func NewPrompter(replies ...PromptReply) *Prompter {
	return &Prompter{Replies: replies}
}

func (p *Prompter) next() (PromptReply, error) {
	if len(p.Replies) == 0 {
		return PromptReply{}, ErrNoReply
	}
	r := p.Replies[0]
	p.Replies = p.Replies[1:]
	return r, nil
}

func (p *Prompter) TextInput(ctx context.Context, placeholder, value string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Asked = append(p.Asked, placeholder)

	r, err := p.next()
	if err != nil {
		return "", false, err
	}
	if r.Cancel {
		return "", false, nil
	}
	return r.Text, true, nil
}

func (p *Prompter) Pick(ctx context.Context, options []host.Option, placeholder string) (host.Option, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Asked = append(p.Asked, placeholder)
	p.Offered = append(p.Offered, options)

	r, err := p.next()
	if err != nil {
		return host.Option{}, false, err
	}
	if r.Cancel {
		return host.Option{}, false, nil
	}
	for _, o := range options {
		if o.Value == r.Choice {
			return o, true, nil
		}
	}
	for _, o := range options {
		if o.Label == r.Choice {
			return o, true, nil
		}
	}
	return host.Option{}, false, fmt.Errorf("hosttest: %q is not among the options", r.Choice)
}

// BranchSource is a fake version-control source driven by Checkout.
type BranchSource struct {
	mu       sync.Mutex
	Branches []host.Branch
	Current  string
	ListErr  error

	nextID    int
	listeners map[int]func(string)
}

var _ host.BranchSource = (*BranchSource)(nil)

// NewBranchSource returns a source with the named local branches; the first is current.
func NewBranchSource(names ...string) *BranchSource {
	s := &BranchSource{listeners: map[int]func(string){}}
	for i, n := range names {
		s.Branches = append(s.Branches, host.Branch{Name: n, Commit: fmt.Sprintf("%07x", i+1)})
	}
	if len(names) > 0 {
		s.Current = names[0]
	}
	return s
}

func (s *BranchSource) ListBranches(ctx context.Context) ([]host.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]host.Branch, len(s.Branches))
	copy(out, s.Branches)
	return out, nil
}

func (s *BranchSource) CurrentBranch(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Current, nil
}

func (s *BranchSource) OnBranchChanged(fn func(string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Checkout switches the current branch and notifies listeners synchronously.
func (s *BranchSource) Checkout(branch string) {
	s.mu.Lock()
	s.Current = branch
	fns := make([]func(string), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(branch)
	}
}

// MemoryStore is a host.StateStore held in memory.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte

	// SetErr is returned by Set when non-nil.
	SetErr error
	Sets   int
}

var _ host.StateStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string][]byte{}}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Sets++
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// Put seeds a raw value without counting it as a write.
func (m *MemoryStore) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
}

// Notifier counts change notifications.
type Notifier struct {
	mu    sync.Mutex
	count int
}

func (n *Notifier) ModelChanged() {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

// Reset zeroes the count.
func (n *Notifier) Reset() {
	n.mu.Lock()
	n.count = 0
	n.mu.Unlock()
}

// Count returns the number of notifications so far.
func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}
