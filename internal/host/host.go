// Package host defines the ports through which pockets talks to the editor,
// its storage, the user, and version control.
package host

import "context"

// GroupHandle identifies a live editor group (view column). Zero means
// "no particular group"; handles are 1-based.
type GroupHandle int

// TabKind classifies what a tab shows.
type TabKind string

const (
	// TabText is a plain text document backed by a file. Only these are captured.
	TabText TabKind = "text"
	// TabOther covers diffs, previews, terminals and similar.
	TabOther TabKind = "other"
)

// Tab is one open tab in an editor group.
type Tab struct {
	Kind  TabKind `json:"kind"`
	Path  string  `json:"path,omitempty"`
	Label string  `json:"label,omitempty"`
}

// TabGroup is a live editor group with its tabs in display order.
type TabGroup struct {
	Handle GroupHandle `json:"handle"`
	Tabs   []Tab       `json:"tabs"`
}

// Target says where a document should open.
// The zero value means the host's default group.
type Target struct {
	Group    GroupHandle
	NewGroup bool // open in a new group placed right after Group
}

// TabInspector reads the editor's live tab layout.
type TabInspector interface {
	ListGroups(ctx context.Context) ([]TabGroup, error)
	// ActiveGroup reports the focused group; ok is false when nothing is focused.
	ActiveGroup(ctx context.Context) (handle GroupHandle, ok bool, err error)
}

// DocumentOpener opens and closes documents in the editor.
type DocumentOpener interface {
	// Open shows path (non-preview) and returns the group it landed in.
	Open(ctx context.Context, path string, target Target) (GroupHandle, error)
	CloseAll(ctx context.Context) error
}

// Editor is the combined editor surface.
type Editor interface {
	TabInspector
	DocumentOpener
}

// Option is one entry of a pick list.
type Option struct {
	Label       string
	Description string
	Value       string
}

// Prompter asks the user for input. ok=false means the user cancelled.
type Prompter interface {
	TextInput(ctx context.Context, placeholder, value string) (text string, ok bool, err error)
	Pick(ctx context.Context, options []Option, placeholder string) (choice Option, ok bool, err error)
}

// StateStore is a per-workspace key/value store.
type StateStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Branch is a version-control branch as listed to the user.
type Branch struct {
	Name   string `json:"name"`
	Commit string `json:"commit,omitempty"`
	Remote bool   `json:"remote,omitempty"`
}

// BranchSource lists branches and reports checkouts.
type BranchSource interface {
	ListBranches(ctx context.Context) ([]Branch, error)
	CurrentBranch(ctx context.Context) (string, error)
	// OnBranchChanged registers fn; the returned func unregisters it.
	OnBranchChanged(fn func(branch string)) (cancel func())
}

// Notifier is told when the pocket model changed so views can re-query it.
type Notifier interface {
	ModelChanged()
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func()

// ModelChanged calls f.
func (f NotifierFunc) ModelChanged() { f() }

// Notifiers fans a change out to several notifiers.
type Notifiers []Notifier

// ModelChanged notifies every non-nil member in order.
func (ns Notifiers) ModelChanged() {
	for _, n := range ns {
		if n != nil {
			n.ModelChanged()
		}
	}
}

// NopNotifier ignores change notifications.
var NopNotifier Notifier = NotifierFunc(func() {})
