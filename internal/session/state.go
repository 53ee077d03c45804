// Package session implements the editor ports over a session file that
// describes the editor's groups and open tabs.
package session

import (
	"path/filepath"

	"github.com/hpungsan/pockets/internal/host"
)

// Group is one editor group in the session file. Handles are 1-based
// positions and are renumbered whenever a group is inserted.
type Group struct {
	Handle host.GroupHandle `json:"handle"`
	Tabs   []host.Tab       `json:"tabs"`
}

// State is the editor layout: groups left to right plus the focused group.
type State struct {
	Active host.GroupHandle `json:"active"`
	Groups []Group          `json:"groups"`
}

// ListGroups returns a copy of the groups as host tab groups.
func (s *State) ListGroups() []host.TabGroup {
	out := make([]host.TabGroup, len(s.Groups))
	for i, g := range s.Groups {
		tabs := make([]host.Tab, len(g.Tabs))
		copy(tabs, g.Tabs)
		out[i] = host.TabGroup{Handle: g.Handle, Tabs: tabs}
	}
	return out
}

// ActiveGroup reports the focused group if it still exists.
func (s *State) ActiveGroup() (host.GroupHandle, bool) {
	if s.Active == 0 || s.group(s.Active) == nil {
		return 0, false
	}
	return s.Active, true
}

// Open places path in the group chosen by target and focuses it.
// A path already open in that group is focused rather than duplicated.
func (s *State) Open(path string, target host.Target) host.GroupHandle {
	s.renumber()

	var dest int
	switch {
	case target.NewGroup:
		after := len(s.Groups)
		if target.Group > 0 && int(target.Group) <= len(s.Groups) {
			after = int(target.Group)
		}
		s.Groups = append(s.Groups, Group{})
		copy(s.Groups[after+1:], s.Groups[after:])
		s.Groups[after] = Group{}
		dest = after
		s.renumber()
	case target.Group > 0 && int(target.Group) <= len(s.Groups):
		dest = int(target.Group) - 1
	default:
		if active, ok := s.ActiveGroup(); ok {
			dest = int(active) - 1
		} else {
			if len(s.Groups) == 0 {
				s.Groups = []Group{{}}
				s.renumber()
			}
			dest = 0
		}
	}

	g := &s.Groups[dest]
	found := false
	for _, t := range g.Tabs {
		if t.Kind == host.TabText && t.Path == path {
			found = true
			break
		}
	}
	if !found {
		g.Tabs = append(g.Tabs, host.Tab{Kind: host.TabText, Path: path, Label: filepath.Base(path)})
	}
	s.Active = g.Handle
	return g.Handle
}

// CloseAll closes every tab, leaving one empty focused group.
func (s *State) CloseAll() {
	s.Groups = []Group{{Handle: 1}}
	s.Active = 1
}

func (s *State) group(h host.GroupHandle) *Group {
	for i := range s.Groups {
		if s.Groups[i].Handle == h {
			return &s.Groups[i]
		}
	}
	return nil
}

// renumber makes handles positional and keeps Active pointing at the same group.
func (s *State) renumber() {
	active := s.Active
	s.Active = 0
	for i := range s.Groups {
		if s.Groups[i].Handle == active && s.Active == 0 {
			s.Active = host.GroupHandle(i + 1)
		}
		s.Groups[i].Handle = host.GroupHandle(i + 1)
	}
}
