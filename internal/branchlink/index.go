// Package branchlink maps version-control branches to pockets and restores
// the linked pocket when the branch changes.
package branchlink

import (
	"sync"

	"github.com/hpungsan/pockets/internal/pocket"
)

// Index caches branch -> pocket id. Pocket.Branch is authoritative;
// the index is rebuilt from it after every load or import.
type Index struct {
	mu       sync.RWMutex
	byBranch map[string]string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byBranch: map[string]string{}}
}

// Rebuild replaces the index from the forest. When several pockets claim the
// same branch the first one keeps it; the others have Branch cleared and are
// returned so the caller can persist the repair.
func (x *Index) Rebuild(f *pocket.Forest) (cleared []*pocket.Pocket) {
	m := make(map[string]string, len(f.Pockets))
	for _, p := range f.Pockets {
		if p.Branch == "" {
			continue
		}
		if _, taken := m[p.Branch]; taken {
			p.Branch = ""
			cleared = append(cleared, p)
			continue
		}
		m[p.Branch] = p.ID
	}

	x.mu.Lock()
	x.byBranch = m
	x.mu.Unlock()
	return cleared
}

// Lookup returns the pocket id linked to branch.
func (x *Index) Lookup(branch string) (string, bool) {
	if branch == "" {
		return "", false
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	id, ok := x.byBranch[branch]
	return id, ok
}

// Set links branch to pocketID, replacing any previous owner.
func (x *Index) Set(branch, pocketID string) {
	if branch == "" {
		return
	}
	x.mu.Lock()
	x.byBranch[branch] = pocketID
	x.mu.Unlock()
}

// Delete removes the entry for branch.
func (x *Index) Delete(branch string) {
	x.mu.Lock()
	delete(x.byBranch, branch)
	x.mu.Unlock()
}

// ForgetPocket removes every entry pointing at pocketID.
func (x *Index) ForgetPocket(pocketID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for b, id := range x.byBranch {
		if id == pocketID {
			delete(x.byBranch, b)
		}
	}
}

// Snapshot returns a copy of the mapping.
func (x *Index) Snapshot() map[string]string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make(map[string]string, len(x.byBranch))
	for b, id := range x.byBranch {
		out[b] = id
	}
	return out
}

// Restore replaces the mapping with m (used to roll back a failed mutation).
func (x *Index) Restore(m map[string]string) {
	cp := make(map[string]string, len(m))
	for b, id := range m {
		cp[b] = id
	}
	x.mu.Lock()
	x.byBranch = cp
	x.mu.Unlock()
}

// Len reports the number of linked branches.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byBranch)
}
