package pocket

// Forest is the ordered list of root pockets.
type Forest struct {
	Pockets []*Pocket
}

// FindPocketByLabel returns the first pocket whose label matches exactly.
func (f *Forest) FindPocketByLabel(label string) *Pocket {
	for _, p := range f.Pockets {
		if p.Label == label {
			return p
		}
	}
	return nil
}

// FindPocketByBranch returns the pocket linked to branch, if any.
func (f *Forest) FindPocketByBranch(branch string) *Pocket {
	if branch == "" {
		return nil
	}
	for _, p := range f.Pockets {
		if p.Branch == branch {
			return p
		}
	}
	return nil
}

// FindPocket returns the root pocket with the given ID.
func (f *Forest) FindPocket(id string) *Pocket {
	for _, p := range f.Pockets {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FindNode returns the node with the given ID at any tier.
func (f *Forest) FindNode(id string) Node {
	if id == "" {
		return nil
	}
	for _, p := range f.Pockets {
		if p.ID == id {
			return p
		}
		for _, c := range p.Compartments {
			if c.ID == id {
				return c
			}
			for _, d := range c.Documents {
				if d.ID == id {
					return d
				}
			}
		}
	}
	return nil
}

// FindParent walks the forest and returns the parent of the node with the given ID.
// Returns nil for a root pocket or an unknown ID.
func (f *Forest) FindParent(id string) Node {
	if id == "" {
		return nil
	}
	for _, p := range f.Pockets {
		for _, c := range p.Compartments {
			if c.ID == id {
				return p
			}
			for _, d := range c.Documents {
				if d.ID == id {
					return c
				}
			}
		}
	}
	return nil
}

// PocketIndex returns the position of a root pocket, or -1.
func (f *Forest) PocketIndex(id string) int {
	for i, p := range f.Pockets {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// CompartmentIndex returns the position of a compartment within its pocket, or -1.
func (p *Pocket) CompartmentIndex(id string) int {
	for i, c := range p.Compartments {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// DocumentIndex returns the position of a document within its compartment, or -1.
func (c *Compartment) DocumentIndex(id string) int {
	for i, d := range c.Documents {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// Walk calls fn for every node in depth-first order. Returning false stops the walk.
func (f *Forest) Walk(fn func(n Node) bool) {
	for _, p := range f.Pockets {
		if !fn(p) {
			return
		}
		for _, c := range p.Compartments {
			if !fn(c) {
				return
			}
			for _, d := range c.Documents {
				if !fn(d) {
					return
				}
			}
		}
	}
}

// Clone returns a deep copy of the forest.
func (f *Forest) Clone() *Forest {
	out := &Forest{Pockets: make([]*Pocket, len(f.Pockets))}
	for i, p := range f.Pockets {
		out.Pockets[i] = p.Clone()
	}
	return out
}

// Relabel recomputes derived document labels against a workspace root.
func (f *Forest) Relabel(root string) {
	for _, p := range f.Pockets {
		for _, c := range p.Compartments {
			for _, d := range c.Documents {
				d.Label, d.Description = DocumentLabels(d.Path, root)
			}
		}
	}
}
