package pocket

// Kind identifies the tier of a node in the pocket tree.
type Kind string

const (
	KindPocket      Kind = "pocket"
	KindCompartment Kind = "compartment"
	KindDocument    Kind = "document"
)

// Node is implemented by every tier of the tree.
// Nodes hold no reference to their parent; use Forest.FindParent.
type Node interface {
	NodeID() string
	NodeLabel() string
	Kind() Kind
	ChildNodes() []Node
}

// Pocket is a named snapshot of a multi-group tab layout.
type Pocket struct {
	// ID is a ULID assigned once at creation
	ID string

	// Label is the user-editable name (not unique)
	Label string

	// AutoCloseOthers closes every open document before this pocket is restored
	AutoCloseOthers bool

	// Branch is the linked version-control branch ("" when unlinked)
	Branch string

	// Compartments are ordered left-to-right as the editor groups were at capture time
	Compartments []*Compartment
}

// Compartment is one editor group's worth of documents within a pocket.
type Compartment struct {
	ID        string
	Label     string
	Documents []*Document
}

// Document references one file location. It carries no content.
type Document struct {
	// ID is a ULID assigned once at creation
	ID string

	// Path is the absolute filesystem path of the file
	Path string

	// Label is the file basename (derived)
	Label string

	// Description is the directory relative to the workspace root (derived, "" at the root)
	Description string
}

// NewPocket creates an empty pocket with a fresh ID.
func NewPocket(label string) *Pocket {
	return &Pocket{ID: NewID(), Label: label}
}

// NewCompartment creates an empty compartment with a fresh ID.
func NewCompartment(label string) *Compartment {
	return &Compartment{ID: NewID(), Label: label}
}

func (p *Pocket) NodeID() string    { return p.ID }
func (p *Pocket) NodeLabel() string { return p.Label }
func (p *Pocket) Kind() Kind        { return KindPocket }

func (p *Pocket) ChildNodes() []Node {
	nodes := make([]Node, len(p.Compartments))
	for i, c := range p.Compartments {
		nodes[i] = c
	}
	return nodes
}

func (c *Compartment) NodeID() string    { return c.ID }
func (c *Compartment) NodeLabel() string { return c.Label }
func (c *Compartment) Kind() Kind        { return KindCompartment }

func (c *Compartment) ChildNodes() []Node {
	nodes := make([]Node, len(c.Documents))
	for i, d := range c.Documents {
		nodes[i] = d
	}
	return nodes
}

func (d *Document) NodeID() string     { return d.ID }
func (d *Document) NodeLabel() string  { return d.Label }
func (d *Document) Kind() Kind         { return KindDocument }
func (d *Document) ChildNodes() []Node { return nil }

// DocumentCount returns the number of documents across all compartments.
func (p *Pocket) DocumentCount() int {
	n := 0
	for _, c := range p.Compartments {
		n += len(c.Documents)
	}
	return n
}

// Clone returns a deep copy of the pocket.
func (p *Pocket) Clone() *Pocket {
	out := &Pocket{
		ID:              p.ID,
		Label:           p.Label,
		AutoCloseOthers: p.AutoCloseOthers,
		Branch:          p.Branch,
		Compartments:    make([]*Compartment, len(p.Compartments)),
	}
	for i, c := range p.Compartments {
		out.Compartments[i] = c.Clone()
	}
	return out
}

// Clone returns a deep copy of the compartment.
func (c *Compartment) Clone() *Compartment {
	out := &Compartment{
		ID:        c.ID,
		Label:     c.Label,
		Documents: make([]*Document, len(c.Documents)),
	}
	for i, d := range c.Documents {
		doc := *d
		out.Documents[i] = &doc
	}
	return out
}
