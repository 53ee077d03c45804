// Package codec converts the pocket forest to and from its durable JSON form.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hpungsan/pockets/internal/pocket"
)

// PocketRecord is the durable form of a pocket.
type PocketRecord struct {
	ID              string              `json:"id"`
	Label           string              `json:"label"`
	AutoCloseOthers bool                `json:"auto_close_others"`
	Branch          string              `json:"branch,omitempty"`
	Compartments    []CompartmentRecord `json:"compartments"`
}

// CompartmentRecord is the durable form of a compartment. Documents are stored
// as paths only; DocumentIDs runs parallel to Documents.
type CompartmentRecord struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Documents   []string `json:"documents"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// Serialize converts the forest to durable records.
func Serialize(f *pocket.Forest) []PocketRecord {
	out := make([]PocketRecord, 0, len(f.Pockets))
	for _, p := range f.Pockets {
		out = append(out, PocketToRecord(p))
	}
	return out
}

// PocketToRecord converts one pocket to its durable record.
func PocketToRecord(p *pocket.Pocket) PocketRecord {
	rec := PocketRecord{
		ID:              p.ID,
		Label:           p.Label,
		AutoCloseOthers: p.AutoCloseOthers,
		Branch:          p.Branch,
		Compartments:    make([]CompartmentRecord, 0, len(p.Compartments)),
	}
	for _, c := range p.Compartments {
		cr := CompartmentRecord{
			ID:          c.ID,
			Label:       c.Label,
			Documents:   make([]string, 0, len(c.Documents)),
			DocumentIDs: make([]string, 0, len(c.Documents)),
		}
		for _, d := range c.Documents {
			cr.Documents = append(cr.Documents, d.Path)
			cr.DocumentIDs = append(cr.DocumentIDs, d.ID)
		}
		rec.Compartments = append(rec.Compartments, cr)
	}
	return rec
}

// Decoder rebuilds forests from durable data. Derived document labels are
// computed against Root. Malformed entries are dropped with a warning.
type Decoder struct {
	Root   string
	Logger *slog.Logger

	seen map[string]bool
}

// NewDecoder returns a decoder for the given workspace root.
func NewDecoder(root string, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{Root: root, Logger: logger}
}

// Marshal encodes the forest as a JSON array of pocket records.
func Marshal(f *pocket.Forest) ([]byte, error) {
	return json.Marshal(Serialize(f))
}

// Unmarshal decodes a JSON array of pocket records. It fails only when the
// top-level value is not an array; bad entries inside it are skipped.
func (d *Decoder) Unmarshal(data []byte) (*pocket.Forest, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &pocket.Forest{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("pocket state is not a JSON array: %w", err)
	}

	d.seen = map[string]bool{}
	f := &pocket.Forest{Pockets: make([]*pocket.Pocket, 0, len(raw))}
	for i, entry := range raw {
		p := d.decodePocket(i, entry)
		if p != nil {
			f.Pockets = append(f.Pockets, p)
		}
	}
	return f, nil
}

// Deserialize rebuilds a forest from already decoded records.
func (d *Decoder) Deserialize(records []PocketRecord) *pocket.Forest {
	d.seen = map[string]bool{}
	f := &pocket.Forest{Pockets: make([]*pocket.Pocket, 0, len(records))}
	for i, rec := range records {
		if p := d.fromRecord(i, rec); p != nil {
			f.Pockets = append(f.Pockets, p)
		}
	}
	return f
}

// DecodePocket decodes a single pocket record (used for JSONL import).
// Ids are checked for duplicates only within the decoder's current pass.
func (d *Decoder) DecodePocket(entry json.RawMessage) (*pocket.Pocket, error) {
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	var rec pocketEnvelope
	if err := json.Unmarshal(entry, &rec); err != nil {
		return nil, fmt.Errorf("invalid pocket record: %w", err)
	}
	p := d.fromEnvelope(0, rec)
	if p == nil {
		return nil, fmt.Errorf("invalid pocket record: missing label")
	}
	return p, nil
}

// pocketEnvelope defers compartment decoding so one bad compartment does not
// take its siblings with it.
type pocketEnvelope struct {
	ID              string            `json:"id"`
	Label           string            `json:"label"`
	AutoCloseOthers bool              `json:"auto_close_others"`
	Branch          string            `json:"branch"`
	Compartments    []json.RawMessage `json:"compartments"`
}

type compartmentEnvelope struct {
	ID          string            `json:"id"`
	Label       string            `json:"label"`
	Documents   []json.RawMessage `json:"documents"`
	DocumentIDs []json.RawMessage `json:"document_ids"`
}

func (d *Decoder) decodePocket(i int, entry json.RawMessage) *pocket.Pocket {
	var env pocketEnvelope
	if err := json.Unmarshal(entry, &env); err != nil {
		d.Logger.Warn("dropping malformed pocket entry", "index", i, "error", err)
		return nil
	}
	return d.fromEnvelope(i, env)
}

func (d *Decoder) fromEnvelope(i int, env pocketEnvelope) *pocket.Pocket {
	label := pocket.CleanLabel(env.Label)
	if label == "" {
		d.Logger.Warn("dropping pocket without label", "index", i, "id", env.ID)
		return nil
	}

	p := &pocket.Pocket{
		ID:              d.claimID(env.ID, "pocket"),
		Label:           label,
		AutoCloseOthers: env.AutoCloseOthers,
		Branch:          env.Branch,
		Compartments:    make([]*pocket.Compartment, 0, len(env.Compartments)),
	}
	for j, raw := range env.Compartments {
		var cenv compartmentEnvelope
		if err := json.Unmarshal(raw, &cenv); err != nil {
			d.Logger.Warn("dropping malformed compartment entry", "pocket", p.Label, "index", j, "error", err)
			continue
		}
		if c := d.fromCompartment(p.Label, j, cenv); c != nil {
			p.Compartments = append(p.Compartments, c)
		}
	}
	return p
}

func (d *Decoder) fromCompartment(pocketLabel string, j int, env compartmentEnvelope) *pocket.Compartment {
	label := pocket.CleanLabel(env.Label)
	if label == "" {
		d.Logger.Warn("dropping compartment without label", "pocket", pocketLabel, "index", j)
		return nil
	}

	ids := make([]string, len(env.DocumentIDs))
	for k, raw := range env.DocumentIDs {
		if err := json.Unmarshal(raw, &ids[k]); err != nil {
			d.Logger.Warn("ignoring non-string document id; minting a fresh one", "compartment", label, "index", k)
		}
	}
	if len(env.DocumentIDs) > 0 && len(env.DocumentIDs) != len(env.Documents) {
		d.Logger.Warn("document ids misaligned; minting fresh ids", "pocket", pocketLabel, "compartment", label)
		ids = nil
	}

	c := &pocket.Compartment{
		ID:        d.claimID(env.ID, "compartment"),
		Label:     label,
		Documents: make([]*pocket.Document, 0, len(env.Documents)),
	}
	for k, raw := range env.Documents {
		var loc string
		if err := json.Unmarshal(raw, &loc); err != nil {
			d.Logger.Warn("dropping non-string document entry", "compartment", label, "index", k)
			continue
		}
		path, ok := pocket.ResolvePath(loc, d.Root)
		if !ok {
			d.Logger.Warn("dropping unresolvable document", "compartment", label, "location", loc)
			continue
		}
		id := ""
		if k < len(ids) {
			id = ids[k]
		}
		doc := &pocket.Document{ID: d.claimID(id, "document"), Path: path}
		doc.Label, doc.Description = pocket.DocumentLabels(path, d.Root)
		c.Documents = append(c.Documents, doc)
	}
	return c
}

func (d *Decoder) fromRecord(i int, rec PocketRecord) *pocket.Pocket {
	env := pocketEnvelope{
		ID:              rec.ID,
		Label:           rec.Label,
		AutoCloseOthers: rec.AutoCloseOthers,
		Branch:          rec.Branch,
	}
	for _, c := range rec.Compartments {
		raw, err := json.Marshal(c)
		if err != nil {
			continue
		}
		env.Compartments = append(env.Compartments, raw)
	}
	return d.fromEnvelope(i, env)
}

// claimID returns id if it is usable and unseen, otherwise a fresh one.
func (d *Decoder) claimID(id, kind string) string {
	if id == "" {
		id = pocket.NewID()
	} else if d.seen[id] {
		d.Logger.Warn("duplicate id; minting a fresh one", "kind", kind, "id", id)
		id = pocket.NewID()
	}
	d.seen[id] = true
	return id
}
