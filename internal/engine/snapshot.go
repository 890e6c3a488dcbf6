package engine

import "github.com/roach88/cinemad/internal/ir"

// DisplaySnapshot is a read-only view of a Display for the CLI and HTTP API.
type DisplaySnapshot struct {
	ID         string              `json:"id"`
	Label      string              `json:"label,omitempty"`
	Source     string              `json:"source"`
	Resolved   bool                `json:"resolved"`
	State      string              `json:"state"`
	Records    int                 `json:"records"`
	Generation int64               `json:"generation"`
	Structures []StructureSnapshot `json:"structures"`
}

// StructureSnapshot is a read-only view of one Structure.
type StructureSnapshot struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Label    string      `json:"label,omitempty"`
	IO       string      `json:"io"`
	Count    int         `json:"count"`
	Control  string      `json:"control,omitempty"`
	Options  []string    `json:"options,omitempty"`
	Selected []string    `json:"selected,omitempty"`
	Content  []string    `json:"content"`
	Rows     []ir.Object `json:"rows,omitempty"`
}

// Snapshot captures the Display's current state. Output rows are included;
// input rows are not.
func (d *Display) Snapshot() DisplaySnapshot {
	snap := DisplaySnapshot{
		ID:       d.id,
		Label:    d.label,
		Source:   d.sourceID,
		Resolved: d.source != nil,
		State:    d.State().String(),
		Records:  len(d.Data()),
	}
	if d.source != nil {
		snap.Generation = d.source.Generation()
	}
	for _, s := range d.structures {
		snap.Structures = append(snap.Structures, snapshotStructure(s))
	}
	return snap
}

func snapshotStructure(s Structure) StructureSnapshot {
	ss := StructureSnapshot{
		ID:      s.ID(),
		Type:    s.Type(),
		Label:   s.Label(),
		IO:      s.IO(),
		Count:   len(s.Query()),
		Content: s.Content().Lines(),
	}
	switch v := s.(type) {
	case *InputStructure:
		if c := v.Control(); c != nil {
			ss.Control = c.Kind()
			ss.Options = c.Options()
			ss.Selected = c.Selected()
		}
	case *OutputStructure:
		ss.Rows = make([]ir.Object, 0, len(v.Query()))
		for _, r := range v.Query() {
			ss.Rows = append(ss.Rows, r.Object())
		}
	}
	return ss
}
