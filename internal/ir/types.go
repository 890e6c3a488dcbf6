package ir

// IO tags accepted on a structure.
const (
	IOInput  = "input"
	IOOutput = "output"
)

// Document represents a compiled specification document.
// Sources and Displays keep the order in which they were declared.
type Document struct {
	Info     Object        `json:"cinema"`
	Sources  []SourceSpec  `json:"sources"`
	Displays []DisplaySpec `json:"displays"`
}

// SourceSpec describes one tabular data source.
type SourceSpec struct {
	ID    string `json:"id"`
	URI   string `json:"uri"`   // Relative to the document's directory
	Table string `json:"table"` // Table name inside the source, if any
	Mime  string `json:"mime"`
}

// DisplaySpec describes one display and the structures it links.
type DisplaySpec struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Source     string          `json:"source"` // SourceSpec.ID, may not resolve
	Structures []StructureSpec `json:"structures"`
}

// StructureSpec describes one input or output structure.
// Type and Arguments are opaque to the engine and forwarded to builders.
type StructureSpec struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Label     string `json:"label"`
	IO        string `json:"io"` // "input" | "output", anything else is dropped
	Arguments Object `json:"arguments,omitempty"`
}

// Source returns the SourceSpec with the given id.
func (d *Document) Source(id string) (SourceSpec, bool) {
	for _, s := range d.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceSpec{}, false
}

// Object converts the document into an Object for canonical serialization.
func (d *Document) Object() Object {
	sources := make(Object, len(d.Sources))
	for _, s := range d.Sources {
		sources[s.ID] = Object{
			"uri":   String(s.URI),
			"table": String(s.Table),
			"mime":  String(s.Mime),
		}
	}

	displays := make(Object, len(d.Displays))
	for _, disp := range d.Displays {
		structures := make(Object, len(disp.Structures))
		for _, st := range disp.Structures {
			args := st.Arguments
			if args == nil {
				args = Object{}
			}
			structures[st.ID] = Object{
				"type":      String(st.Type),
				"label":     String(st.Label),
				"io":        String(st.IO),
				"arguments": args,
			}
		}
		displays[disp.ID] = Object{
			"label":      String(disp.Label),
			"source":     String(disp.Source),
			"structures": structures,
		}
	}

	info := d.Info
	if info == nil {
		info = Object{}
	}
	return Object{
		"cinema":   info,
		"sources":  sources,
		"displays": displays,
	}
}
