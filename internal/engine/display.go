package engine

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/roach88/cinemad/internal/ir"
)

// DisplayState tracks activation progress.
type DisplayState int32

const (
	StateUnactivated DisplayState = iota
	StateLoading
	StateReady
)

// String implements fmt.Stringer.
func (s DisplayState) String() string {
	switch s {
	case StateUnactivated:
		return "unactivated"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Display links one Source to its Structures and runs the intersection
// pass.
//
// INVARIANTS:
//   - inputs and outputs partition structures; order is declaration order
//   - a structure whose io is not input/output is in none of the three
//   - source is nil when the specification names an unknown source
type Display struct {
	id       string
	label    string
	sourceID string
	db       *Database
	source   *Source

	structures []Structure
	byID       map[string]Structure
	inputs     []*InputStructure
	outputs    []*OutputStructure

	state    atomic.Int32
	tokens   TokenGenerator
	logger   *slog.Logger
	observer Observer
}

// NewDisplay builds a Display and its Structures from spec. source may be
// nil. Structures with a bad io tag are dropped with a diagnostic.
func NewDisplay(spec ir.DisplaySpec, source *Source, opts ...Option) *Display {
	return newDisplay(spec, source, nil, newConfig(opts))
}

func newDisplay(spec ir.DisplaySpec, source *Source, db *Database, cfg *config) *Display {
	d := &Display{
		id:       spec.ID,
		label:    spec.Label,
		sourceID: spec.Source,
		db:       db,
		source:   source,
		byID:     make(map[string]Structure, len(spec.Structures)),
		tokens:   cfg.tokens,
		logger:   cfg.logger,
		observer: cfg.observer,
	}
	if source == nil {
		d.logger.Warn("source for display was not found in sources",
			"display", spec.ID,
			"source", spec.Source,
		)
	}

	for _, st := range spec.Structures {
		s, err := NewStructure(st, d)
		if err != nil {
			if errors.Is(err, ErrAbstractStructure) {
				d.logger.Warn("structure has improper io value; io must be input or output",
					"display", spec.ID,
					"structure", st.ID,
					"io", st.IO,
				)
			}
			continue
		}
		s.AddBuilders(cfg.builders...)
		d.structures = append(d.structures, s)
		d.byID[st.ID] = s
		switch v := s.(type) {
		case *InputStructure:
			d.inputs = append(d.inputs, v)
		case *OutputStructure:
			d.outputs = append(d.outputs, v)
		}
	}
	return d
}

// ID returns the display key from the specification.
func (d *Display) ID() string { return d.id }

// Label returns the display's user-facing name.
func (d *Display) Label() string { return d.label }

// SourceID returns the source key the specification names.
func (d *Display) SourceID() string { return d.sourceID }

// Source returns the linked Source, or nil when unresolved.
func (d *Display) Source() *Source { return d.source }

// Database returns the owning Database, or nil for a standalone Display.
func (d *Display) Database() *Database { return d.db }

// State returns the activation state.
func (d *Display) State() DisplayState { return DisplayState(d.state.Load()) }

// Structures returns every structure in declaration order.
func (d *Display) Structures() []Structure { return slices.Clone(d.structures) }

// Structure looks up a structure by id.
func (d *Display) Structure(id string) (Structure, bool) {
	s, ok := d.byID[id]
	return s, ok
}

// Inputs returns the input structures in declaration order.
func (d *Display) Inputs() []*InputStructure { return slices.Clone(d.inputs) }

// Outputs returns the output structures in declaration order.
func (d *Display) Outputs() []*OutputStructure { return slices.Clone(d.outputs) }

// Input looks up an input structure by id.
func (d *Display) Input(id string) (*InputStructure, bool) {
	in, ok := d.byID[id].(*InputStructure)
	return in, ok
}

// Output looks up an output structure by id.
func (d *Display) Output(id string) (*OutputStructure, bool) {
	out, ok := d.byID[id].(*OutputStructure)
	return out, ok
}

// Data returns the Source's records, or nil when the source is unresolved.
func (d *Display) Data() []*ir.Record {
	if d.source == nil {
		return nil
	}
	return d.source.Data()
}

// Activate loads the Source, builds every Structure and runs one
// intersection pass. It always reloads, and may be called again at any
// time. Returns the activation token used in log lines.
func (d *Display) Activate(ctx context.Context) string {
	token := d.tokens.Generate()
	d.state.Store(int32(StateLoading))
	d.logger.Debug("display activating", "display", d.id, "activation", token)

	if d.source != nil {
		d.source.Load(ctx, nil)
	} else {
		d.logger.Warn("display has no source; outputs will be empty",
			"display", d.id,
			"source", d.sourceID,
			"activation", token,
		)
	}

	for _, s := range d.structures {
		s.Build(nil)
	}
	selected := d.UpdateInput()
	d.state.Store(int32(StateReady))

	d.logger.Debug("display ready",
		"display", d.id,
		"activation", token,
		"selected", len(selected),
	)
	return token
}

// UpdateInput runs the intersection pass: a Source record passes iff it is
// in the query of every input, compared by identity. With no inputs every
// record passes. The result, in Source order, becomes the query of every
// output, and each output's Update runs once in declaration order.
func (d *Display) UpdateInput() []*ir.Record {
	data := d.Data()

	sets := make([]ir.RecordSet, len(d.inputs))
	for i, in := range d.inputs {
		sets[i] = ir.NewRecordSet(in.Query())
	}

	selected := ir.Filter(data, func(r *ir.Record) bool {
		for _, set := range sets {
			if !set.Contains(r) {
				return false
			}
		}
		return true
	})

	for _, out := range d.outputs {
		out.SetQuery(slices.Clone(selected))
		out.Update()
	}

	d.observer.IntersectionPass(d.id, len(data), len(selected))
	return selected
}
