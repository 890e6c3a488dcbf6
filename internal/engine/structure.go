package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/cinemad/internal/ir"
)

// Builder renders a Structure. Input builders install a Control and set
// the initial query; output builders register update listeners that
// re-render from Query.
type Builder func(Structure)

// Control is the selection surface an input builder installs.
type Control interface {
	// Kind names the widget, e.g. "slider" or "select".
	Kind() string
	// Options lists the values the control can select.
	Options() []string
	// Selected lists the currently selected values.
	Selected() []string
	// Select applies a user selection: it replaces the input's query and
	// triggers the intersection pass.
	Select(value string) error
}

// Structure is either an *InputStructure or an *OutputStructure.
// It cannot be implemented outside this package.
type Structure interface {
	ID() string
	Type() string
	Label() string
	IO() string
	Arguments() ir.Object

	// Display is the owning Display; Source is its Source. Either may be nil.
	Display() *Display
	Source() *Source

	Query() []*ir.Record
	SetQuery(records []*ir.Record)

	Builders() []Builder
	AddBuilders(builders ...Builder)
	Build(override Builder)
	Update()

	Content() *Content

	structure()
}

// NewStructure creates the variant matching spec.IO. Any other io value
// is ErrAbstractStructure.
func NewStructure(spec ir.StructureSpec, d *Display) (Structure, error) {
	switch spec.IO {
	case ir.IOInput:
		return NewInputStructure(spec, d), nil
	case ir.IOOutput:
		return NewOutputStructure(spec, d), nil
	default:
		return nil, fmt.Errorf("structure %s with io %q: %w", spec.ID, spec.IO, ErrAbstractStructure)
	}
}

type structureBase struct {
	spec     ir.StructureSpec
	display  *Display
	query    []*ir.Record
	builders []Builder
	content  Content
	logger   *slog.Logger
}

func newStructureBase(spec ir.StructureSpec, d *Display) structureBase {
	logger := slog.Default()
	if d != nil {
		logger = d.logger
	}
	if spec.Arguments == nil {
		spec.Arguments = ir.Object{}
	}
	return structureBase{
		spec:    spec,
		display: d,
		query:   []*ir.Record{},
		logger:  logger,
	}
}

func (s *structureBase) structure() {}

func (s *structureBase) ID() string           { return s.spec.ID }
func (s *structureBase) Type() string         { return s.spec.Type }
func (s *structureBase) Label() string        { return s.spec.Label }
func (s *structureBase) IO() string           { return s.spec.IO }
func (s *structureBase) Arguments() ir.Object { return s.spec.Arguments }
func (s *structureBase) Display() *Display    { return s.display }
func (s *structureBase) Content() *Content    { return &s.content }

func (s *structureBase) Source() *Source {
	if s.display == nil {
		return nil
	}
	return s.display.source
}

func (s *structureBase) Query() []*ir.Record { return s.query }

func (s *structureBase) SetQuery(records []*ir.Record) {
	if records == nil {
		records = []*ir.Record{}
	}
	s.query = records
}

func (s *structureBase) Builders() []Builder { return slices.Clone(s.builders) }

func (s *structureBase) AddBuilders(builders ...Builder) {
	for _, b := range builders {
		if b != nil {
			s.builders = append(s.builders, b)
		}
	}
}

// build clears content and runs override or every registered builder.
// self is the concrete variant handed to builders.
func (s *structureBase) build(self Structure, override Builder) {
	if override == nil && len(s.builders) == 0 {
		s.logger.Warn("no builders set for structure", "structure", s.spec.ID, "type", s.spec.Type)
		return
	}
	s.content.Reset()
	if override != nil {
		override(self)
		return
	}
	for _, b := range s.builders {
		b(self)
	}
}

// InputStructure is a selection control. Its query is the set of records
// the user has selected.
type InputStructure struct {
	structureBase
	control Control
}

// NewInputStructure creates an input with an empty query and no builders.
func NewInputStructure(spec ir.StructureSpec, d *Display) *InputStructure {
	return &InputStructure{structureBase: newStructureBase(spec, d)}
}

// Build clears content and the installed control, then runs builders.
func (in *InputStructure) Build(override Builder) {
	if override != nil || len(in.builders) > 0 {
		in.control = nil
	}
	in.build(in, override)
}

// Update re-runs the owning Display's intersection pass.
func (in *InputStructure) Update() {
	if in.display == nil {
		in.logger.Warn("input has no display", "structure", in.spec.ID)
		return
	}
	in.display.UpdateInput()
}

// Control returns the installed control, or nil before the input is built.
func (in *InputStructure) Control() Control { return in.control }

// SetControl installs the selection control. Called by builders.
func (in *InputStructure) SetControl(c Control) { in.control = c }

// Select forwards a user selection to the control.
func (in *InputStructure) Select(value string) error {
	if in.control == nil {
		return fmt.Errorf("structure %s: %w", in.spec.ID, ErrNoControl)
	}
	return in.control.Select(value)
}

// OutputStructure is a rendered view. Its query is the set of records to
// render, assigned by the Display.
type OutputStructure struct {
	structureBase
	listeners []func()
}

// NewOutputStructure creates an output with an empty query, no builders
// and no update listeners.
func NewOutputStructure(spec ir.StructureSpec, d *Display) *OutputStructure {
	return &OutputStructure{structureBase: newStructureBase(spec, d)}
}

// Build clears content and update listeners, then runs builders.
func (out *OutputStructure) Build(override Builder) {
	if override != nil || len(out.builders) > 0 {
		out.listeners = nil
	}
	out.build(out, override)
}

// AddUpdateListener registers fn to run on every Update.
func (out *OutputStructure) AddUpdateListener(fn func()) {
	if fn != nil {
		out.listeners = append(out.listeners, fn)
	}
}

// UpdateListeners returns the number of registered listeners.
func (out *OutputStructure) UpdateListeners() int { return len(out.listeners) }

// Update calls every listener in registration order.
func (out *OutputStructure) Update() {
	if len(out.listeners) == 0 {
		out.logger.Warn("no update listeners set for output structure; did the builder forget one?",
			"structure", out.spec.ID)
		return
	}
	for _, fn := range out.listeners {
		fn()
	}
}
