package compiler

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/cinemad/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// Validation error codes (E200-E299)
const (
	ErrSchemaViolation  = "E200" // document does not match the structural schema
	ErrMissingSources   = "E201" // no sources section
	ErrMissingDisplays  = "E202" // no displays section
	ErrInvalidIO        = "E203" // io is neither "input" nor "output"
	ErrUnresolvedSource = "E204" // display references an undeclared source
	ErrEmptyDisplay     = "E205" // display declares no structures
)

// ValidationError represents one structural diagnostic.
// Diagnostics never stop graph construction.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a document value against the embedded schema and the
// linking rules the engine relies on. Returns all diagnostics found (does
// not fail-fast).
func Validate(v cue.Value) []ValidationError {
	var errs []ValidationError

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The embedded schema is static; failing here is a programming error.
		panic(fmt.Sprintf("compiler: invalid embedded schema: %v", err))
	}
	unified := schema.LookupPath(cue.ParsePath("#Database")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		errs = append(errs, schemaErrors(err)...)
	}

	sources := v.LookupPath(cue.ParsePath("sources"))
	if !sources.Exists() {
		errs = append(errs, ValidationError{
			Field:   "sources",
			Message: "sources section is missing",
			Code:    ErrMissingSources,
		})
	}
	displays := v.LookupPath(cue.ParsePath("displays"))
	if !displays.Exists() {
		errs = append(errs, ValidationError{
			Field:   "displays",
			Message: "displays section is missing",
			Code:    ErrMissingDisplays,
		})
	}

	errs = append(errs, validateLinks(CompileDocument(v))...)
	return errs
}

// validateLinks checks io tags and source references on a compiled document.
func validateLinks(doc *ir.Document) []ValidationError {
	var errs []ValidationError

	for _, disp := range doc.Displays {
		if _, ok := doc.Source(disp.Source); !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("displays.%s.source", disp.ID),
				Message: fmt.Sprintf("source %q is not declared in sources", disp.Source),
				Code:    ErrUnresolvedSource,
			})
		}
		if len(disp.Structures) == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("displays.%s.structures", disp.ID),
				Message: "display declares no structures",
				Code:    ErrEmptyDisplay,
			})
		}
		for _, st := range disp.Structures {
			if st.IO != ir.IOInput && st.IO != ir.IOOutput {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("displays.%s.structures.%s.io", disp.ID, st.ID),
					Message: fmt.Sprintf("io must be %q or %q, got %q", ir.IOInput, ir.IOOutput, st.IO),
					Code:    ErrInvalidIO,
				})
			}
		}
	}

	return errs
}

// schemaErrors flattens a CUE validation error into diagnostics.
func schemaErrors(err error) []ValidationError {
	var out []ValidationError
	for _, e := range errors.Errors(err) {
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: e.Error(),
			Code:    ErrSchemaViolation,
		}
		for _, pos := range errors.Positions(e) {
			if pos.Filename() != "schema.cue" {
				ve.Line = pos.Line()
				break
			}
		}
		if ve.Field == "" {
			ve.Field = "document"
		}
		out = append(out, ve)
	}
	return out
}
