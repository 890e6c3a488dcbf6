package compiler

import (
	"fmt"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cinemad/internal/ir"
)

// ParseDocument parses a specification document and compiles it into the
// document model.
//
// The format is chosen by extension: .yaml/.yml are decoded with yaml.v3,
// everything else (.json, .cue) is compiled as CUE. Syntax errors are
// returned as an error because no graph can be built from them. Structural
// problems are returned as diagnostics alongside a best-effort document.
func ParseDocument(filename string, data []byte) (*ir.Document, []ValidationError, error) {
	ctx := cuecontext.New()
	v, err := compileValue(ctx, filename, data)
	if err != nil {
		return nil, nil, err
	}

	diags := Validate(v)
	doc := CompileDocument(v)
	return doc, diags, nil
}

// compileValue builds a CUE value from raw document bytes.
func compileValue(ctx *cue.Context, filename string, data []byte) (cue.Value, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		jsonData, err := yamlToJSON(data)
		if err != nil {
			return cue.Value{}, &CompileError{Field: "yaml", Message: err.Error()}
		}
		data = jsonData
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// CompileDocument walks a CUE value into a Document.
//
// Only the minimal shape needed to build the graph is enforced: sections
// that are missing or of the wrong kind compile to empty slices, and
// non-string scalar fields compile to "". Declaration order is preserved.
func CompileDocument(v cue.Value) *ir.Document {
	doc := &ir.Document{Info: ir.Object{}}

	if info, ok := valueToIR(v.LookupPath(cue.ParsePath("cinema"))).(ir.Object); ok {
		doc.Info = info
	}

	eachField(v.LookupPath(cue.ParsePath("sources")), func(id string, sv cue.Value) {
		doc.Sources = append(doc.Sources, ir.SourceSpec{
			ID:    id,
			URI:   stringField(sv, "uri"),
			Table: stringField(sv, "table"),
			Mime:  stringField(sv, "mime"),
		})
	})

	eachField(v.LookupPath(cue.ParsePath("displays")), func(id string, dv cue.Value) {
		disp := ir.DisplaySpec{
			ID:     id,
			Label:  stringField(dv, "label"),
			Source: stringField(dv, "source"),
		}
		eachField(dv.LookupPath(cue.ParsePath("structures")), func(sid string, stv cue.Value) {
			st := ir.StructureSpec{
				ID:    sid,
				Type:  stringField(stv, "type"),
				Label: stringField(stv, "label"),
				IO:    stringField(stv, "io"),
			}
			if args, ok := valueToIR(stv.LookupPath(cue.ParsePath("arguments"))).(ir.Object); ok {
				st.Arguments = args
			}
			disp.Structures = append(disp.Structures, st)
		})
		doc.Displays = append(doc.Displays, disp)
	})

	return doc
}

// eachField calls fn for every regular field of a struct value, in order.
// Missing values and non-structs are skipped.
func eachField(v cue.Value, fn func(label string, v cue.Value)) {
	if !v.Exists() || v.IncompleteKind() != cue.StructKind {
		return
	}
	iter, err := v.Fields()
	if err != nil {
		return
	}
	for iter.Next() {
		fn(iter.Label(), iter.Value())
	}
}

// stringField returns the concrete string at path, or "".
func stringField(v cue.Value, path string) string {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return ""
	}
	s, err := f.String()
	if err != nil {
		return ""
	}
	return s
}

// valueToIR converts a concrete CUE value to an ir.Value.
// Non-concrete or missing values become Null.
func valueToIR(v cue.Value) ir.Value {
	if !v.Exists() {
		return ir.Null{}
	}
	switch v.Kind() {
	case cue.StructKind:
		obj := ir.Object{}
		eachField(v, func(label string, fv cue.Value) {
			obj[label] = valueToIR(fv)
		})
		return obj
	case cue.ListKind:
		arr := ir.Array{}
		iter, err := v.List()
		if err != nil {
			return arr
		}
		for iter.Next() {
			arr = append(arr, valueToIR(iter.Value()))
		}
		return arr
	case cue.StringKind:
		s, _ := v.String()
		return ir.String(s)
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return ir.Null{}
		}
		return ir.Number(f)
	case cue.BoolKind:
		b, _ := v.Bool()
		return ir.Bool(b)
	default:
		return ir.Null{}
	}
}

// CompileError represents a document compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &CompileError{Field: "cue", Message: first.Error()}
}
