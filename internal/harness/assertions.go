package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cinemad/internal/engine"
	"github.com/roach88/cinemad/internal/ir"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Output   string // Output structure id
	Check    string // count, contains, fields or lines
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Expectation failed: %s on %s\n", e.Check, e.Output)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateExpectations checks every expectation against d's outputs and
// returns one message per failure.
func EvaluateExpectations(d *engine.Display, expectations []Expectation) []string {
	var errs []string
	for i, e := range expectations {
		out, ok := d.Output(e.Output)
		if !ok {
			errs = append(errs, fmt.Sprintf("expect[%d]: %q is not an output of display %q", i, e.Output, d.ID()))
			continue
		}
		for _, err := range checkOutput(out, e) {
			errs = append(errs, fmt.Sprintf("expect[%d]: %v", i, err))
		}
	}
	return errs
}

func checkOutput(out *engine.OutputStructure, e Expectation) []error {
	var errs []error
	query := out.Query()

	if e.Count != nil && len(query) != *e.Count {
		errs = append(errs, &AssertionError{
			Output:   e.Output,
			Check:    "count",
			Expected: fmt.Sprintf("%d records", *e.Count),
			Actual:   fmt.Sprintf("%d records", len(query)),
		})
	}

	if e.Contains != nil {
		if err := assertContains(e.Output, query, e.Contains); err != nil {
			errs = append(errs, err)
		}
	}

	for _, field := range sortedFields(e.Fields) {
		if err := assertFieldValues(e.Output, query, field, e.Fields[field]); err != nil {
			errs = append(errs, err)
		}
	}

	if e.Lines != nil {
		if lines := out.Content().Lines(); !slices.Equal(lines, e.Lines) {
			errs = append(errs, &AssertionError{
				Output:   e.Output,
				Check:    "lines",
				Expected: fmt.Sprintf("%q", e.Lines),
				Actual:   fmt.Sprintf("%q", lines),
			})
		}
	}
	return errs
}

// assertContains checks that some record matches every expected field
// (subset match; extra fields are ignored).
func assertContains(output string, query []*ir.Record, expected map[string]any) error {
	want, err := ir.FromGo(expected)
	if err != nil {
		return fmt.Errorf("contains: %w", err)
	}
	wantObj := want.(ir.Object)
	for _, r := range query {
		if matchFields(r, wantObj) {
			return nil
		}
	}
	return &AssertionError{
		Output:   output,
		Check:    "contains",
		Expected: "a record with " + ir.Text(wantObj),
		Actual:   fmt.Sprintf("none of %d records match", len(query)),
	}
}

func matchFields(r *ir.Record, want ir.Object) bool {
	for key, v := range want {
		if !ir.Equal(r.Get(key), v) {
			return false
		}
	}
	return true
}

// assertFieldValues checks the values of field across the query, in order.
func assertFieldValues(output string, query []*ir.Record, field string, expected []any) error {
	actual := make([]string, len(query))
	for i, r := range query {
		actual[i] = ir.Text(r.Get(field))
	}
	mismatch := len(expected) != len(query)
	for i := 0; !mismatch && i < len(expected); i++ {
		v, err := ir.FromGo(expected[i])
		if err != nil {
			return fmt.Errorf("fields.%s[%d]: %w", field, i, err)
		}
		mismatch = !ir.Equal(query[i].Get(field), v)
	}
	if !mismatch {
		return nil
	}

	wantText := make([]string, len(expected))
	for i, v := range expected {
		wantText[i] = fmt.Sprint(v)
	}
	return &AssertionError{
		Output:   output,
		Check:    "fields." + field,
		Expected: fmt.Sprintf("%q", wantText),
		Actual:   fmt.Sprintf("%q", actual),
	}
}

func sortedFields(m map[string][]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
