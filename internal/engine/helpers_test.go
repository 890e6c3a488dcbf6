package engine

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/cinemad/internal/ir"
	"github.com/roach88/cinemad/internal/testutil"
)

// staticLoader returns the same records on every load and counts calls.
type staticLoader struct {
	mu      sync.Mutex
	records []*ir.Record
	err     error
	calls   int
	infos   []SourceInfo
}

func (l *staticLoader) Load(_ context.Context, info SourceInfo) ([]*ir.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.infos = append(l.infos, info)
	if l.err != nil {
		return nil, l.err
	}
	return l.records, nil
}

func (l *staticLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// recordingObserver captures observer events.
type recordingObserver struct {
	mu     sync.Mutex
	loads  []string
	passes [][2]int
	errs   []error
}

func (o *recordingObserver) SourceLoaded(source string, records int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loads = append(o.loads, source)
	o.errs = append(o.errs, err)
}

func (o *recordingObserver) IntersectionPass(_ string, total, selected int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.passes = append(o.passes, [2]int{total, selected})
}

func quiet() Option {
	return WithLogger(testutil.DiscardLogger())
}

// abcd returns four records A..D with an id column.
func abcd() []*ir.Record {
	return testutil.Records([]string{"id"}, []any{"A"}, []any{"B"}, []any{"C"}, []any{"D"})
}

func ids(records []*ir.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = ir.Text(r.Get("id"))
	}
	return out
}

// selectIDs returns the records whose id is in want, as a query.
func selectIDs(records []*ir.Record, want ...string) []*ir.Record {
	keep := make(map[string]bool, len(want))
	for _, w := range want {
		keep[w] = true
	}
	return ir.Filter(records, func(r *ir.Record) bool {
		return keep[ir.Text(r.Get("id"))]
	})
}

// linkedDisplay builds a display over src with the given input and output
// ids. Outputs get a listener that counts updates.
func linkedDisplay(src *Source, inputs, outputs []string) (*Display, map[string]*int) {
	spec := ir.DisplaySpec{ID: "d", Source: "s"}
	for _, id := range inputs {
		spec.Structures = append(spec.Structures, ir.StructureSpec{ID: id, Type: "category", IO: ir.IOInput})
	}
	for _, id := range outputs {
		spec.Structures = append(spec.Structures, ir.StructureSpec{ID: id, Type: "table", IO: ir.IOOutput})
	}
	d := NewDisplay(spec, src, quiet())

	counts := make(map[string]*int, len(outputs))
	for _, out := range d.Outputs() {
		n := new(int)
		counts[out.ID()] = n
		out.AddUpdateListener(func() { *n++ })
	}
	return d, counts
}
