package builder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/cinemad/internal/engine"
	"github.com/roach88/cinemad/internal/fetch"
	"github.com/roach88/cinemad/internal/ir"
	"github.com/roach88/cinemad/internal/loader"
)

// Structure types understood by SuperBuilder.
const (
	TypeScalar      = "scalar"
	TypeCategory    = "category"
	TypeCameraOrbit = "camera-orbit"
	TypeTable       = "table"
	TypeImageByExt  = "image-file-format-by-ext"
	TypePlot2D      = "simple-plot-2d"
)

// Plot viewport used when rendering simple-plot-2d paths.
const (
	PlotWidth  = 400
	PlotHeight = 300
)

const defaultFetchTimeout = 30 * time.Second

// SuperBuilder is the default builder. It renders every structure as
// text lines in its Content and installs controls on inputs.
type SuperBuilder struct {
	fetcher fetch.Fetcher
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a SuperBuilder.
type Option func(*SuperBuilder)

// WithFetcher sets the fetcher used by simple-plot-2d. Without one the
// owning Database's fetcher is used.
func WithFetcher(f fetch.Fetcher) Option {
	return func(b *SuperBuilder) {
		b.fetcher = f
	}
}

// WithLogger sets the logger. Nil discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(b *SuperBuilder) {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		b.logger = logger
	}
}

// WithFetchTimeout bounds each per-record fetch made by simple-plot-2d.
func WithFetchTimeout(d time.Duration) Option {
	return func(b *SuperBuilder) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// New creates a SuperBuilder.
func New(opts ...Option) *SuperBuilder {
	b := &SuperBuilder{
		logger:  slog.Default(),
		timeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Builder returns b.Build as an engine.Builder.
func (b *SuperBuilder) Builder() engine.Builder { return b.Build }

// Build writes the structure's label as a header line and renders the
// rest according to its type and io.
func (b *SuperBuilder) Build(s engine.Structure) {
	s.Content().Println(s.Label())

	switch st := s.(type) {
	case *engine.InputStructure:
		switch st.Type() {
		case TypeScalar:
			b.scalar(st)
			return
		case TypeCategory:
			b.category(st)
			return
		case TypeCameraOrbit:
			b.cameraOrbit(st)
			return
		case TypeTable:
			b.tableInput(st)
			return
		}
	case *engine.OutputStructure:
		switch st.Type() {
		case TypeTable:
			b.tableOutput(st)
			return
		case TypeImageByExt:
			b.imageByExt(st)
			return
		case TypePlot2D:
			b.plot2D(st)
			return
		}
	}
	b.invalid(s)
}

func (b *SuperBuilder) invalid(s engine.Structure) {
	b.logger.Warn("no builder for structure",
		"structure", s.ID(),
		"type", s.Type(),
		"io", s.IO(),
	)
	s.Content().Printf("Could not create structure for type %s with io %s", s.Type(), s.IO())
}

func (b *SuperBuilder) scalar(in *engine.InputStructure) {
	args := in.Arguments()
	key, _ := ir.AsString(args.Get("value"))
	nums := UniqueNumeric(dataOf(in), key, b.logger)
	if lo, hi, ok := numberRange(args.Get("range")); ok {
		kept := nums[:0]
		for _, n := range nums {
			if n >= lo && n <= hi {
				kept = append(kept, n)
			}
		}
		nums = kept
	}
	values := make([]ir.Value, len(nums))
	for i, n := range nums {
		values[i] = ir.Number(n)
	}
	c := newListControl(KindSlider, in, key, values)
	c.units = ir.Text(args.Get("units"))
	c.mark = in.Content().Len()
	c.apply()
	in.SetControl(c)
}

func (b *SuperBuilder) category(in *engine.InputStructure) {
	key, _ := ir.AsString(in.Arguments().Get("value"))
	c := newListControl(KindSelect, in, key, UniqueOrdinal(dataOf(in), key))
	c.mark = in.Content().Len()
	c.apply()
	in.SetControl(c)
}

func (b *SuperBuilder) cameraOrbit(in *engine.InputStructure) {
	keys, ok := pairArg(in.Arguments(), "phi_theta")
	if !ok {
		b.logger.Warn("camera-orbit needs a phi_theta argument of two field names", "structure", in.ID())
	}
	pKey, tKey := ir.Text(keys[0]), ir.Text(keys[1])
	data := dataOf(in)
	c := &orbitControl{
		in:    in,
		pKey:  pKey,
		tKey:  tKey,
		pVals: UniqueNumeric(data, pKey, b.logger),
		tVals: UniqueNumeric(data, tKey, b.logger),
		mark:  in.Content().Len(),
	}
	c.apply()
	in.SetControl(c)
}

func (b *SuperBuilder) tableInput(in *engine.InputStructure) {
	data := dataOf(in)
	keys := columnsOf(data)
	in.Content().Println("    " + strings.Join(keys, " | "))
	c := &checkboxControl{
		in:   in,
		data: data,
		keys: keys,
		mark: in.Content().Len(),
	}
	c.apply()
	in.SetControl(c)
}

func (b *SuperBuilder) tableOutput(out *engine.OutputStructure) {
	content := out.Content()
	mark := content.Len()
	keys := columnsOf(dataOf(out))
	out.AddUpdateListener(func() {
		content.Truncate(mark)
		content.Println(strings.Join(keys, " | "))
		for _, r := range out.Query() {
			content.Println(rowText(r, keys))
		}
	})
}

func (b *SuperBuilder) imageByExt(out *engine.OutputStructure) {
	parser := NewURIParser(out.Arguments(), b.logger)
	dir := directoryOf(out)
	content := out.Content()
	mark := content.Len()
	out.AddUpdateListener(func() {
		content.Truncate(mark)
		for _, r := range out.Query() {
			content.Println(dir + parser.Parse(r))
		}
	})
}

func (b *SuperBuilder) plot2D(out *engine.OutputStructure) {
	args := out.Arguments()
	parser := NewURIParser(args, b.logger)
	keys, ok := pairArg(args, "xy")
	if !ok {
		b.logger.Warn("simple-plot-2d needs an xy argument of two field names", "structure", out.ID())
	}
	xKey, yKey := ir.Text(keys[0]), ir.Text(keys[1])
	graph := NewGraph(args, b.logger)
	dir := directoryOf(out)
	fetcher := b.fetcherFor(out)
	content := out.Content()
	content.Printf("x: %s", graph.X.Title())
	content.Printf("y: %s", graph.Y.Title())
	mark := content.Len()

	out.AddUpdateListener(func() {
		query := out.Query()
		datasets := make([][]Point, 0, len(query))
		for _, r := range query {
			uri := dir + parser.Parse(r)
			points, err := b.fetchPoints(fetcher, uri, xKey, yKey)
			if err != nil {
				b.logger.Warn("failed to load plot data",
					"structure", out.ID(),
					"uri", uri,
					"error", err,
				)
			}
			datasets = append(datasets, points)
		}
		graph.SetData(datasets)

		content.Truncate(mark)
		content.Printf("domain x=[%s, %s] y=[%s, %s]",
			num(graph.X.Domain[0]), num(graph.X.Domain[1]),
			num(graph.Y.Domain[0]), num(graph.Y.Domain[1]))
		for i := range graph.Datasets {
			if graph.Style == StyleScatter {
				pts := graph.ScatterPoints(i, PlotWidth, PlotHeight)
				cells := make([]string, len(pts))
				for j, p := range pts {
					cells[j] = num(p.X) + "," + num(p.Y)
				}
				content.Printf("scatter %d: %s", i, strings.Join(cells, " "))
				continue
			}
			content.Printf("path %d: %s", i, graph.LinePath(i, PlotWidth, PlotHeight))
		}
	})
}

func (b *SuperBuilder) fetchPoints(f fetch.Fetcher, uri, xKey, yKey string) ([]Point, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	data, err := f.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	records, err := loader.ParseDelimited(data, ',')
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", uri, err)
	}
	points := make([]Point, 0, len(records))
	for _, r := range records {
		x, okX := ir.AsNumber(r.Get(xKey))
		y, okY := ir.AsNumber(r.Get(yKey))
		if okX && okY {
			points = append(points, Point{X: x, Y: y})
		}
	}
	return points, nil
}

func (b *SuperBuilder) fetcherFor(s engine.Structure) fetch.Fetcher {
	if b.fetcher != nil {
		return b.fetcher
	}
	if d := s.Display(); d != nil && d.Database() != nil {
		return d.Database().Fetcher()
	}
	return fetch.NewDefaultFetcher()
}

func directoryOf(s engine.Structure) string {
	if d := s.Display(); d != nil && d.Database() != nil {
		return d.Database().Directory()
	}
	return ""
}

// columnsOf returns the field names of the first record.
func columnsOf(records []*ir.Record) []string {
	if len(records) == 0 {
		return nil
	}
	return records[0].Keys()
}
