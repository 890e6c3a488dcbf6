package builder

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/roach88/cinemad/internal/ir"
)

// Scale is an axis scale type.
type Scale string

const (
	ScaleLinear Scale = "linear"
	ScaleLog10  Scale = "log10"
)

// Style is a plot style.
type Style string

const (
	StyleLine    Style = "line"
	StyleScatter Style = "scatter"
)

// logFloor replaces a zero bound on a log axis.
const logFloor = 0.001

// Point is one x/y sample.
type Point struct {
	X, Y float64
}

// Axis is one axis of a Graph.
type Axis struct {
	Label  string
	Units  string
	Scale  Scale
	Fixed  bool // Domain comes from the ranges argument
	Domain [2]float64
}

// Title renders "label (units)".
func (a Axis) Title() string {
	return fmt.Sprintf("%s (%s)", a.Label, a.Units)
}

// Project maps v from the domain onto [0, size], clamped to the ends.
func (a Axis) Project(v, size float64) float64 {
	lo, hi := a.Domain[0], a.Domain[1]
	if a.Scale == ScaleLog10 {
		if v <= 0 || lo <= 0 || hi <= 0 {
			// Log of a non-positive value is undefined; pin to the low end.
			return 0
		}
		v, lo, hi = math.Log10(v), math.Log10(lo), math.Log10(hi)
	}
	if hi == lo {
		return 0
	}
	t := (v - lo) / (hi - lo)
	return math.Max(0, math.Min(1, t)) * size
}

// Graph is the data model behind a simple-plot-2d output.
type Graph struct {
	Style    Style
	X, Y     Axis
	Datasets [][]Point
}

// NewGraph reads style, scales, ranges, labels and units from args.
// Unknown styles and scales fall back to line and linear.
func NewGraph(args ir.Object, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Graph{Style: StyleLine}

	style, _ := ir.AsString(args.Get("style"))
	switch Style(style) {
	case StyleLine, StyleScatter:
		g.Style = Style(style)
	default:
		logger.Warn("unrecognized graph style; defaulting to line", "style", style)
	}

	scales, _ := args.Get("scales").(ir.Array)
	ranges, _ := args.Get("ranges").(ir.Array)
	labels, _ := args.Get("labels").(ir.Array)
	units, _ := args.Get("units").(ir.Array)
	axes := []*Axis{&g.X, &g.Y}
	for i, axis := range axes {
		axis.Scale = ScaleLinear
		name := textAt(scales, i)
		switch Scale(name) {
		case ScaleLinear, ScaleLog10:
			axis.Scale = Scale(name)
		default:
			logger.Warn("unrecognized axis scale; must be linear or log10, defaulting to linear",
				"axis", string(rune('x'+i)),
				"scale", name,
			)
		}
		if i < len(ranges) {
			if lo, hi, ok := numberRange(ranges[i]); ok {
				axis.Fixed = true
				axis.Domain = [2]float64{lo, hi}
			}
		}
		axis.Label = textAt(labels, i)
		axis.Units = textAt(units, i)
	}
	return g
}

func textAt(arr ir.Array, i int) string {
	if i >= len(arr) {
		return ""
	}
	return ir.Text(arr[i])
}

// SetData replaces the datasets and recomputes every axis domain that is
// not fixed. Computed domains always include 0. On a log axis a domain
// that crosses 0 is pulled to one side of it.
func (g *Graph) SetData(datasets [][]Point) {
	g.Datasets = datasets
	if !g.X.Fixed {
		g.X.Domain = extent(datasets, func(p Point) float64 { return p.X }, g.X.Scale)
	}
	if !g.Y.Fixed {
		g.Y.Domain = extent(datasets, func(p Point) float64 { return p.Y }, g.Y.Scale)
	}
}

func extent(datasets [][]Point, coord func(Point) float64, scale Scale) [2]float64 {
	lo, hi := 0.0, 0.0
	for _, ds := range datasets {
		for _, p := range ds {
			v := coord(p)
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if scale == ScaleLog10 && lo <= 0 && hi >= 0 {
		if lo < 0 {
			hi = -logFloor
		} else if lo == 0 {
			lo = logFloor
		}
	}
	return [2]float64{lo, hi}
}

// LinePath renders dataset i as an SVG path in a width x height viewport:
// it starts at the bottom-left corner, visits every point and ends at the
// bottom-right corner.
func (g *Graph) LinePath(i int, width, height float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "M 0 %s", num(height))
	for _, p := range g.Datasets[i] {
		x := g.X.Project(p.X, width)
		y := height - g.Y.Project(p.Y, height)
		fmt.Fprintf(&b, " L%s %s", num(x), num(y))
	}
	fmt.Fprintf(&b, " L%s %s", num(width), num(height))
	return b.String()
}

// ScatterPoints projects dataset i into a width x height viewport.
func (g *Graph) ScatterPoints(i int, width, height float64) []Point {
	out := make([]Point, len(g.Datasets[i]))
	for j, p := range g.Datasets[i] {
		out[j] = Point{
			X: g.X.Project(p.X, width),
			Y: height - g.Y.Project(p.Y, height),
		}
	}
	return out
}

func num(f float64) string {
	return ir.Text(ir.Number(math.Round(f*100) / 100))
}
