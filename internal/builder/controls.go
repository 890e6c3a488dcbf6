package builder

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/cinemad/internal/engine"
	"github.com/roach88/cinemad/internal/ir"
)

// Control kinds.
const (
	KindSlider   = "slider"
	KindSelect   = "select"
	KindOrbit    = "orbit"
	KindCheckbox = "checkbox"
)

// listControl selects one value of one field: a slider over sorted
// numbers (scalar) or a drop-down over first-seen values (category).
type listControl struct {
	kind    string
	in      *engine.InputStructure
	key     string
	values  []ir.Value
	options []string
	index   int
	units   string // scalar only: shown after the value
	mark    int    // content length before the value line
}

func newListControl(kind string, in *engine.InputStructure, key string, values []ir.Value) *listControl {
	c := &listControl{kind: kind, in: in, key: key, values: values}
	for _, v := range values {
		c.options = append(c.options, ir.Text(v))
	}
	return c
}

func (c *listControl) Kind() string      { return c.kind }
func (c *listControl) Options() []string { return slices.Clone(c.options) }

func (c *listControl) Selected() []string {
	if c.index >= len(c.options) {
		return nil
	}
	return []string{c.options[c.index]}
}

func (c *listControl) Select(value string) error {
	for i, v := range c.values {
		if c.options[i] == value || (c.kind == KindSlider && ir.Equal(v, ir.String(value))) {
			c.index = i
			c.apply()
			c.in.Update()
			return nil
		}
	}
	return &engine.SelectError{Structure: c.in.ID(), Value: value, Message: "not one of the control's options"}
}

// apply sets the input's query from the current index without running
// the intersection pass.
func (c *listControl) apply() {
	content := c.in.Content()
	content.Truncate(c.mark)
	if c.index >= len(c.values) {
		c.in.SetQuery(nil)
		if c.kind == KindSlider {
			content.Printf("(no values) %s", c.units)
		}
		return
	}
	val := c.values[c.index]
	if f, ok := ir.AsNumber(val); ok && c.kind == KindSlider {
		c.in.SetQuery(matchingNumber(dataOf(c.in), c.key, f))
	} else {
		c.in.SetQuery(matching(dataOf(c.in), c.key, val))
	}
	if c.kind == KindSlider {
		content.Printf("%s %s", ir.Text(val), c.units)
	} else {
		content.Printf("[%s]", ir.Text(val))
	}
}

// orbitControl steps through phi/theta pairs. Moving past either end of
// an axis clamps.
type orbitControl struct {
	in         *engine.InputStructure
	pKey, tKey string
	pVals      []float64
	tVals      []float64
	pIndex     int
	tIndex     int
	mark       int
}

// Orbit commands.
const (
	OrbitLeft  = "left"
	OrbitRight = "right"
	OrbitUp    = "up"
	OrbitDown  = "down"
)

func (c *orbitControl) Kind() string { return KindOrbit }

// Options lists the step commands. A "phi,theta" pair is also accepted by Select.
func (c *orbitControl) Options() []string {
	return []string{OrbitLeft, OrbitRight, OrbitUp, OrbitDown}
}

func (c *orbitControl) Selected() []string {
	p, t, ok := c.current()
	if !ok {
		return nil
	}
	return []string{ir.Text(ir.Number(p)) + "," + ir.Text(ir.Number(t))}
}

func (c *orbitControl) current() (phi, theta float64, ok bool) {
	if c.pIndex >= len(c.pVals) || c.tIndex >= len(c.tVals) {
		return 0, 0, false
	}
	return c.pVals[c.pIndex], c.tVals[c.tIndex], true
}

func (c *orbitControl) Select(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case OrbitRight:
		c.pIndex = min(len(c.pVals)-1, c.pIndex+1)
	case OrbitLeft:
		c.pIndex = max(0, c.pIndex-1)
	case OrbitUp:
		c.tIndex = min(len(c.tVals)-1, c.tIndex+1)
	case OrbitDown:
		c.tIndex = max(0, c.tIndex-1)
	default:
		pi, ti, err := c.parsePair(value)
		if err != nil {
			return err
		}
		c.pIndex, c.tIndex = pi, ti
	}
	c.pIndex = max(0, c.pIndex)
	c.tIndex = max(0, c.tIndex)
	c.apply()
	c.in.Update()
	return nil
}

func (c *orbitControl) parsePair(value string) (int, int, error) {
	reject := func(msg string) error {
		return &engine.SelectError{Structure: c.in.ID(), Value: value, Message: msg}
	}
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, reject("want a direction or a phi,theta pair")
	}
	p, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	t, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, reject("phi and theta must be numbers")
	}
	pi := slices.Index(c.pVals, p)
	ti := slices.Index(c.tVals, t)
	if pi < 0 || ti < 0 {
		return 0, 0, reject("no such phi,theta pair")
	}
	return pi, ti, nil
}

func (c *orbitControl) apply() {
	content := c.in.Content()
	content.Truncate(c.mark)
	phi, theta, ok := c.current()
	if !ok {
		c.in.SetQuery(nil)
		content.Println("phi=? theta=?")
		return
	}
	c.in.SetQuery(ir.Filter(dataOf(c.in), func(r *ir.Record) bool {
		return ir.Equal(r.Get(c.pKey), ir.Number(phi)) && ir.Equal(r.Get(c.tKey), ir.Number(theta))
	}))
	content.Printf("phi=%s theta=%s", ir.Text(ir.Number(phi)), ir.Text(ir.Number(theta)))
}

// checkboxControl toggles individual rows of the source. The query holds
// checked rows in the order they were checked.
type checkboxControl struct {
	in      *engine.InputStructure
	data    []*ir.Record
	keys    []string
	checked []int
	mark    int
}

func (c *checkboxControl) Kind() string { return KindCheckbox }

// Options lists row indexes.
func (c *checkboxControl) Options() []string {
	out := make([]string, len(c.data))
	for i := range c.data {
		out[i] = strconv.Itoa(i)
	}
	return out
}

func (c *checkboxControl) Selected() []string {
	out := make([]string, len(c.checked))
	for i, row := range c.checked {
		out[i] = strconv.Itoa(row)
	}
	return out
}

// Select toggles the row with the given index.
func (c *checkboxControl) Select(value string) error {
	row, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || row < 0 || row >= len(c.data) {
		return &engine.SelectError{
			Structure: c.in.ID(),
			Value:     value,
			Message:   fmt.Sprintf("want a row index in [0, %d)", len(c.data)),
		}
	}
	if i := slices.Index(c.checked, row); i >= 0 {
		c.checked = slices.Delete(c.checked, i, i+1)
	} else {
		c.checked = append(c.checked, row)
	}
	c.apply()
	c.in.Update()
	return nil
}

func (c *checkboxControl) apply() {
	query := make([]*ir.Record, len(c.checked))
	for i, row := range c.checked {
		query[i] = c.data[row]
	}
	c.in.SetQuery(query)

	content := c.in.Content()
	content.Truncate(c.mark)
	for i, r := range c.data {
		box := "[ ]"
		if slices.Contains(c.checked, i) {
			box = "[x]"
		}
		content.Printf("%s %s", box, rowText(r, c.keys))
	}
}

func rowText(r *ir.Record, keys []string) string {
	cells := make([]string, len(keys))
	for i, k := range keys {
		cells[i] = ir.Text(r.Get(k))
	}
	return strings.Join(cells, " | ")
}

func dataOf(s engine.Structure) []*ir.Record {
	if src := s.Source(); src != nil {
		return src.Data()
	}
	return nil
}
