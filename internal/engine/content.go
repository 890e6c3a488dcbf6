package engine

import (
	"fmt"
	"strings"
)

// Content is the rendered text of a Structure. Builders append lines;
// Build clears it first.
type Content struct {
	lines []string
}

// Reset clears all lines.
func (c *Content) Reset() {
	c.lines = c.lines[:0]
}

// Len returns the number of lines.
func (c *Content) Len() int {
	return len(c.lines)
}

// Truncate drops every line after the first n. Update listeners use it to
// re-render their rows below a fixed header.
func (c *Content) Truncate(n int) {
	if n >= 0 && n < len(c.lines) {
		c.lines = c.lines[:n]
	}
}

// Println appends one line formatted with fmt.Sprint.
func (c *Content) Println(a ...any) {
	c.lines = append(c.lines, fmt.Sprint(a...))
}

// Printf appends one line formatted with fmt.Sprintf.
func (c *Content) Printf(format string, a ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, a...))
}

// Lines returns a copy of the rendered lines.
func (c *Content) Lines() []string {
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// String joins the lines with newlines.
func (c *Content) String() string {
	return strings.Join(c.lines, "\n")
}
