package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContent_Lines(t *testing.T) {
	var c Content
	c.Println("Phi")
	c.Printf("%d rows", 3)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"Phi", "3 rows"}, c.Lines())
	assert.Equal(t, "Phi\n3 rows", c.String())
}

func TestContent_TruncateKeepsHeader(t *testing.T) {
	var c Content
	c.Println("header")
	mark := c.Len()
	c.Println("row 1")
	c.Println("row 2")

	c.Truncate(mark)
	assert.Equal(t, []string{"header"}, c.Lines())

	c.Truncate(5)
	assert.Equal(t, 1, c.Len(), "truncating past the end is a no-op")
}

func TestContent_LinesIsACopy(t *testing.T) {
	var c Content
	c.Println("a")
	lines := c.Lines()
	lines[0] = "mutated"
	assert.Equal(t, "a", c.String())
}

func TestContent_Reset(t *testing.T) {
	var c Content
	c.Println("a")
	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, "", c.String())
}
