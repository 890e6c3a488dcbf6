package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cinemad/internal/ir"
)

func TestParseJSON_Values(t *testing.T) {
	recs, err := ParseJSON([]byte(`[
		{"s": "a\"b", "n": -1.5, "b": false, "z": null, "o": {"k": [1, "x"]}}
	]`))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, []string{"s", "n", "b", "z", "o"}, r.Keys())
	assert.Equal(t, ir.String(`a"b`), r.Get("s"))
	assert.Equal(t, ir.Number(-1.5), r.Get("n"))
	assert.Equal(t, ir.Bool(false), r.Get("b"))
	assert.Equal(t, ir.Null{}, r.Get("z"))
	assert.Equal(t, ir.Object{"k": ir.Array{ir.Number(1), ir.String("x")}}, r.Get("o"))
}

func TestParseJSON_EmptyArray(t *testing.T) {
	recs, err := ParseJSON([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestParseJSON_NotAnArray(t *testing.T) {
	_, err := ParseJSON([]byte(`{"a": 1}`))
	assert.Error(t, err)
}

func TestParseJSON_NonObjectElement(t *testing.T) {
	_, err := ParseJSON([]byte(`[{"a": 1}, 2]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "element 1")
}
