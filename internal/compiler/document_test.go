package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cinemad/internal/ir"
)

const sampleJSON = `{
	"cinema": {"version": "2.0", "name": "sphere"},
	"sources": {
		"images": {"uri": "data/images.csv", "table": "", "mime": "text/csv"},
		"meta":   {"uri": "data/meta.json", "mime": "application/json"}
	},
	"displays": {
		"main": {
			"label": "Main",
			"source": "images",
			"structures": {
				"phi":   {"type": "scalar", "label": "Phi", "io": "input", "arguments": {"field": "phi"}},
				"theta": {"type": "category", "io": "input", "arguments": {"field": "theta"}},
				"view":  {"type": "table", "io": "output"}
			}
		}
	}
}`

func TestParseDocumentJSON(t *testing.T) {
	doc, diags, err := ParseDocument("cinema.json", []byte(sampleJSON))
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.Len(t, doc.Sources, 2)
	assert.Equal(t, "images", doc.Sources[0].ID)
	assert.Equal(t, "data/images.csv", doc.Sources[0].URI)
	assert.Equal(t, "text/csv", doc.Sources[0].Mime)
	assert.Equal(t, "meta", doc.Sources[1].ID)

	require.Len(t, doc.Displays, 1)
	disp := doc.Displays[0]
	assert.Equal(t, "main", disp.ID)
	assert.Equal(t, "Main", disp.Label)
	assert.Equal(t, "images", disp.Source)

	require.Len(t, disp.Structures, 3)
	assert.Equal(t, []string{"phi", "theta", "view"},
		[]string{disp.Structures[0].ID, disp.Structures[1].ID, disp.Structures[2].ID})
	assert.Equal(t, ir.IOInput, disp.Structures[0].IO)
	assert.Equal(t, ir.String("phi"), disp.Structures[0].Arguments.Get("field"))
	assert.Equal(t, ir.IOOutput, disp.Structures[2].IO)

	assert.Equal(t, ir.String("sphere"), doc.Info.Get("name"))
}

func TestParseDocumentYAMLPreservesOrder(t *testing.T) {
	data := []byte(`
sources:
  zeta:
    uri: z.csv
    mime: text/csv
  alpha:
    uri: a.csv
    mime: text/csv
displays:
  d:
    source: zeta
    structures:
      z-out: {type: table, io: output}
      a-in: {type: category, io: input, arguments: {field: x, values: [1, 2.5, true, null]}}
`)
	doc, diags, err := ParseDocument("cinema.yaml", data)
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.Len(t, doc.Sources, 2)
	assert.Equal(t, "zeta", doc.Sources[0].ID)
	assert.Equal(t, "alpha", doc.Sources[1].ID)

	require.Len(t, doc.Displays[0].Structures, 2)
	assert.Equal(t, "z-out", doc.Displays[0].Structures[0].ID)
	assert.Equal(t, "a-in", doc.Displays[0].Structures[1].ID)

	values := doc.Displays[0].Structures[1].Arguments.Get("values")
	assert.Equal(t, ir.Array{ir.Number(1), ir.Number(2.5), ir.Bool(true), ir.Null{}}, values)
}

func TestParseDocumentSyntaxError(t *testing.T) {
	_, _, err := ParseDocument("cinema.json", []byte(`{"sources": `))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
}

func TestParseDocumentYAMLSyntaxError(t *testing.T) {
	_, _, err := ParseDocument("cinema.yml", []byte("sources: [unclosed"))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "yaml", ce.Field)
}

func TestParseDocumentIsLenient(t *testing.T) {
	// Broken links are reported but the document is still compiled.
	data := []byte(`{
		"sources": {"s": {"uri": "s.csv", "mime": "text/csv"}},
		"displays": {
			"d": {
				"source": "missing",
				"structures": {
					"a": {"type": "scalar", "io": "sideways"},
					"b": {"type": "table", "io": "output"}
				}
			}
		}
	}`)
	doc, diags, err := ParseDocument("cinema.json", data)
	require.NoError(t, err)

	codes := diagCodes(diags)
	assert.True(t, codes[ErrUnresolvedSource])
	assert.True(t, codes[ErrInvalidIO])

	require.Len(t, doc.Displays, 1)
	assert.Equal(t, "missing", doc.Displays[0].Source)
	assert.Len(t, doc.Displays[0].Structures, 2)
}

func TestCompileDocumentWrongKinds(t *testing.T) {
	data := []byte(`{"sources": 3, "displays": {"d": {"source": 7, "structures": "none"}}}`)
	doc, _, err := ParseDocument("cinema.json", data)
	require.NoError(t, err)

	assert.Empty(t, doc.Sources)
	require.Len(t, doc.Displays, 1)
	assert.Equal(t, "", doc.Displays[0].Source)
	assert.Empty(t, doc.Displays[0].Structures)
}

func TestYAMLToJSONEmpty(t *testing.T) {
	out, err := yamlToJSON([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestYAMLToJSONAliases(t *testing.T) {
	out, err := yamlToJSON([]byte("base: &b {uri: x}\ncopy: *b\n"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"base": {"uri": "x"}, "copy": {"uri": "x"}}`, string(out))
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "yaml", Message: "bad indent"}
	assert.Equal(t, "yaml: bad indent", err.Error())
}

func diagCodes(diags []ValidationError) map[string]bool {
	codes := make(map[string]bool, len(diags))
	for _, d := range diags {
		codes[d.Code] = true
	}
	return codes
}
