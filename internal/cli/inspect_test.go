package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_Text(t *testing.T) {
	out, _, err := execute(t, "inspect", fixtureSpec(t), "--load")
	require.NoError(t, err)

	assert.Contains(t, out, "Sources (1):")
	assert.Contains(t, out, "images  text/csv")
	assert.Contains(t, out, "4 records")
	assert.Contains(t, out, "Displays (1):")
	assert.Contains(t, out, "main  source=images\n")
	assert.Contains(t, out, "input  phi  scalar")
	assert.Contains(t, out, "output rows  table")
	assert.NotContains(t, out, "Diagnostics")
}

func TestInspect_JSON(t *testing.T) {
	out, _, err := execute(t, "inspect", fixtureSpec(t), "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	r := resp.Data

	assert.Len(t, r.Hash, 64)
	require.Len(t, r.Sources, 1)
	assert.Equal(t, "images", r.Sources[0].ID)
	assert.Nil(t, r.Sources[0].Records, "records are only counted with --load")

	require.Len(t, r.Displays, 1)
	d := r.Displays[0]
	assert.True(t, d.Resolved)
	ids := make([]string, len(d.Structures))
	for i, s := range d.Structures {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"phi", "kind", "rows", "image"}, ids)
}

func TestInspect_DroppedStructuresAndUnresolvedSource(t *testing.T) {
	spec := writeFile(t, t.TempDir(), "cinema.json", brokenLinksSpec)

	out, _, err := execute(t, "inspect", spec)
	require.NoError(t, err)
	assert.Contains(t, out, "source=missing (unresolved)")
	assert.NotContains(t, out, "sideways")
	assert.Contains(t, out, "Diagnostics:")
}
