package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cinemad/internal/ir"
	"github.com/roach88/cinemad/internal/testutil"
)

func TestAssertContains(t *testing.T) {
	rows := testutil.Records([]string{"id", "phi"}, []any{"A", 10}, []any{"B", 20})

	assert.NoError(t, assertContains("rows", rows, map[string]any{"id": "B"}))
	assert.NoError(t, assertContains("rows", rows, map[string]any{"phi": "20"}), "numeric strings compare numerically")
	assert.NoError(t, assertContains("rows", rows, map[string]any{}), "empty subset always matches")

	err := assertContains("rows", rows, map[string]any{"id": "B", "phi": 10})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "contains", ae.Check)
	assert.Equal(t, "none of 2 records match", ae.Actual)
}

func TestAssertFieldValues(t *testing.T) {
	rows := testutil.Records([]string{"id"}, []any{"A"}, []any{"B"})

	assert.NoError(t, assertFieldValues("rows", rows, "id", []any{"A", "B"}))

	err := assertFieldValues("rows", rows, "id", []any{"B", "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `["B" "A"]`)

	assert.Error(t, assertFieldValues("rows", rows, "id", []any{"A"}), "length mismatch")
}

func TestMatchFields(t *testing.T) {
	r := testutil.Records([]string{"a", "b"}, []any{1, nil})[0]
	assert.True(t, matchFields(r, ir.Object{"a": ir.Number(1)}))
	assert.True(t, matchFields(r, ir.Object{"b": ir.Null{}}))
	assert.False(t, matchFields(r, ir.Object{"c": ir.String("x")}))
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Output: "rows", Check: "count", Expected: "1 records", Actual: "2 records"}
	assert.Equal(t, "Expectation failed: count on rows\n  Expected: 1 records\n  Actual: 2 records", err.Error())
}
