package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const miniSpec = `{
	"sources": {"s": {"uri": "rows.csv", "mime": "text/csv"}},
	"displays": {
		"d": {
			"source": "s",
			"structures": {
				"color": {"type": "category", "label": "Color", "io": "input", "arguments": {"value": "color"}},
				"rows": {"type": "table", "label": "Rows", "io": "output"}
			}
		}
	}
}`

const miniCSV = "id,color\n1,red\n2,blue\n3,red\n"

// miniScenario writes a two-structure spec and returns a scenario over it.
func miniScenario(t *testing.T, steps []Step, expect ...Expectation) *Scenario {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cinema.json"), []byte(miniSpec), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rows.csv"), []byte(miniCSV), 0o644))
	return &Scenario{
		Name:        "mini",
		Description: "mini",
		Spec:        filepath.Join(dir, "cinema.json"),
		Display:     "d",
		Steps:       steps,
		Expect:      expect,
	}
}

func count(n int) *int { return &n }

func TestRun_TracesActivation(t *testing.T) {
	s := miniScenario(t, nil, Expectation{Output: "rows", Count: count(2)})

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, TraceEvent{Step: 1, Type: EventActivate, Display: "d", Activation: "act-1"}, result.Trace[0])
	assert.Equal(t, TraceEvent{Step: 2, Type: EventPass, Display: "d", Total: 3, Selected: 2}, result.Trace[1])
	assert.Equal(t, TraceEvent{Step: 3, Type: EventOutput, Structure: "rows", Count: 2}, result.Trace[2])
}

func TestRun_SelectAndReactivate(t *testing.T) {
	s := miniScenario(t,
		[]Step{
			{Select: &Selection{Structure: "color", Value: "blue"}},
			{Activate: true},
			{Select: &Selection{Structure: "color", Value: "blue"}},
		},
		Expectation{Output: "rows", Fields: map[string][]any{"id": {2}}},
		Expectation{Output: "rows", Lines: []string{"Rows", "id | color", "2 | blue"}},
	)
	s.TokenPrefix = "t"

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, 2, result.Count(EventActivate))
	assert.Equal(t, 2, result.Count(EventSelect))
	assert.Equal(t, 4, result.Count(EventPass))
	assert.Equal(t, "t-2", result.Trace[6].Activation)
}

func TestRun_RejectedSelection(t *testing.T) {
	s := miniScenario(t,
		[]Step{{Select: &Selection{Structure: "color", Value: "green"}, Reject: true}},
		Expectation{Output: "rows", Contains: map[string]any{"id": 3}},
	)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, EventReject, last.Type)
	assert.Contains(t, last.Error, "green")
	assert.Equal(t, 1, result.Count(EventPass), "a refused selection runs no pass")
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  string
	}{
		{"unexpected rejection", []Step{{Select: &Selection{Structure: "color", Value: "green"}}}, "not one of the control's options"},
		{"unexpected acceptance", []Step{{Select: &Selection{Structure: "color", Value: "blue"}, Reject: true}}, "should have been refused"},
		{"not an input", []Step{{Select: &Selection{Structure: "rows", Value: "x"}}}, "is not an input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := miniScenario(t, tt.steps, Expectation{Output: "rows", Count: count(0), Contains: map[string]any{"id": 1}})
			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.False(t, result.Pass)
			require.NotEmpty(t, result.Errors)
			assert.Contains(t, result.Errors[0], tt.want)
		})
	}
}

func TestRun_ExpectationFailures(t *testing.T) {
	s := miniScenario(t, nil,
		Expectation{Output: "rows", Count: count(5)},
		Expectation{Output: "rows", Contains: map[string]any{"color": "green"}},
		Expectation{Output: "rows", Fields: map[string][]any{"id": {3, 1}}},
		Expectation{Output: "rows", Lines: []string{"nope"}},
		Expectation{Output: "missing", Count: count(0)},
	)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "count on rows")
	assert.Contains(t, result.Errors[1], "contains on rows")
	assert.Contains(t, result.Errors[2], "fields.id on rows")
	assert.Contains(t, result.Errors[3], "lines on rows")
	assert.Contains(t, result.Errors[4], `"missing" is not an output`)
}

func TestRun_UnknownDisplay(t *testing.T) {
	s := miniScenario(t, nil, Expectation{Output: "rows", Count: count(0)})
	s.Display = "nope"
	_, err := Run(context.Background(), s)
	assert.ErrorContains(t, err, `display "nope" not found`)
}

func TestRun_BrokenSpec(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "cinema.json")
	require.NoError(t, os.WriteFile(spec, []byte(`{"sources": `), 0o644))
	_, err := Run(context.Background(), &Scenario{Name: "x", Spec: spec, Display: "d"})
	assert.ErrorContains(t, err, "open spec")
}
