package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioDir holds the repository's reference scenarios.
const scenarioDir = "../../testdata/scenarios"

// TestDemoScenarios runs the reference scenarios end to end: real spec
// parsing, the CSV loader, the default builders and the intersection pass.
func TestDemoScenarios(t *testing.T) {
	tests := []string{
		"select_phi_and_kind",
		"rejected_selection",
	}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join(scenarioDir, name+".yaml"))
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario failed: %v", result.Errors)
		})
	}
}

func TestRunSuite_ReferenceScenarios(t *testing.T) {
	res, err := RunSuite(t.Context(), scenarioDir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Passed)
	assert.Empty(t, res.Failures)
}
