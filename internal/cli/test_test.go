package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: passing
description: default selections leave record A
spec: cinema.json
display: main
expect:
  - output: rows
    fields: { id: [A] }
`

const failingScenario = `name: failing
description: wrong count
spec: cinema.json
display: main
expect:
  - output: rows
    count: 3
`

// scenarioDir copies the fixture spec next to the given scenarios.
func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Dir(fixtureSpec(t))
	for _, name := range []string{"cinema.json", "images.csv"} {
		data, err := os.ReadFile(filepath.Join(src, name))
		require.NoError(t, err)
		writeFile(t, dir, name, string(data))
	}
	for name, body := range scenarios {
		writeFile(t, dir, name, body)
	}
	return dir
}

func TestTest_ReferenceScenarios(t *testing.T) {
	out, _, err := execute(t, "test", filepath.Join("..", "..", "testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ select_phi_and_kind")
	assert.Contains(t, out, "✓ rejected_selection")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTest_Failures(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"a_pass.yaml": passingScenario,
		"b_fail.yaml": failingScenario,
		"c_bad.yaml":  "name: bad\n",
	})

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ passing\n")
	assert.Contains(t, out, "✗ failing\n")
	assert.Contains(t, out, "count on rows")
	assert.Contains(t, out, "✗ c_bad.yaml\n  failed to load scenario")
	assert.Contains(t, out, "Test Summary: 1 passed, 2 failed, 3 total")
}

func TestTest_JSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"a_pass.yaml": passingScenario,
		"b_fail.yaml": failingScenario,
	})

	out, _, err := execute(t, "test", dir, "--format", "json")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.True(t, resp.Data.Scenarios[0].Pass)
	assert.False(t, resp.Data.Scenarios[1].Pass)
}

func TestTest_Filter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"a_pass.yaml": passingScenario,
		"b_fail.yaml": failingScenario,
	})

	out, _, err := execute(t, "test", dir, "--filter", "a_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, _, err = execute(t, "test", dir, "--filter", "zzz*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	_, _, err = execute(t, "test", dir, "--filter", "[")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_GoldenUpdateAndCompare(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"a_pass.yaml": passingScenario})
	golden := filepath.Join(dir, "golden", "a_pass.golden")

	out, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ passing (golden updated)")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"passing"`)
	assert.Contains(t, string(data), `"activation":"act-1"`)

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err, "trace matches the golden file it just wrote")

	require.NoError(t, os.WriteFile(golden, []byte(`{"trace":[]}`), 0o644))
	out, _, err = execute(t, "test", dir)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTest_MissingDir(t *testing.T) {
	out, _, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("s", "golden", "x.golden"), goldenFilePath(filepath.Join("s", "x.yaml")))
}
