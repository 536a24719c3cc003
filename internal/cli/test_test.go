package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchstore/internal/harness"
)

const passingScenario = `name: counter
description: commit then undo
initial:
  count: 0
steps:
  - commit:
      - {op: replace, path: /count, value: 1}
  - undo: true
assertions:
  - type: state
    pointer: /count
    value: 0
  - type: can_redo
    value: true
`

const failingScenario = `name: wrong
description: asserts the wrong value
steps:
  - commit:
      - {op: add, path: /a, value: 1}
assertions:
  - type: state
    pointer: /a
    value: 2
`

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandPassingWithoutGolden(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "counter.yaml", passingScenario)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "\u2713 counter (no golden file)")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "\u2713 All scenarios passed")
}

func TestTestCommandUpdateThenMatch(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "counter.yaml", passingScenario)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "\u2713 counter (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "counter.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"counter"`)

	out, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "\u2713 counter\n")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	goldenDir := t.TempDir()
	writeDoc(t, dir, "counter.yaml", passingScenario)
	writeDoc(t, goldenDir, "counter.golden", `{"scenario_name":"counter","trace":[]}`)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--golden", goldenDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "\u2717 counter")
	assert.Contains(t, out, "run with --update")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "counter.yaml", passingScenario)
	writeDoc(t, dir, "wrong.yaml", failingScenario)

	out, err := execute(NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string              `json:"status"`
		Data   harness.SuiteResult `json:"data"`
		Error  *CLIError           `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.Equal(t, 2, resp.Data.Total)
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "counter.yaml", passingScenario)
	writeDoc(t, dir, "wrong.yaml", failingScenario)

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "count*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
	assert.NotContains(t, out, "wrong")
}

func TestTestCommandHarnessFixtures(t *testing.T) {
	dir := filepath.Join("..", "harness", "testdata", "scenarios")
	golden := filepath.Join("..", "harness", "testdata", "golden")

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--golden", golden)
	require.NoError(t, err)
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}
