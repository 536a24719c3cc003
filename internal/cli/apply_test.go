package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addTodoPatch = `- op: add
  path: /todos/-
  value:
    title: milk
`

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	state := writeDoc(t, dir, "state.json", `{"todos":[]}`)
	p := writeDoc(t, dir, "patch.yaml", addTodoPatch)

	out, err := execute(NewApplyCommand(&RootOptions{Format: "text"}), "--state", state, "--patch", p)
	require.NoError(t, err)
	assert.Equal(t, `{"todos":[{"title":"milk"}]}`+"\n", out)
}

func TestApplyCommandInverse(t *testing.T) {
	dir := t.TempDir()
	state := writeDoc(t, dir, "state.json", `{"todos":[]}`)
	p := writeDoc(t, dir, "patch.yaml", addTodoPatch)

	out, err := execute(NewApplyCommand(&RootOptions{Format: "text"}), "--state", state, "--patch", p, "--inverse")
	require.NoError(t, err)
	assert.Equal(t,
		`[{"op":"test","path":"/todos/0","value":{"title":"milk"}},{"op":"remove","path":"/todos/0"}]`+"\n",
		out)
}

func TestApplyCommandDefaultState(t *testing.T) {
	dir := t.TempDir()
	p := writeDoc(t, dir, "seed.json", `{"operations":[{"op":"add","path":"/settings/theme","value":"dark"}]}`)

	out, err := execute(NewApplyCommand(&RootOptions{Format: "text"}), "--patch", p)
	require.NoError(t, err)
	assert.Equal(t, `{"settings":{"theme":"dark"}}`+"\n", out)
}

func TestApplyCommandCUEState(t *testing.T) {
	dir := t.TempDir()
	state := writeDoc(t, dir, "state.cue", `todos: [{title: "a"}]`)
	p := writeDoc(t, dir, "patch.json", `[{"op":"replace","path":"/todos/0/title","value":"b"}]`)

	out, err := execute(NewApplyCommand(&RootOptions{Format: "text"}), "--state", state, "--patch", p)
	require.NoError(t, err)
	assert.Equal(t, `{"todos":[{"title":"b"}]}`+"\n", out)
}

func TestApplyCommandJSON(t *testing.T) {
	dir := t.TempDir()
	state := writeDoc(t, dir, "state.json", `{"todos":[]}`)
	p := writeDoc(t, dir, "patch.yaml", addTodoPatch)

	out, err := execute(NewApplyCommand(&RootOptions{Format: "json"}), "--state", state, "--patch", p)
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.JSONEq(t, `{"todos":[{"title":"milk"}]}`, string(resp.Data))
}

func TestApplyCommandRejectedBatch(t *testing.T) {
	dir := t.TempDir()
	state := writeDoc(t, dir, "state.json", `{"todos":[]}`)
	p := writeDoc(t, dir, "patch.json", `[{"op":"add","path":"/x","value":1},{"op":"test","path":"/todos","value":[1]}]`)

	out, err := execute(NewApplyCommand(&RootOptions{Format: "text"}), "--state", state, "--patch", p)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "TEST_FAILED")
	assert.Empty(t, out)
}

func TestApplyCommandRejectedBatchJSON(t *testing.T) {
	dir := t.TempDir()
	state := writeDoc(t, dir, "state.json", `{"todos":[]}`)
	p := writeDoc(t, dir, "patch.json", `[{"op":"replace","path":"/todos/3","value":1}]`)

	out, err := execute(NewApplyCommand(&RootOptions{Format: "json"}), "--state", state, "--patch", p)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_TARGET", resp.Error.Code)
}

func TestApplyCommandLoadErrors(t *testing.T) {
	dir := t.TempDir()
	state := writeDoc(t, dir, "state.json", `{}`)
	scalar := writeDoc(t, dir, "scalar.json", `3`)
	p := writeDoc(t, dir, "patch.json", `[]`)
	notPatch := writeDoc(t, dir, "notpatch.json", `{"op":"add"}`)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing state", []string{"--state", dir + "/nope.json", "--patch", p}, "E005"},
		{"missing patch", []string{"--state", state, "--patch", dir + "/nope.yaml"}, "E005"},
		{"scalar state", []string{"--state", scalar, "--patch", p}, "E104"},
		{"not a batch", []string{"--state", state, "--patch", notPatch}, "E105"},
		{"unsupported extension", []string{"--state", dir + "/state.toml", "--patch", p}, "E008"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(NewApplyCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyCommandMissingPatchFlag(t *testing.T) {
	_, err := execute(NewApplyCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
