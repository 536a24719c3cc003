package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	from := writeDoc(t, dir, "from.json", `{"a":1,"b":[1,2]}`)
	to := writeDoc(t, dir, "to.yaml", "b: [1]\nc: true\n")

	out, err := execute(NewDiffCommand(&RootOptions{Format: "text"}), from, to)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"op":"remove","path":"/a"},{"op":"remove","path":"/b/1"},{"op":"add","path":"/c","value":true}]`+"\n",
		out)
}

func TestDiffThenApplyReachesTarget(t *testing.T) {
	dir := t.TempDir()
	from := writeDoc(t, dir, "from.json", `{"todos":[{"done":false,"title":"a"},{"title":"b"}],"owner":"x"}`)
	to := writeDoc(t, dir, "to.json", `{"todos":[{"done":true,"title":"a"}],"tags":["home"]}`)

	diffOut, err := execute(NewDiffCommand(&RootOptions{Format: "text"}), from, to)
	require.NoError(t, err)
	p := writeDoc(t, dir, "patch.json", strings.TrimSpace(diffOut))

	out, err := execute(NewApplyCommand(&RootOptions{Format: "text"}), "--state", from, "--patch", p)
	require.NoError(t, err)
	assert.Equal(t, `{"tags":["home"],"todos":[{"done":true,"title":"a"}]}`+"\n", out)
}

func TestDiffCommandIdentical(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.json", `[1,{"k":"v"}]`)

	out, err := execute(NewDiffCommand(&RootOptions{Format: "text"}), a, a)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestDiffCommandRootKindMismatch(t *testing.T) {
	dir := t.TempDir()
	obj := writeDoc(t, dir, "obj.json", `{}`)
	arr := writeDoc(t, dir, "arr.json", `[]`)

	out, err := execute(NewDiffCommand(&RootOptions{Format: "json"}), obj, arr)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDiffFailed, resp.Error.Code)
}

func TestDiffCommandArgs(t *testing.T) {
	_, err := execute(NewDiffCommand(&RootOptions{Format: "text"}), "only-one.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg")
}
