package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/pointer"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, code, le.Code)
}

var wantState = ir.Object{
	"title": ir.String("groceries"),
	"count": ir.Int(2),
	"done":  ir.Bool(false),
	"note":  ir.Null{},
	"items": ir.Array{ir.String("milk"), ir.String("eggs")},
}

func TestLoadFileFormats(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"state.json", `{"title":"groceries","count":2,"done":false,"note":null,"items":["milk","eggs"]}`},
		{"state.yaml", "title: groceries\ncount: 2\ndone: false\nnote: null\nitems:\n  - milk\n  - eggs\n"},
		{"state.yml", "title: groceries\ncount: 2\ndone: false\nnote: ~\nitems: [milk, eggs]\n"},
		{"state.cue", "title: \"groceries\"\ncount: 1 + 1\ndone: false\nnote: null\nitems: [\"milk\", \"eggs\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := LoadFile(writeFile(t, tt.name, tt.content))
			require.NoError(t, err)
			assert.True(t, ir.Equal(wantState, v), "got %#v", v)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    string
	}{
		{"unknown extension", "state.toml", "a = 1", ErrCodeUnsupportedFormat},
		{"json syntax", "state.json", `{"a":`, ErrCodeParseFailed},
		{"json trailing data", "state.json", `{"a":1} {}`, ErrCodeParseFailed},
		{"json float", "state.json", `{"a":1.5}`, ErrCodeInvalidValue},
		{"yaml syntax", "state.yaml", "a: [1, 2", ErrCodeParseFailed},
		{"yaml float", "state.yaml", "a: 1.5\n", ErrCodeInvalidValue},
		{"cue conflict", "state.cue", "a: 1\na: 2\n", ErrCodeBuildFailed},
		{"cue incomplete", "state.cue", "a: int\n", ErrCodeNotConcrete},
		{"cue float", "state.cue", "a: 1.5\n", ErrCodeInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.file, tt.content))
			requireCode(t, err, tt.code)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	requireCode(t, err, ErrCodeNotFound)
	assert.Contains(t, err.Error(), "missing.json")
}

func TestCUEErrorCarriesPosition(t *testing.T) {
	path := writeFile(t, "state.cue", "a: 1\nb: 2\nb: 3\n")
	_, err := LoadFile(path)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, le.Pos.IsValid(), "expected position in %v", err)
}

func TestLoadPatch(t *testing.T) {
	want := []patch.Operation{
		patch.Add(pointer.MustParse("/todos/-"), ir.String("a")),
		patch.Test(pointer.MustParse("/count"), ir.Int(1)),
		patch.Remove(pointer.MustParse("/old")),
	}

	tests := []struct {
		name    string
		content string
	}{
		{"patch.json", `[{"op":"add","path":"/todos/-","value":"a"},{"op":"test","path":"/count","value":1},{"op":"remove","path":"/old"}]`},
		{"patch.yaml", "operations:\n  - {op: add, path: /todos/-, value: a}\n  - {op: test, path: /count, value: 1}\n  - {op: remove, path: /old}\n"},
		{"patch.cue", "operations: [\n\t{op: \"add\", path: \"/todos/-\", value: \"a\"},\n\t{op: \"test\", path: \"/count\", value: 1},\n\t{op: \"remove\", path: \"/old\"},\n]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := LoadPatch(writeFile(t, tt.name, tt.content))
			require.NoError(t, err)
			assert.Equal(t, want, ops)
		})
	}
}

func TestLoadPatchErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not a batch", `"add"`},
		{"missing operations", `{"ops":[]}`},
		{"unknown op", `[{"op":"move","path":"/a"}]`},
		{"bad pointer", `[{"op":"remove","path":"/a~9"}]`},
		{"missing value", `[{"op":"add","path":"/a"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPatch(writeFile(t, "patch.json", tt.content))
			requireCode(t, err, ErrCodeInvalidPatch)
		})
	}
}

func TestLoadHistory(t *testing.T) {
	content := `history:
  - id: abc
    seq: 1
    operations:
      - {op: add, path: /a, value: 1}
    undo_operations:
      - {op: test, path: /a, value: 1}
      - {op: remove, path: /a}
cursor: 1
`
	h, err := LoadHistory(writeFile(t, "history.yaml", content))
	require.NoError(t, err)

	require.Len(t, h.History, 1)
	assert.Equal(t, 1, h.Cursor)
	assert.Equal(t, "abc", h.History[0].ID)
	assert.Equal(t, int64(1), h.History[0].Seq)
	assert.Equal(t, []patch.Operation{patch.Add(pointer.MustParse("/a"), ir.Int(1))}, h.History[0].Operations)
	assert.Len(t, h.History[0].UndoOperations, 2)
}

func TestLoadHistoryRejectsWrongShape(t *testing.T) {
	_, err := LoadHistory(writeFile(t, "history.json", `{"history":"nope","cursor":0}`))
	requireCode(t, err, ErrCodeParseFailed)
}
