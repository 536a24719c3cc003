package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchstore/internal/ir"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_CommitAndAssert(t *testing.T) {
	s := mustParse(t, minimalScenario)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, ir.Object{"a": ir.Int(1)}, result.State)

	require.Len(t, result.Trace, 1)
	event := result.Trace[0]
	assert.Equal(t, 0, event.Step)
	assert.Equal(t, StepCommit, event.Kind)
	assert.Equal(t, []string{"/a"}, event.Changed)
	assert.Empty(t, event.Error)
	assert.Equal(t, int64(1), event.Version)
}

func TestRun_UnexpectedError(t *testing.T) {
	s := mustParse(t, `name: unexpected
description: a failing test op without expect_error
steps:
  - commit:
      - {op: test, path: /a, value: 1}
assertions:
  - type: can_undo
    value: false
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error TEST_FAILED")
	assert.Equal(t, "TEST_FAILED", result.Trace[0].Error)
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s := mustParse(t, `name: missing_error
description: expect_error on a step that succeeds
steps:
  - commit:
      - {op: add, path: /a, value: 1}
    expect_error: TEST_FAILED
assertions:
  - type: can_undo
    value: true
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error TEST_FAILED, step succeeded")
}

func TestRun_WrongErrorCode(t *testing.T) {
	s := mustParse(t, `name: wrong_code
description: the step fails with a different code
initial: {a: 1}
steps:
  - commit:
      - {op: add, path: /a/b, value: 1}
    expect_error: TEST_FAILED
assertions:
  - type: state
    pointer: /a
    value: 1
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error TEST_FAILED, got INVALID_TARGET")
}

func TestRun_GroupRecordsOneEntry(t *testing.T) {
	s := mustParse(t, `name: group_entry
description: a group is one history entry
steps:
  - group:
      - [{op: add, path: /x, value: 1}]
      - [{op: add, path: /y, value: 2}]
      - [{op: add, path: /z, value: 3}]
  - undo: true
assertions:
  - type: state
    pointer: /x
    value: 1
  - type: can_undo
    value: false
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	// The state assertion fails: the single undo reverted the whole group.
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: state")
	assert.Equal(t, ir.Object{}, result.State)
	assert.Equal(t, []string{"/x", "/y", "/z"}, result.Trace[0].Changed)
}

func TestRun_UndoOnEmptyHistoryIsNoop(t *testing.T) {
	s := mustParse(t, `name: empty_undo
description: undo and redo with nothing recorded
initial: [1, 2]
steps:
  - undo: true
  - redo: true
assertions:
  - type: state
    pointer: /0
    value: 1
  - type: can_redo
    value: false
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	for _, event := range result.Trace {
		assert.Empty(t, event.Changed)
		assert.Equal(t, int64(0), event.Version)
	}
}

func TestRun_Deterministic(t *testing.T) {
	s := mustParse(t, minimalScenario)

	first, err := Run(context.Background(), s)
	require.NoError(t, err)
	second, err := Run(context.Background(), s)
	require.NoError(t, err)

	a, err := MarshalTrace(s.Name, first.Trace)
	require.NoError(t, err)
	b, err := MarshalTrace(s.Name, second.Trace)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMarshalTrace(t *testing.T) {
	data, err := MarshalTrace("demo", []TraceEvent{{
		Step:    0,
		Kind:    StepCommit,
		Changed: []string{"/a"},
		Error:   "TEST_FAILED",
		State:   ir.Object{"a": ir.Int(1)},
		Version: 1,
	}})
	require.NoError(t, err)

	assert.Equal(t,
		`{"scenario_name":"demo","trace":[{"changed":["/a"],"error":"TEST_FAILED","kind":"commit","state":{"a":1},"step":0,"version":1}]}`,
		string(data))
}
