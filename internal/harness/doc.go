// Package harness runs YAML scenarios against a store with undo history.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	initial: { todos: [] }
//	steps:
//	  - commit:
//	      - { op: add, path: /todos/-, value: "buy milk" }
//	  - group:
//	      - [ { op: add, path: /a, value: 1 } ]
//	      - [ { op: add, path: /b, value: 2 } ]
//	  - undo: true
//	  - redo: true
//	  - commit:
//	      - { op: test, path: /a, value: 5 }
//	    expect_error: TEST_FAILED
//	assertions:
//	  - type: state
//	    pointer: /todos/0
//	    value: "buy milk"
//	  - type: absent
//	    pointer: /missing
//	  - type: can_undo
//	    value: true
//
// A commit step runs one batch as a single-command process. A group step
// runs its batches as one concurrent unit. Undo and redo move the store's
// history cursor. Every successful commit or group is recorded in history.
//
// # Assertion Types
//
//   - state: the value at pointer equals value
//   - absent: nothing exists at pointer
//   - can_undo: whether an undo is available equals value
//   - can_redo: whether a redo is available equals value
//
// # Deterministic Testing
//
// Execution ids come from a counting generator seeded with the scenario
// name, and the store id is the scenario name, so the trace of a scenario
// is byte-identical across runs. Traces are encoded as canonical JSON for
// golden file comparison.
package harness
