package harness

import "github.com/roach88/patchstore/internal/ir"

// TraceEvent records the outcome of one step.
type TraceEvent struct {
	// Step is the 0-based step index.
	Step int `json:"step"`

	// Kind is the step kind (commit, group, undo, redo).
	Kind string `json:"kind"`

	// Changed lists the paths whose values differ after the step, in
	// diff order.
	Changed []string `json:"changed"`

	// Error is the error code the step failed with, if any.
	Error string `json:"error,omitempty"`

	// State is the snapshot after the step.
	State ir.Value `json:"state"`

	// Version is the store version after the step.
	Version int64 `json:"version"`
}

// toValue converts the event for canonical encoding.
func (e TraceEvent) toValue() ir.Object {
	changed := make(ir.Array, len(e.Changed))
	for i, p := range e.Changed {
		changed[i] = ir.String(p)
	}
	obj := ir.Object{
		"step":    ir.Int(e.Step),
		"kind":    ir.String(e.Kind),
		"changed": changed,
		"state":   e.State,
		"version": ir.Int(e.Version),
	}
	if e.Error != "" {
		obj["error"] = ir.String(e.Error)
	}
	return obj
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step behaved as expected and all assertions hold.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final snapshot.
	State ir.Value `json:"state"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
