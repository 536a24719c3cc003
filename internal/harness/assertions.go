package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/pointer"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		line := fmt.Sprintf("  [%d] %s changed=%v", event.Step, event.Kind, event.Changed)
		if event.Error != "" {
			line += " error=" + event.Error
		}
		fmt.Fprintln(&buf, line)
	}

	return buf.String()
}

// assertState checks that the value at the pointer equals the expected value.
func assertState(root ir.Value, trace []TraceEvent, assertion Assertion) error {
	p, err := pointer.Parse(assertion.Pointer)
	if err != nil {
		return err
	}
	want, err := assertion.expectedValue()
	if err != nil {
		return err
	}

	got, found := p.Resolve(root)
	if !found {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s = %s", p, snapshotOf(want)),
			Actual:   "absent",
			Trace:    trace,
		}
	}
	if !ir.Equal(want, got) {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s = %s", p, snapshotOf(want)),
			Actual:   fmt.Sprintf("%s = %s", p, snapshotOf(got)),
			Trace:    trace,
		}
	}
	return nil
}

// assertAbsent checks that nothing exists at the pointer.
func assertAbsent(root ir.Value, trace []TraceEvent, assertion Assertion) error {
	p, err := pointer.Parse(assertion.Pointer)
	if err != nil {
		return err
	}
	if got, found := p.Resolve(root); found {
		return &AssertionError{
			Type:     AssertAbsent,
			Expected: fmt.Sprintf("%s absent", p),
			Actual:   fmt.Sprintf("%s = %s", p, snapshotOf(got)),
			Trace:    trace,
		}
	}
	return nil
}

// assertAvailability compares an undo/redo availability flag.
func assertAvailability(actual bool, trace []TraceEvent, assertion Assertion) error {
	want, err := assertion.expectedBool()
	if err != nil {
		return err
	}
	if want != actual {
		return &AssertionError{
			Type:     assertion.Type,
			Expected: fmt.Sprintf("%s = %t", assertion.Type, want),
			Actual:   fmt.Sprintf("%s = %t", assertion.Type, actual),
			Trace:    trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions and returns error messages.
// Returns an empty slice if all assertions pass.
func EvaluateAssertions(result *Result, assertions []Assertion, h *Harness) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertState:
			err = assertState(result.State, result.Trace, assertion)
		case AssertAbsent:
			err = assertAbsent(result.State, result.Trace, assertion)
		case AssertCanUndo, AssertCanRedo:
			if h == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a history", i, assertion.Type)
				break
			}
			actual := h.history.CanUndo(h.store)
			if assertion.Type == AssertCanRedo {
				actual = h.history.CanRedo(h.store)
			}
			err = assertAvailability(actual, result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
