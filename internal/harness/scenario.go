package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/pointer"
)

// Scenario defines a sequence of commits and history moves plus the
// assertions that must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Initial is the starting state. Defaults to an empty object.
	Initial any `yaml:"initial,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and history.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one action in a scenario. Exactly one of Commit, Group, Undo
// or Redo is set.
type Step struct {
	// Commit is a batch in document form.
	Commit []any `yaml:"commit,omitempty"`

	// Group lists batches that run concurrently as one unit.
	Group [][]any `yaml:"group,omitempty"`

	Undo bool `yaml:"undo,omitempty"`
	Redo bool `yaml:"redo,omitempty"`

	// ExpectError is the error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step kinds, as reported in traces.
const (
	StepCommit = "commit"
	StepGroup  = "group"
	StepUndo   = "undo"
	StepRedo   = "redo"
)

// Kind returns the step kind, or "" when none or several are set.
func (s Step) Kind() string {
	var kinds []string
	if s.Commit != nil {
		kinds = append(kinds, StepCommit)
	}
	if s.Group != nil {
		kinds = append(kinds, StepGroup)
	}
	if s.Undo {
		kinds = append(kinds, StepUndo)
	}
	if s.Redo {
		kinds = append(kinds, StepRedo)
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Assertion validates the final state or history.
type Assertion struct {
	// Type specifies the assertion type:
	// - "state": the value at Pointer equals Value
	// - "absent": nothing exists at Pointer
	// - "can_undo" / "can_redo": availability equals Value (a bool)
	Type string `yaml:"type"`

	// Pointer addresses the checked location (state, absent).
	Pointer string `yaml:"pointer,omitempty"`

	// Value is the expected value. Kept as a node so an explicit null is
	// distinguishable from a missing field.
	Value yaml.Node `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertState   = "state"
	AssertAbsent  = "absent"
	AssertCanUndo = "can_undo"
	AssertCanRedo = "can_redo"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := s.initialState(); err != nil {
		return fmt.Errorf("initial: %w", err)
	}

	for i, step := range s.Steps {
		switch step.Kind() {
		case "":
			return fmt.Errorf("steps[%d]: exactly one of commit, group, undo or redo is required", i)
		case StepCommit:
			if _, err := toBatch(step.Commit); err != nil {
				return fmt.Errorf("steps[%d].commit: %w", i, err)
			}
		case StepGroup:
			if len(step.Group) == 0 {
				return fmt.Errorf("steps[%d].group: at least one batch is required", i)
			}
			for j, b := range step.Group {
				if _, err := toBatch(b); err != nil {
					return fmt.Errorf("steps[%d].group[%d]: %w", i, j, err)
				}
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertState, AssertAbsent:
		if _, err := pointer.Parse(a.Pointer); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Type == AssertState {
			if _, err := a.expectedValue(); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertCanUndo, AssertCanRedo:
		if _, err := a.expectedBool(); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// initialState converts Initial to a value.
func (s *Scenario) initialState() (ir.Value, error) {
	if s.Initial == nil {
		return ir.Object{}, nil
	}
	v, err := ir.FromAny(s.Initial)
	if err != nil {
		return nil, err
	}
	if !ir.IsContainer(v) {
		return nil, fmt.Errorf("must be an object or array, got %s", ir.TypeName(v))
	}
	return v, nil
}

func (a *Assertion) expectedValue() (ir.Value, error) {
	if a.Value.Kind == 0 {
		return nil, fmt.Errorf("value is required for %s", a.Type)
	}
	var raw any
	if err := a.Value.Decode(&raw); err != nil {
		return nil, err
	}
	return ir.FromAny(raw)
}

func (a *Assertion) expectedBool() (bool, error) {
	if a.Value.Kind == 0 {
		return false, fmt.Errorf("value is required for %s", a.Type)
	}
	var b bool
	if err := a.Value.Decode(&b); err != nil {
		return false, fmt.Errorf("%s value must be a bool: %w", a.Type, err)
	}
	return b, nil
}

// toBatch converts a YAML batch into operations.
func toBatch(raw []any) ([]patch.Operation, error) {
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, err
	}
	return patch.FromValue(v)
}
