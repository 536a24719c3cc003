package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Golden comparison outcomes.
const (
	GoldenMatch    = "match"
	GoldenMismatch = "mismatch"
	GoldenUpdated  = "updated"
	GoldenMissing  = "missing"
)

// SuiteOptions controls RunSuite.
type SuiteOptions struct {
	// Filter is a glob matched against scenario file names without extension.
	Filter string

	// GoldenDir holds golden files named {scenario.Name}.golden.
	// Defaults to a "golden" directory next to each scenario file.
	GoldenDir string

	// Update rewrites golden files instead of comparing against them.
	Update bool

	// Options are passed to every Run.
	Options []Option
}

// ScenarioOutcome is the result of one scenario file in a suite.
type ScenarioOutcome struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden"`
	Errors []string `json:"errors,omitempty"`
}

// SuiteResult aggregates a suite run.
type SuiteResult struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// FindScenarios returns the YAML files under dir whose base name (without
// extension) matches filter, in lexical order. An empty filter matches all.
func FindScenarios(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// RunSuite runs every scenario under dir and compares traces against
// golden files where they exist.
func RunSuite(ctx context.Context, dir string, opts SuiteOptions) (*SuiteResult, error) {
	files, err := FindScenarios(dir, opts.Filter)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{Scenarios: make([]ScenarioOutcome, 0, len(files))}
	for _, file := range files {
		outcome := runScenarioFile(ctx, file, opts)
		result.Scenarios = append(result.Scenarios, outcome)
		result.Total++
		if outcome.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

func runScenarioFile(ctx context.Context, file string, opts SuiteOptions) ScenarioOutcome {
	outcome := ScenarioOutcome{Name: filepath.Base(file), Path: file}
	fail := func(msg string) ScenarioOutcome {
		outcome.Pass = false
		outcome.Errors = append(outcome.Errors, msg)
		return outcome
	}

	scenario, err := LoadScenario(file)
	if err != nil {
		return fail(fmt.Sprintf("failed to load scenario: %v", err))
	}
	outcome.Name = scenario.Name

	result, err := Run(ctx, scenario, opts.Options...)
	if err != nil {
		return fail(fmt.Sprintf("execution failed: %v", err))
	}
	outcome.Pass = result.Pass
	outcome.Errors = append(outcome.Errors, result.Errors...)

	traceJSON, err := MarshalTrace(scenario.Name, result.Trace)
	if err != nil {
		return fail(fmt.Sprintf("failed to marshal trace: %v", err))
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(filepath.Dir(file), "golden")
	}
	goldenPath := filepath.Join(goldenDir, scenario.Name+".golden")

	if opts.Update {
		if err := os.MkdirAll(goldenDir, 0o755); err != nil {
			return fail(fmt.Sprintf("failed to create golden directory: %v", err))
		}
		if err := os.WriteFile(goldenPath, traceJSON, 0o644); err != nil {
			return fail(fmt.Sprintf("failed to write golden file: %v", err))
		}
		outcome.Golden = GoldenUpdated
		return outcome
	}

	want, err := os.ReadFile(goldenPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No golden file: assertion-based validation only
		outcome.Golden = GoldenMissing
	case err != nil:
		return fail(fmt.Sprintf("failed to read golden file: %v", err))
	case bytes.Equal(bytes.TrimSpace(want), traceJSON):
		outcome.Golden = GoldenMatch
	default:
		outcome.Golden = GoldenMismatch
		return fail("trace does not match golden file (run with --update to regenerate)")
	}
	return outcome
}
