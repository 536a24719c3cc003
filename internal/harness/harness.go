package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/engine"
	"github.com/roach88/patchstore/internal/history"
	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/store"
	"github.com/roach88/patchstore/internal/testutil"
)

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger sets the logger shared by the store, engine and history.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Harness holds the live objects of one scenario run.
type Harness struct {
	store   *store.Store
	history *history.Manager
	commit  *engine.Process
	factory *engine.Factory
	execOpt []engine.ExecutorOption
	logger  *zap.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh store. Step failures that were not
// expected, and failed assertions, are reported in the result; the error
// return is reserved for scenarios that cannot run at all.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	initial, err := scenario.initialState()
	if err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}

	h := &Harness{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}

	h.store = store.New(
		store.WithInitial(initial),
		store.WithID(scenario.Name),
		store.WithLogger(h.logger))
	h.history = history.NewManager(history.WithLogger(h.logger))
	h.factory = engine.NewFactory(h.history.Collector)
	h.execOpt = []engine.ExecutorOption{
		engine.WithIDGenerator(testutil.NewCountingGenerator(scenario.Name)),
		engine.WithLogger(h.logger),
	}
	h.commit = h.factory.NewProcess(StepCommit, []engine.Unit{
		engine.Single(batchCommand("batch", -1)),
	})

	result := NewResult()
	for i, step := range scenario.Steps {
		event, err := h.runStep(ctx, i, step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		result.Trace = append(result.Trace, event)

		switch {
		case step.ExpectError == "" && event.Error != "":
			result.AddError(fmt.Sprintf("steps[%d] (%s): unexpected error %s", i, event.Kind, event.Error))
		case step.ExpectError != "" && event.Error == "":
			result.AddError(fmt.Sprintf("steps[%d] (%s): expected error %s, step succeeded", i, event.Kind, step.ExpectError))
		case step.ExpectError != event.Error:
			result.AddError(fmt.Sprintf("steps[%d] (%s): expected error %s, got %s", i, event.Kind, step.ExpectError, event.Error))
		}

		h.logger.Debug("step completed",
			zap.Int("step", i),
			zap.String("kind", event.Kind),
			zap.String("error", event.Error),
			zap.Int64("version", event.Version))
	}

	result.State = h.store.Snapshot()
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h) {
		result.AddError(msg)
	}
	return result, nil
}

// runStep executes one step. Step failures are recorded in the event;
// the returned error means the step could not be interpreted.
func (h *Harness) runStep(ctx context.Context, index int, step Step) (TraceEvent, error) {
	before := h.store.Snapshot()
	event := TraceEvent{Step: index, Kind: step.Kind()}

	var stepErr error
	switch event.Kind {
	case StepCommit:
		ops, err := toBatch(step.Commit)
		if err != nil {
			return event, err
		}
		_, stepErr = h.commit.Run(ctx, h.store, ops, h.execOpt...)

	case StepGroup:
		commands := make([]engine.Command, len(step.Group))
		batches := make([][]patch.Operation, len(step.Group))
		for j, raw := range step.Group {
			ops, err := toBatch(raw)
			if err != nil {
				return event, fmt.Errorf("group[%d]: %w", j, err)
			}
			batches[j] = ops
			commands[j] = batchCommand(fmt.Sprintf("batch-%d", j), j)
		}
		p := h.factory.NewProcess(StepGroup, []engine.Unit{engine.Group(commands...)})
		_, stepErr = p.Run(ctx, h.store, batches, h.execOpt...)

	case StepUndo:
		stepErr = h.history.Undo(h.store)

	case StepRedo:
		stepErr = h.history.Redo(h.store)

	default:
		return event, fmt.Errorf("exactly one of commit, group, undo or redo is required")
	}

	if stepErr != nil {
		event.Error = errorCode(stepErr)
	}

	after := h.store.Snapshot()
	changes, err := patch.Diff(before, after)
	if err != nil {
		return event, err
	}
	event.Changed = patch.Paths(changes)
	event.State = after
	event.Version = h.store.Version()
	return event, nil
}

// batchCommand returns a command that yields a batch from the payload.
// A commit payload is one batch; a group payload holds one batch per
// command, selected by index.
func batchCommand(name string, index int) engine.Command {
	return engine.NewCommand(name, func(_ context.Context, req engine.Request) ([]patch.Operation, error) {
		switch payload := req.Payload.(type) {
		case []patch.Operation:
			return payload, nil
		case [][]patch.Operation:
			if index < 0 || index >= len(payload) {
				return nil, fmt.Errorf("no batch for %s", name)
			}
			return payload[index], nil
		default:
			return nil, fmt.Errorf("unexpected payload %T", req.Payload)
		}
	})
}

// errorCode extracts the most specific code from a step error.
func errorCode(err error) string {
	if code := engine.Code(err); code != "" {
		return string(code)
	}
	if code := patch.ErrorCode(err); code != "" {
		return string(code)
	}
	return "ERROR"
}

// Store returns the store of the run, for assertion evaluation.
func (h *Harness) Store() *store.Store {
	return h.store
}

// snapshotOf is a helper for readable failure messages.
func snapshotOf(v ir.Value) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
