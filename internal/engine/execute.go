package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/store"
)

func (p *Process) execute(ctx context.Context, s *store.Store, cfg config, depth int, payload any) (*Result, error) {
	id := cfg.ids.Generate()
	log := cfg.logger.With(
		zap.String("process", p.name),
		zap.String("execution_id", id),
		zap.Int("depth", depth))

	res := &Result{
		ID:             id,
		Process:        p.name,
		Operations:     []patch.Operation{},
		UndoOperations: []patch.Operation{},
		store:          s,
		cfg:            cfg,
		depth:          depth,
	}
	res.Undo = res.undo

	if depth > cfg.maxDepth {
		err := &ProcessError{
			Code:        ErrCodeDepthExceeded,
			Message:     fmt.Sprintf("nested execution depth %d exceeds limit %d", depth, cfg.maxDepth),
			Process:     p.name,
			ExecutionID: id,
			Unit:        -1,
		}
		log.Warn("execution refused", zap.Error(err))
		return p.finish(res, err)
	}

	if cfg.transformer != nil && payload != nil {
		payload = cfg.transformer(payload)
	}
	res.Payload = payload
	req := Request{Payload: payload, store: s}

	for i, u := range p.Units() {
		ops, failed, err := runUnit(ctx, u, req)
		if err != nil {
			perr := &ProcessError{
				Code:        ErrCodeCommandFailed,
				Message:     "command failed",
				Process:     p.name,
				ExecutionID: id,
				Unit:        i,
				Command:     failed,
				Err:         err,
			}
			log.Warn("execution stopped", zap.Int("unit", i), zap.Error(perr))
			return p.finish(res, perr)
		}

		inverse, err := s.Apply(ops)
		if err != nil {
			perr := &ProcessError{
				Code:        commitErrorCode(err),
				Message:     "batch rejected",
				Process:     p.name,
				ExecutionID: id,
				Unit:        i,
				Command:     u.Name(),
				Err:         err,
			}
			log.Warn("execution stopped", zap.Int("unit", i), zap.Error(perr))
			return p.finish(res, perr)
		}

		res.Operations = append(res.Operations, ops...)
		res.UndoOperations = append(append([]patch.Operation(nil), inverse...), res.UndoOperations...)
		s.Invalidate()

		log.Debug("unit committed",
			zap.Int("unit", i),
			zap.String("command", u.Name()),
			zap.Int("operations", len(ops)))
	}

	log.Debug("execution completed", zap.Int("operations", len(res.Operations)))
	return p.finish(res, nil)
}

func (p *Process) finish(res *Result, err error) (*Result, error) {
	if p.callback != nil {
		p.callback(res, err)
	}
	return res, err
}

// errEmptyUnit is reported for a zero Unit, which holds no command.
var errEmptyUnit = errors.New("unit has no command")

// commandFailure carries the failing command's name out of an errgroup.
type commandFailure struct {
	name string
	err  error
}

func (f *commandFailure) Error() string {
	return f.name + ": " + f.err.Error()
}

// runUnit computes a unit's batch. For groups every command is started
// before any result is awaited and batches are joined in declaration order.
// It returns the failing command's name on error.
func runUnit(ctx context.Context, u Unit, req Request) ([]patch.Operation, string, error) {
	if !u.group {
		if len(u.commands) == 0 {
			return nil, "", errEmptyUnit
		}
		c := u.commands[0]
		ops, err := call(ctx, c, req)
		return ops, c.Name, err
	}

	results := make([][]patch.Operation, len(u.commands))
	var g errgroup.Group
	for i, c := range u.commands {
		i, c := i, c
		g.Go(func() error {
			ops, err := call(ctx, c, req)
			if err != nil {
				return &commandFailure{name: c.Name, err: err}
			}
			results[i] = ops
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var cf *commandFailure
		if errors.As(err, &cf) {
			return nil, cf.name, cf.err
		}
		return nil, u.Name(), err
	}

	var ops []patch.Operation
	for _, r := range results {
		ops = append(ops, r...)
	}
	return ops, u.Name(), nil
}

// call runs one command, turning a panic into an error.
func call(ctx context.Context, c Command, req Request) (ops []patch.Operation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Fn(ctx, req)
}
