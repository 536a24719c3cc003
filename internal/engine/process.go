package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/store"
)

// DefaultMaxDepth bounds nested executions started through Result.Execute.
const DefaultMaxDepth = 32

// Transformer maps the caller's payload before the first command runs.
// It is skipped when the payload is nil.
type Transformer func(payload any) any

// Process is an immutable, reusable definition: a name, ordered units and
// an optional callback.
type Process struct {
	name     string
	units    []Unit
	callback Callback
}

// ProcessOption configures a Process.
type ProcessOption func(*Process)

// WithCallback sets the callback invoked after every execution.
func WithCallback(cb Callback) ProcessOption {
	return func(p *Process) {
		p.callback = cb
	}
}

// NewProcess creates a process. The units slice is copied so later changes
// by the caller cannot affect the definition.
func NewProcess(name string, units []Unit, opts ...ProcessOption) *Process {
	p := &Process{
		name:  name,
		units: append([]Unit(nil), units...),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the process name.
func (p *Process) Name() string {
	return p.name
}

// Units returns a copy of the process units.
func (p *Process) Units() []Unit {
	return append([]Unit(nil), p.units...)
}

// Executor runs one execution of a process against a bound store.
type Executor func(ctx context.Context, payload any) (*Result, error)

// config is shared by an executor and every nested execution it starts.
type config struct {
	transformer Transformer
	logger      *zap.Logger
	ids         IDGenerator
	maxDepth    int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*config)

// WithTransformer sets the payload transformer.
func WithTransformer(t Transformer) ExecutorOption {
	return func(c *config) {
		c.transformer = t
	}
}

// WithLogger sets the logger for execution diagnostics.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator sets the execution id source.
//
// Default: UUIDv7Generator. Use NewSequenceGenerator in tests that compare
// ids.
func WithIDGenerator(g IDGenerator) ExecutorOption {
	return func(c *config) {
		c.ids = g
	}
}

// WithMaxDepth sets how deep nested executions may go.
//
// Default: 32 (DefaultMaxDepth). The top-level execution has depth 0.
func WithMaxDepth(depth int) ExecutorOption {
	return func(c *config) {
		c.maxDepth = depth
	}
}

func newConfig(opts []ExecutorOption) config {
	c := config{
		logger:   zap.NewNop(),
		ids:      UUIDv7Generator{},
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Executor binds the process to s.
func (p *Process) Executor(s *store.Store, opts ...ExecutorOption) Executor {
	cfg := newConfig(opts)
	return func(ctx context.Context, payload any) (*Result, error) {
		return p.execute(ctx, s, cfg, 0, payload)
	}
}

// Run is shorthand for p.Executor(s, opts...)(ctx, payload).
func (p *Process) Run(ctx context.Context, s *store.Store, payload any, opts ...ExecutorOption) (*Result, error) {
	return p.Executor(s, opts...)(ctx, payload)
}

// NewStore creates a store and runs each bootstrap process against it in
// order, without payload. It stops at the first failing process and returns
// that error along with the store as far as it got.
func NewStore(ctx context.Context, processes []*Process, opts ...store.Option) (*store.Store, error) {
	s := store.New(opts...)
	for i, p := range processes {
		if _, err := p.Run(ctx, s, nil); err != nil {
			return s, fmt.Errorf("bootstrap process %d (%s): %w", i, p.Name(), err)
		}
	}
	return s, nil
}
