package engine

import (
	"context"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/pointer"
	"github.com/roach88/patchstore/internal/store"
)

// Result is the aggregate of one execution.
//
// On failure it holds what was committed before the failing unit, and
// Undo reverts exactly that.
type Result struct {
	// ID identifies the execution.
	ID string

	// Process is the process name.
	Process string

	// Operations are the forward operations committed, in commit order.
	Operations []patch.Operation

	// UndoOperations revert Operations when applied as one batch.
	UndoOperations []patch.Operation

	// Payload is the payload after transformation.
	Payload any

	// Undo applies UndoOperations and invalidates the store.
	// Collectors may replace it with a wrapper.
	Undo func() error

	store *store.Store
	cfg   config
	depth int
}

// Store returns the store the execution ran against.
func (r *Result) Store() *store.Store {
	return r.store
}

// Get reads the value at p from the store's current snapshot.
func (r *Result) Get(p pointer.Pointer) (ir.Value, bool) {
	return r.store.Get(p)
}

// Path builds a pointer from literal segments.
func (r *Result) Path(segments ...string) pointer.Pointer {
	return r.store.Path(segments...)
}

// At returns the pointer to element i of the array at p.
func (r *Result) At(p pointer.Pointer, i int) pointer.Pointer {
	return r.store.At(p, i)
}

// Apply commits ops to the store and returns their inverse, invalidating
// the store when invalidate is set.
func (r *Result) Apply(ops []patch.Operation, invalidate bool) ([]patch.Operation, error) {
	inverse, err := r.store.Apply(ops)
	if err != nil {
		return nil, err
	}
	if invalidate {
		r.store.Invalidate()
	}
	return inverse, nil
}

// Execute runs p against the same store as a nested execution. It inherits
// this execution's logger, id generator and depth limit, but not its
// transformer.
func (r *Result) Execute(ctx context.Context, p *Process, payload any, opts ...ExecutorOption) (*Result, error) {
	cfg := r.cfg
	cfg.transformer = nil
	for _, opt := range opts {
		opt(&cfg)
	}
	return p.execute(ctx, r.store, cfg, r.depth+1, payload)
}

func (r *Result) undo() error {
	if len(r.UndoOperations) == 0 {
		return nil
	}
	if _, err := r.store.Apply(r.UndoOperations); err != nil {
		return err
	}
	r.store.Invalidate()
	return nil
}
