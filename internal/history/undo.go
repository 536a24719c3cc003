package history

import (
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/engine"
)

// UndoManager is a stack of undo closures collected from executions.
type UndoManager struct {
	mu     sync.Mutex
	stack  []*undoEntry
	logger *zap.Logger
}

type undoEntry struct {
	undo    func() error
	process string
}

// NewUndoManager creates an empty undo stack.
func NewUndoManager(opts ...Option) *UndoManager {
	cfg := newConfig(opts)
	return &UndoManager{logger: cfg.logger}
}

// Collector returns a callback that pushes every successful execution's
// undo onto the stack, then forwards to next (which may be nil).
//
// The result's Undo is replaced with a wrapper that first removes the
// entry from the stack, so undoing an execution directly never leaves a
// stale entry behind for Undo to apply twice.
//
// Collector has the CallbackDecorator shape and can be given to
// engine.NewFactory directly.
func (m *UndoManager) Collector(next engine.Callback) engine.Callback {
	return func(res *engine.Result, err error) {
		if err == nil && res != nil {
			e := &undoEntry{undo: res.Undo, process: res.Process}
			m.mu.Lock()
			m.stack = append(m.stack, e)
			m.mu.Unlock()

			res.Undo = func() error {
				m.remove(e)
				return e.undo()
			}
		}
		if next != nil {
			next(res, err)
		}
	}
}

// Undo pops the most recent entry and runs it. It is a no-op on an empty
// stack.
func (m *UndoManager) Undo() error {
	m.mu.Lock()
	if len(m.stack) == 0 {
		m.mu.Unlock()
		return nil
	}
	e := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	m.mu.Unlock()

	m.logger.Debug("undo", zap.String("process", e.process))
	return e.undo()
}

// Len returns the number of entries on the stack.
func (m *UndoManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack)
}

func (m *UndoManager) remove(e *undoEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, other := range m.stack {
		if other == e {
			m.stack = append(m.stack[:i], m.stack[i+1:]...)
			return
		}
	}
}
