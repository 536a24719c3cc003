package history

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/engine"
	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/store"
)

// ErrInvalidCursor is returned by Deserialize for a cursor outside
// [0, len(history)].
var ErrInvalidCursor = errors.New("history cursor out of range")

// ErrEntryMismatch is returned by Deserialize when an entry's id does not
// match its content.
var ErrEntryMismatch = errors.New("history entry id does not match content")

// Entry is one recorded execution.
type Entry struct {
	// ID is the content address of (Seq, Operations).
	ID string `json:"id"`

	// Seq is the 1-based position in the history.
	Seq int64 `json:"seq"`

	Operations     []patch.Operation `json:"operations"`
	UndoOperations []patch.Operation `json:"undo_operations"`
}

// Serialized is the persisted form of one store's history.
type Serialized struct {
	History []Entry `json:"history"`
	Cursor  int     `json:"cursor"`
}

// Manager keeps a linear undo/redo history per store.
//
// Entries before the cursor are applied; entries at or after it form the
// redo tail. Only successful executions are recorded, and recording one
// discards the redo tail.
type Manager struct {
	mu     sync.Mutex
	stores map[*store.Store]*storeHistory
	logger *zap.Logger
}

type storeHistory struct {
	entries []Entry
	cursor  int
}

// NewManager creates a manager with no recorded history.
func NewManager(opts ...Option) *Manager {
	cfg := newConfig(opts)
	return &Manager{
		stores: make(map[*store.Store]*storeHistory),
		logger: cfg.logger,
	}
}

// history returns the record for s, creating it. Caller holds mu.
func (m *Manager) history(s *store.Store) *storeHistory {
	h, ok := m.stores[s]
	if !ok {
		h = &storeHistory{}
		m.stores[s] = h
	}
	return h
}

// Collector returns a callback that records every successful execution
// against its store, then forwards to next (which may be nil).
func (m *Manager) Collector(next engine.Callback) engine.Callback {
	return func(res *engine.Result, err error) {
		if err == nil && res != nil {
			if recErr := m.record(res); recErr != nil {
				m.logger.Error("failed to record execution",
					zap.String("process", res.Process),
					zap.String("execution_id", res.ID),
					zap.Error(recErr))
			}
		}
		if next != nil {
			next(res, err)
		}
	}
}

func (m *Manager) record(res *engine.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.history(res.Store())
	dropped := len(h.entries) - h.cursor
	h.entries = h.entries[:h.cursor]

	seq := int64(len(h.entries) + 1)
	id, err := ir.EntryID(seq, patch.ToValue(res.Operations))
	if err != nil {
		return err
	}
	h.entries = append(h.entries, Entry{
		ID:             id,
		Seq:            seq,
		Operations:     res.Operations,
		UndoOperations: res.UndoOperations,
	})
	h.cursor = len(h.entries)

	m.logger.Debug("execution recorded",
		zap.String("store_id", res.Store().ID()),
		zap.String("process", res.Process),
		zap.Int64("seq", seq),
		zap.Int("redo_dropped", dropped))
	return nil
}

// Undo reverts the entry before the cursor. It is a no-op at the start of
// the history. On error the cursor does not move.
func (m *Manager) Undo(s *store.Store) error {
	m.mu.Lock()
	h := m.history(s)
	if h.cursor == 0 {
		m.mu.Unlock()
		return nil
	}
	e := h.entries[h.cursor-1]
	if _, err := s.Apply(e.UndoOperations); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("undo entry %d: %w", e.Seq, err)
	}
	h.cursor--
	m.mu.Unlock()

	m.logger.Debug("undo", zap.String("store_id", s.ID()), zap.Int64("seq", e.Seq))
	s.Invalidate()
	return nil
}

// Redo reapplies the entry at the cursor. It is a no-op at the end of the
// history. The entry's inverse is refreshed from the new commit.
func (m *Manager) Redo(s *store.Store) error {
	m.mu.Lock()
	h := m.history(s)
	if h.cursor == len(h.entries) {
		m.mu.Unlock()
		return nil
	}
	e := h.entries[h.cursor]
	inverse, err := s.Apply(e.Operations)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("redo entry %d: %w", e.Seq, err)
	}
	h.entries[h.cursor].UndoOperations = inverse
	h.cursor++
	m.mu.Unlock()

	m.logger.Debug("redo", zap.String("store_id", s.ID()), zap.Int64("seq", e.Seq))
	s.Invalidate()
	return nil
}

// CanUndo reports whether Undo would change the store.
func (m *Manager) CanUndo(s *store.Store) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.stores[s]
	return ok && h.cursor > 0
}

// CanRedo reports whether Redo would change the store.
func (m *Manager) CanRedo(s *store.Store) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.stores[s]
	return ok && h.cursor < len(h.entries)
}

// Serialize returns the store's history in persisted form.
func (m *Manager) Serialize(s *store.Store) Serialized {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := Serialized{History: []Entry{}}
	h, ok := m.stores[s]
	if !ok {
		return out
	}
	out.History = append(out.History, h.entries...)
	out.Cursor = h.cursor
	return out
}

// Deserialize replays data into s and makes it the store's history.
//
// Entries before the cursor are applied in order; the rest become the
// redo tail. Every entry's id is checked against its content. On error
// the store keeps whatever was applied so far and its history is left
// unchanged.
func (m *Manager) Deserialize(s *store.Store, data Serialized) error {
	if data.Cursor < 0 || data.Cursor > len(data.History) {
		return fmt.Errorf("%w: cursor %d, %d entries", ErrInvalidCursor, data.Cursor, len(data.History))
	}

	entries := make([]Entry, len(data.History))
	for i, e := range data.History {
		seq := int64(i + 1)
		id, err := ir.EntryID(seq, patch.ToValue(e.Operations))
		if err != nil {
			return fmt.Errorf("entry %d: %w", seq, err)
		}
		if e.ID != "" && e.ID != id {
			return fmt.Errorf("%w: entry %d", ErrEntryMismatch, seq)
		}
		entries[i] = Entry{
			ID:             id,
			Seq:            seq,
			Operations:     e.Operations,
			UndoOperations: e.UndoOperations,
		}
	}

	m.mu.Lock()
	for i := 0; i < data.Cursor; i++ {
		inverse, err := s.Apply(entries[i].Operations)
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("replay entry %d: %w", entries[i].Seq, err)
		}
		entries[i].UndoOperations = inverse
	}
	m.stores[s] = &storeHistory{entries: entries, cursor: data.Cursor}
	m.mu.Unlock()

	m.logger.Debug("history restored",
		zap.String("store_id", s.ID()),
		zap.Int("entries", len(entries)),
		zap.Int("cursor", data.Cursor))
	s.Invalidate()
	return nil
}

// Release drops the history recorded for s.
func (m *Manager) Release(s *store.Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, s)
}
