package store

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/pointer"
)

// Store holds the current snapshot of a state tree.
type Store struct {
	id      string
	logger  *zap.Logger
	initial ir.Value

	// mu serializes writers; readers go through root only.
	mu    sync.Mutex
	root  atomic.Pointer[snapshot]
	clock *Clock

	subsMu sync.RWMutex
	subs   map[uint64]func()
	nextID uint64
}

type snapshot struct {
	value ir.Value
}

// New creates a store. Without WithInitial it starts as an empty object.
func New(opts ...Option) *Store {
	s := &Store{
		id:     uuid.NewString(),
		logger: zap.NewNop(),
		clock:  NewClock(),
		subs:   make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(s)
	}

	initial := s.initial
	if initial == nil {
		initial = ir.Object{}
	}
	s.initial = nil
	s.root.Store(&snapshot{value: initial})
	s.logger = s.logger.With(zap.String("store_id", s.id))
	return s
}

// ID returns the store identity. It labels logs and traces.
func (s *Store) ID() string {
	return s.id
}

// Snapshot returns the current state tree. The result must not be modified.
func (s *Store) Snapshot() ir.Value {
	return s.root.Load().value
}

// Version returns the number of batches committed so far.
func (s *Store) Version() int64 {
	return s.clock.Current()
}

// Get reads the value at p from the current snapshot.
func (s *Store) Get(p pointer.Pointer) (ir.Value, bool) {
	return p.Resolve(s.Snapshot())
}

// Apply commits ops as one batch and returns the inverse batch.
// On error the snapshot is unchanged. Apply does not notify subscribers.
func (s *Store) Apply(ops []patch.Operation) ([]patch.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := patch.Apply(ops, s.Snapshot())
	if err != nil {
		s.logger.Debug("batch rejected",
			zap.Int("operations", len(ops)),
			zap.Error(err))
		return nil, err
	}

	s.root.Store(&snapshot{value: res.Root})
	version := s.clock.Next()

	s.logger.Debug("batch committed",
		zap.Int("operations", len(ops)),
		zap.Int64("version", version))
	return res.Inverse, nil
}

// Invalidate signals every subscriber that state changed.
// Subscribers are called synchronously, in no particular order.
func (s *Store) Invalidate() {
	s.subsMu.RLock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// Subscribe registers fn to run on every Invalidate.
// The returned function unsubscribes; calling it more than once is safe.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	s.subsMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Store) Subscribers() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.subs)
}

// Path builds a pointer from literal segments.
// It panics on an empty path: command code builds paths from constants.
func (s *Store) Path(segments ...string) pointer.Pointer {
	p, err := pointer.FromSegments(segments)
	if err != nil {
		panic(fmt.Sprintf("store.Path: %v", err))
	}
	return p
}

// At returns the pointer to element i of the array at p.
func (s *Store) At(p pointer.Pointer, i int) pointer.Pointer {
	return p.Index(i)
}
