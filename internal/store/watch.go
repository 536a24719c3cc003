package store

import "sync"

// Watch returns a channel that receives a signal after Invalidate.
//
// The channel has a buffer of one and signals coalesce: a burst of
// invalidations while the consumer is busy yields a single pending signal.
// The consumer re-reads state on each receive. cancel unsubscribes and
// closes the channel.
func (s *Store) Watch() (<-chan struct{}, func()) {
	w := &watcher{signal: make(chan struct{}, 1)}
	unsubscribe := s.Subscribe(w.notify)

	return w.signal, func() {
		unsubscribe()
		w.close()
	}
}

type watcher struct {
	mu     sync.Mutex
	closed bool
	signal chan struct{}
}

func (w *watcher) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.signal)
	}
}
