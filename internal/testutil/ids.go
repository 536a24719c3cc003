// Package testutil holds deterministic helpers for tests and scenario runs.
package testutil

import (
	"strconv"
	"sync"
)

// CountingGenerator produces ids "<prefix>-1", "<prefix>-2", ...
//
// It satisfies engine.IDGenerator and, through Func, the request id hook of
// the transport client. Unlike engine.SequenceGenerator it never runs out.
//
// Thread-safety: all methods are safe for concurrent use.
type CountingGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewCountingGenerator creates a generator. An empty prefix yields "id".
func NewCountingGenerator(prefix string) *CountingGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &CountingGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *CountingGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.prefix + "-" + strconv.FormatInt(g.n, 10)
}

// Count returns how many ids have been generated.
func (g *CountingGenerator) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Reset restarts the sequence so a scenario can be rerun with identical ids.
func (g *CountingGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

// Func adapts Generate to a plain function.
func (g *CountingGenerator) Func() func() string {
	return g.Generate
}
