package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchstore/internal/engine"
	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/store"
)

func TestUndoManagerUndoesMostRecent(t *testing.T) {
	m := NewUndoManager()
	s := store.New()
	p := incrementProcess(m.Collector(nil))

	run(t, p, s)
	run(t, p, s)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Undo())
	assert.Equal(t, ir.Int(1), counter(s))
	require.NoError(t, m.Undo())
	assert.Nil(t, counter(s))

	// Empty stack is a no-op
	require.NoError(t, m.Undo())
	assert.Equal(t, 0, m.Len())
}

func TestUndoManagerLocalUndoRemovesEntry(t *testing.T) {
	m := NewUndoManager()
	s := store.New()
	p := incrementProcess(m.Collector(nil))

	run(t, p, s)
	second := run(t, p, s)
	assert.Equal(t, 2, m.Len())

	// Undo the latest directly; the stack must not offer it again
	require.NoError(t, second.Undo())
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, ir.Int(1), counter(s))

	require.NoError(t, m.Undo())
	assert.Nil(t, counter(s))
	assert.Equal(t, 0, m.Len())
}

func TestUndoManagerSkipsFailures(t *testing.T) {
	m := NewUndoManager()
	s := store.New()
	var got error
	p := failingProcess(m.Collector(func(_ *engine.Result, err error) { got = err }))

	_, err := p.Run(context.Background(), s, nil)
	require.Error(t, err)
	assert.Equal(t, err, got, "failures are still forwarded")
	assert.Equal(t, 0, m.Len())
}

func TestUndoManagersAreIndependent(t *testing.T) {
	a, b := NewUndoManager(), NewUndoManager()
	s := store.New()

	run(t, incrementProcess(a.Collector(nil)), s)
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 0, b.Len())

	require.NoError(t, b.Undo())
	assert.Equal(t, ir.Int(1), counter(s))
}

func TestUndoManagerAsFactoryDecorator(t *testing.T) {
	undo := NewUndoManager()
	hist := NewManager()
	s := store.New()

	factory := engine.NewFactory(hist.Collector, undo.Collector)
	p := factory.NewProcess("increment",
		[]engine.Unit{engine.Single(engine.NewCommand("increment", incrementCounter))})

	run(t, p, s)
	assert.Equal(t, 1, undo.Len())
	assert.True(t, hist.CanUndo(s))

	require.NoError(t, undo.Undo())
	assert.Nil(t, counter(s))
}
