package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchstore/internal/store"
)

func TestDecoratorOrder(t *testing.T) {
	var order []string
	record := func(name string) Callback {
		return func(*Result, error) { order = append(order, name) }
	}

	factory := NewFactory(DecoratorFrom(record("one")), DecoratorFrom(record("two")))
	p := factory.NewProcess("decorated", nil, WithCallback(record("base")))

	_, err := p.Run(context.Background(), store.New(), nil)
	require.NoError(t, err)

	// The last decorator is outermost, the process callback runs last
	assert.Equal(t, []string{"two", "one", "base"}, order)
}

func TestDecoratorWithoutBaseCallback(t *testing.T) {
	var calls int
	factory := NewFactory(DecoratorFrom(func(*Result, error) { calls++ }))
	p := factory.NewProcess("bare", nil)

	_, err := p.Run(context.Background(), store.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDecorateCustomWrapper(t *testing.T) {
	var order []string
	around := func(next Callback) Callback {
		return func(res *Result, err error) {
			order = append(order, "before")
			next(res, err)
			order = append(order, "after")
		}
	}

	cb := Decorate(func(*Result, error) { order = append(order, "base") }, around)
	cb(nil, nil)

	assert.Equal(t, []string{"before", "base", "after"}, order)
}
