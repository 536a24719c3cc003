package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/patchstore/internal/engine"
	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/store"
)

func incrementCounter(_ context.Context, req engine.Request) ([]patch.Operation, error) {
	var n ir.Int
	if v, ok := req.Get(req.Path("counter")); ok {
		n = v.(ir.Int)
	}
	return []patch.Operation{patch.Replace(req.Path("counter"), n+1)}, nil
}

func incrementProcess(cb engine.Callback) *engine.Process {
	return engine.NewProcess("increment",
		[]engine.Unit{engine.Single(engine.NewCommand("increment", incrementCounter))},
		engine.WithCallback(cb))
}

func failingProcess(cb engine.Callback) *engine.Process {
	return engine.NewProcess("fail",
		[]engine.Unit{engine.Single(engine.NewCommand("fail", func(context.Context, engine.Request) ([]patch.Operation, error) {
			return nil, errors.New("boom")
		}))},
		engine.WithCallback(cb))
}

func run(t *testing.T, p *engine.Process, s *store.Store) *engine.Result {
	t.Helper()
	res, err := p.Run(context.Background(), s, nil)
	require.NoError(t, err)
	return res
}

func counter(s *store.Store) ir.Value {
	v, _ := s.Get(s.Path("counter"))
	return v
}
