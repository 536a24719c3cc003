package history

import "go.uber.org/zap"

type config struct {
	logger *zap.Logger
}

// Option configures an UndoManager or a Manager.
type Option func(*config)

// WithLogger sets the logger for history diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newConfig(opts []Option) config {
	c := config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
