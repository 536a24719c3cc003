package store

import (
	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/ir"
)

// Option configures a Store.
type Option func(*Store)

// WithInitial sets the starting snapshot. The default is an empty object.
func WithInitial(root ir.Value) Option {
	return func(s *Store) {
		s.initial = root
	}
}

// WithLogger sets the logger used for commit diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithID overrides the generated store identity.
// Use in tests that compare serialized output across runs.
func WithID(id string) Option {
	return func(s *Store) {
		s.id = id
	}
}
