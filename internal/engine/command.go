package engine

import (
	"context"
	"strings"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/pointer"
	"github.com/roach88/patchstore/internal/store"
)

// CommandFunc computes a batch from the current state and the payload.
// It must not write the store.
type CommandFunc func(ctx context.Context, req Request) ([]patch.Operation, error)

// Command is a named CommandFunc. The name appears in errors and logs.
type Command struct {
	Name string
	Fn   CommandFunc
}

// NewCommand pairs a name with a function.
func NewCommand(name string, fn CommandFunc) Command {
	return Command{Name: name, Fn: fn}
}

// Request is the read-only view a command receives.
type Request struct {
	// Payload is the (transformed) execution payload.
	Payload any

	store *store.Store
}

// Get reads the value at p from the store's current snapshot.
func (r Request) Get(p pointer.Pointer) (ir.Value, bool) {
	return r.store.Get(p)
}

// Path builds a pointer from literal segments.
func (r Request) Path(segments ...string) pointer.Pointer {
	return r.store.Path(segments...)
}

// At returns the pointer to element i of the array at p.
func (r Request) At(p pointer.Pointer, i int) pointer.Pointer {
	return r.store.At(p, i)
}

// Unit is one step of a process: a single command or a concurrent group.
type Unit struct {
	commands []Command
	group    bool
}

// Single wraps one command as a unit.
func Single(c Command) Unit {
	return Unit{commands: []Command{c}}
}

// Group makes a unit whose commands start together and commit as one batch.
func Group(cs ...Command) Unit {
	return Unit{commands: append([]Command(nil), cs...), group: true}
}

// IsGroup reports whether u is a concurrent group.
func (u Unit) IsGroup() bool {
	return u.group
}

// Commands returns a copy of the unit's commands.
func (u Unit) Commands() []Command {
	return append([]Command(nil), u.commands...)
}

// Name is the command name, or "[a,b]" for a group. A zero Unit has an
// empty name.
func (u Unit) Name() string {
	if !u.group {
		if len(u.commands) == 0 {
			return ""
		}
		return u.commands[0].Name
	}
	names := make([]string, len(u.commands))
	for i, c := range u.commands {
		names[i] = c.Name
	}
	return "[" + strings.Join(names, ",") + "]"
}
