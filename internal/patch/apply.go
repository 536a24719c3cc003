package patch

import (
	"fmt"
	"strconv"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/pointer"
)

// Result is the outcome of a successful Apply.
type Result struct {
	// Root is the new snapshot. It shares every untouched subtree with the
	// snapshot Apply was given.
	Root ir.Value

	// Inverse restores the input snapshot when applied to Root.
	// It is ordered last-operation-first.
	Inverse []Operation
}

// Apply runs ops in order against root.
//
// On error the returned Result is empty and root is unchanged; no
// operation of the batch has any effect.
func Apply(ops []Operation, root ir.Value) (Result, error) {
	cur := root
	var inverse []Operation

	for i, op := range ops {
		next, inv, err := applyOne(cur, op)
		if err != nil {
			if pe, ok := err.(*Error); ok {
				pe.Index = i
				pe.Op = op
			}
			return Result{}, err
		}
		cur = next
		if len(inv) > 0 {
			inverse = append(inv, inverse...)
		}
	}

	if inverse == nil {
		inverse = []Operation{}
	}
	return Result{Root: cur, Inverse: inverse}, nil
}

// write records what a single add/replace/remove did along its path.
type write struct {
	op Operation

	// concrete holds the resolved segments, with "-" replaced by indices.
	concrete []string

	// created is the depth of the topmost container the write had to
	// create, or -1.
	created int

	// prev is the value previously stored at the target, if existed.
	prev    ir.Value
	existed bool

	// noop is set when a remove found nothing to remove.
	noop bool
}

func applyOne(root ir.Value, op Operation) (ir.Value, []Operation, error) {
	if op.Path.IsZero() {
		return nil, nil, &Error{Code: CodeInvalidOperation, Message: "operation has no path"}
	}

	switch op.Op {
	case KindTest:
		return root, nil, checkTest(root, op)
	case KindAdd, KindReplace:
		if op.Value == nil {
			return nil, nil, &Error{Code: CodeInvalidOperation, Message: fmt.Sprintf("%s requires a value", op.Op)}
		}
	case KindRemove:
	default:
		return nil, nil, &Error{Code: CodeUnknownOperation, Message: fmt.Sprintf("unknown operation %q", op.Op)}
	}

	w := &write{
		op:       op,
		concrete: make([]string, op.Path.Len()),
		created:  -1,
	}
	next, err := w.descend(root, 0)
	if err != nil {
		return nil, nil, err
	}
	if w.noop {
		return root, nil, nil
	}
	return next, w.inverse(), nil
}

func checkTest(root ir.Value, op Operation) error {
	live, found := op.Path.Resolve(root)
	if op.Value == nil && !found {
		return nil
	}
	if found && ir.Equal(live, op.Value) {
		return nil
	}
	return &Error{Code: CodeTestFailed, Message: "test operation failure, unable to apply any operations"}
}

// descend returns a copy of node with the write applied below it.
func (w *write) descend(node ir.Value, depth int) (ir.Value, error) {
	seg := w.op.Path.Segment(depth)
	last := depth == w.op.Path.Len()-1

	switch c := node.(type) {
	case ir.Object:
		w.concrete[depth] = seg
		if last {
			return w.writeObject(c, seg), nil
		}
		child, ok := c[seg]
		if !ok {
			if w.op.Op == KindRemove {
				w.noop = true
				return node, nil
			}
			child = w.create(depth + 1)
		}
		newChild, err := w.descend(child, depth+1)
		if err != nil || w.noop {
			return node, err
		}
		return c.With(seg, newChild), nil

	case ir.Array:
		if last {
			return w.writeArray(c, seg, depth)
		}
		i, ok := pointer.ArrayIndex(seg, len(c), false)
		if !ok && seg == pointer.End {
			i, ok = 0, true
		}
		if !ok || i > len(c) {
			return nil, w.invalid(depth, "array index %q out of range for length %d", seg, len(c))
		}
		w.concrete[depth] = strconv.Itoa(i)
		if i == len(c) {
			if w.op.Op == KindRemove {
				return nil, w.invalid(depth, "array index %q out of range for length %d", seg, len(c))
			}
			newChild, err := w.descend(w.create(depth+1), depth+1)
			if err != nil {
				return nil, err
			}
			return c.Insert(i, newChild), nil
		}
		newChild, err := w.descend(c[i], depth+1)
		if err != nil || w.noop {
			return node, err
		}
		return c.Set(i, newChild), nil

	default:
		return nil, w.invalid(depth, "cannot descend into %s", ir.TypeName(node))
	}
}

// create makes an empty container for the segment at depth and records
// the first creation.
func (w *write) create(depth int) ir.Value {
	if w.created < 0 {
		w.created = depth - 1
	}
	next := w.op.Path.Segment(depth)
	if next == pointer.End || pointer.IsIndex(next) {
		return ir.Array{}
	}
	return ir.Object{}
}

func (w *write) writeObject(c ir.Object, key string) ir.Object {
	w.prev, w.existed = c[key]
	if w.op.Op == KindRemove {
		if !w.existed {
			w.noop = true
			return c
		}
		return c.Without(key)
	}
	return c.With(key, w.op.Value)
}

func (w *write) writeArray(c ir.Array, seg string, depth int) (ir.Array, error) {
	n := len(c)
	var (
		i  int
		ok bool
	)
	switch w.op.Op {
	case KindAdd:
		i, ok = pointer.ArrayIndex(seg, n, true)
		ok = ok && i <= n
	case KindReplace:
		i, ok = pointer.ArrayIndex(seg, n, false)
		if !ok && seg == pointer.End {
			i, ok = 0, true
		}
		ok = ok && i <= n
	case KindRemove:
		i, ok = pointer.ArrayIndex(seg, n, false)
		ok = ok && i < n
	}
	if !ok {
		return nil, w.invalid(depth, "array index %q out of range for length %d", seg, n)
	}
	w.concrete[depth] = strconv.Itoa(i)

	switch {
	case w.op.Op == KindRemove:
		w.prev, w.existed = c[i], true
		return c.Delete(i), nil
	case w.op.Op == KindReplace && i < n:
		w.prev, w.existed = c[i], true
		return c.Set(i, w.op.Value), nil
	default:
		return c.Insert(i, w.op.Value), nil
	}
}

func (w *write) invalid(depth int, format string, args ...any) error {
	at := w.op.Path.Prefix(depth + 1)
	return &Error{Code: CodeInvalidTarget, Message: fmt.Sprintf(format, args...) + " at " + at.Path()}
}

// inverse derives the operations undoing w, in application order.
func (w *write) inverse() []Operation {
	path := pointer.MustFromSegments(w.concrete...)

	if w.op.Op == KindRemove {
		return []Operation{Add(path, w.prev)}
	}

	check := Test(path, w.op.Value)
	switch {
	case w.created >= 0:
		top := pointer.MustFromSegments(w.concrete[:w.created+1]...)
		return []Operation{check, Remove(top)}
	case w.existed:
		return []Operation{check, Replace(path, w.prev)}
	default:
		return []Operation{check, Remove(path)}
	}
}
