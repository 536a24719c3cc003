package patch

import (
	"fmt"
	"strconv"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/pointer"
)

// Diff returns a batch that turns from into to.
//
// Only values that are containers of the same kind on both sides are
// recursed into; anything else at a shared location becomes a replace.
// Object keys are visited in canonical order: removals first, then
// changes, then additions. Arrays are compared index-wise; surplus
// elements are removed from the end or appended in order.
//
// Both roots must be containers of the same kind, since the root itself
// cannot be addressed.
func Diff(from, to ir.Value) ([]Operation, error) {
	if !ir.SameContainer(from, to) {
		return nil, fmt.Errorf("cannot diff %s against %s: roots must be containers of the same kind",
			ir.TypeName(from), ir.TypeName(to))
	}
	d := &differ{ops: []Operation{}}
	if err := d.diff(nil, from, to); err != nil {
		return nil, err
	}
	return d.ops, nil
}

type differ struct {
	ops []Operation
}

func (d *differ) diff(base []string, from, to ir.Value) error {
	switch f := from.(type) {
	case ir.Object:
		return d.diffObject(base, f, to.(ir.Object))
	case ir.Array:
		return d.diffArray(base, f, to.(ir.Array))
	}
	return nil
}

func (d *differ) diffObject(base []string, from, to ir.Object) error {
	keys := from.SortedKeys()

	for _, k := range keys {
		if _, ok := to[k]; ok {
			continue
		}
		p, err := at(base, k)
		if err != nil {
			return err
		}
		d.ops = append(d.ops, Remove(p))
	}

	for _, k := range keys {
		tv, ok := to[k]
		if !ok {
			continue
		}
		if err := d.change(base, k, from[k], tv); err != nil {
			return err
		}
	}

	for _, k := range to.SortedKeys() {
		if _, ok := from[k]; ok {
			continue
		}
		p, err := at(base, k)
		if err != nil {
			return err
		}
		d.ops = append(d.ops, Add(p, to[k]))
	}
	return nil
}

func (d *differ) diffArray(base []string, from, to ir.Array) error {
	common := min(len(from), len(to))
	for i := 0; i < common; i++ {
		if err := d.change(base, strconv.Itoa(i), from[i], to[i]); err != nil {
			return err
		}
	}

	for i := len(from) - 1; i >= len(to); i-- {
		p, err := at(base, strconv.Itoa(i))
		if err != nil {
			return err
		}
		d.ops = append(d.ops, Remove(p))
	}
	for i := len(from); i < len(to); i++ {
		p, err := at(base, strconv.Itoa(i))
		if err != nil {
			return err
		}
		d.ops = append(d.ops, Add(p, to[i]))
	}
	return nil
}

// change handles a location present on both sides.
func (d *differ) change(base []string, seg string, from, to ir.Value) error {
	if ir.Equal(from, to) {
		return nil
	}
	child := append(append([]string(nil), base...), seg)
	if ir.SameContainer(from, to) {
		return d.diff(child, from, to)
	}
	p, err := pointer.FromSegments(child)
	if err != nil {
		return err
	}
	d.ops = append(d.ops, Replace(p, to))
	return nil
}

func at(base []string, seg string) (pointer.Pointer, error) {
	return pointer.FromSegments(append(append([]string(nil), base...), seg))
}
