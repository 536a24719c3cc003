package patch

import (
	"fmt"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/pointer"
)

// Kind is the operation discriminator.
type Kind string

const (
	KindAdd     Kind = "add"
	KindRemove  Kind = "remove"
	KindReplace Kind = "replace"
	KindTest    Kind = "test"
)

// Operation is one step of a batch.
//
// Value is required for add and replace. For test, a nil Value asserts
// that the location is absent. Remove ignores Value.
type Operation struct {
	Op    Kind
	Path  pointer.Pointer
	Value ir.Value
}

// Add builds an add operation.
func Add(path pointer.Pointer, v ir.Value) Operation {
	return Operation{Op: KindAdd, Path: path, Value: v}
}

// Remove builds a remove operation.
func Remove(path pointer.Pointer) Operation {
	return Operation{Op: KindRemove, Path: path}
}

// Replace builds a replace operation.
func Replace(path pointer.Pointer, v ir.Value) Operation {
	return Operation{Op: KindReplace, Path: path, Value: v}
}

// Test builds a test operation.
func Test(path pointer.Pointer, v ir.Value) Operation {
	return Operation{Op: KindTest, Path: path, Value: v}
}

// String renders the operation for logs, e.g. "add /todos/0".
func (o Operation) String() string {
	return fmt.Sprintf("%s %s", o.Op, o.Path)
}

// ToValue converts the operation to its document form:
// {"op": ..., "path": ..., "value": ...}.
func (o Operation) ToValue() ir.Object {
	obj := ir.Object{
		"op":   ir.String(o.Op),
		"path": ir.String(o.Path.Path()),
	}
	if o.Value != nil && o.Op != KindRemove {
		obj["value"] = o.Value
	}
	return obj
}

// ToValue converts a batch to its document form.
func ToValue(ops []Operation) ir.Array {
	arr := make(ir.Array, len(ops))
	for i, op := range ops {
		arr[i] = op.ToValue()
	}
	return arr
}

// FromValue parses a batch from its document form.
func FromValue(v ir.Value) ([]Operation, error) {
	arr, ok := v.(ir.Array)
	if !ok {
		return nil, fmt.Errorf("batch must be an array, got %s", ir.TypeName(v))
	}
	ops := make([]Operation, len(arr))
	for i, elem := range arr {
		op, err := OperationFromValue(elem)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		ops[i] = op
	}
	return ops, nil
}

// OperationFromValue parses one operation from its document form.
func OperationFromValue(v ir.Value) (Operation, error) {
	obj, ok := v.(ir.Object)
	if !ok {
		return Operation{}, invalidOperation("operation must be an object, got %s", ir.TypeName(v))
	}

	kind, ok := obj["op"].(ir.String)
	if !ok {
		return Operation{}, invalidOperation("operation requires a string \"op\"")
	}
	rawPath, ok := obj["path"].(ir.String)
	if !ok {
		return Operation{}, invalidOperation("operation requires a string \"path\"")
	}
	path, err := pointer.Parse(string(rawPath))
	if err != nil {
		return Operation{}, err
	}

	op := Operation{Op: Kind(kind), Path: path, Value: obj["value"]}
	switch op.Op {
	case KindAdd, KindReplace:
		if op.Value == nil {
			return Operation{}, invalidOperation("%s %s requires a value", op.Op, path)
		}
	case KindRemove:
		op.Value = nil
	case KindTest:
	default:
		return Operation{}, &Error{Code: CodeUnknownOperation, Message: fmt.Sprintf("unknown operation %q", kind), Op: op}
	}
	return op, nil
}

// MarshalJSON encodes the operation in its document form.
func (o Operation) MarshalJSON() ([]byte, error) {
	return ir.MarshalValue(o.ToValue())
}

// UnmarshalJSON decodes the operation from its document form.
func (o *Operation) UnmarshalJSON(data []byte) error {
	v, err := ir.UnmarshalValue(data)
	if err != nil {
		return err
	}
	op, err := OperationFromValue(v)
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Paths returns the distinct paths touched by ops, in first-seen order.
func Paths(ops []Operation) []string {
	seen := make(map[string]bool, len(ops))
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		p := op.Path.Path()
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func invalidOperation(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidOperation, Message: fmt.Sprintf(format, args...)}
}
