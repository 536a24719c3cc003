package patch

import (
	"errors"
	"fmt"
)

// Code categorizes patch errors.
type Code string

const (
	// CodeTestFailed indicates a test operation did not match the live value.
	CodeTestFailed Code = "TEST_FAILED"

	// CodeInvalidTarget indicates a path that cannot be written, such as an
	// out-of-range array index or a segment below a scalar.
	CodeInvalidTarget Code = "INVALID_TARGET"

	// CodeUnknownOperation indicates an operation kind outside add/remove/replace/test.
	CodeUnknownOperation Code = "UNKNOWN_OPERATION"

	// CodeInvalidOperation indicates a malformed operation, such as a missing
	// value or path.
	CodeInvalidOperation Code = "INVALID_OPERATION"
)

// Error reports why a batch was rejected.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Index is the position of the failing operation in its batch.
	Index int

	// Op is the failing operation.
	Op Operation
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op.Path.IsZero() {
		return fmt.Sprintf("%s: %s (index=%d)", e.Code, e.Message, e.Index)
	}
	return fmt.Sprintf("%s: %s (index=%d, op=%s, path=%s)", e.Code, e.Message, e.Index, e.Op.Op, e.Op.Path)
}

// ErrorCode returns the code of a patch error anywhere in err's chain, or "".
func ErrorCode(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsTestFailed returns true if err is a failed test operation.
// Uses errors.As to handle wrapped errors.
func IsTestFailed(err error) bool {
	return ErrorCode(err) == CodeTestFailed
}

// IsInvalidTarget returns true if err is an unwritable path.
func IsInvalidTarget(err error) bool {
	return ErrorCode(err) == CodeInvalidTarget
}
