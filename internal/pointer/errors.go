package pointer

import (
	"errors"
	"fmt"
)

// CodeInvalidPointer is the error code reported for malformed pointers.
const CodeInvalidPointer = "INVALID_POINTER"

// ErrInvalidPointer is the sentinel matched by every InvalidError.
var ErrInvalidPointer = errors.New("invalid pointer")

// InvalidError describes why a pointer could not be constructed.
type InvalidError struct {
	// Input is the string or joined segment list that was rejected.
	Input string

	// Reason is a human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *InvalidError) Error() string {
	return fmt.Sprintf("%s: %s (input=%q)", CodeInvalidPointer, e.Reason, e.Input)
}

// Unwrap lets errors.Is match ErrInvalidPointer.
func (e *InvalidError) Unwrap() error {
	return ErrInvalidPointer
}

// IsInvalid returns true if err is, or wraps, an InvalidError.
func IsInvalid(err error) bool {
	var ie *InvalidError
	return errors.As(err, &ie)
}
