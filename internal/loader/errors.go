package loader

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes shared with the CLI.
const (
	ErrCodeParseFailed       = "E004" // Document could not be parsed
	ErrCodeNotFound          = "E005" // Path not found
	ErrCodeBuildFailed       = "E006" // CUE evaluation failed
	ErrCodeUnsupportedFormat = "E008" // Unknown file extension
	ErrCodeNotConcrete       = "E009" // CUE value is incomplete
	ErrCodeInvalidValue      = "E104" // Value outside the model (e.g. float)
	ErrCodeInvalidPatch      = "E105" // Document is not a patch batch
)

// LoadError describes a document that could not be loaded.
type LoadError struct {
	Code    string
	Message string
	File    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(code, file string, err error) *LoadError {
	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error(), File: file}
	}

	// Report the first error with position info
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error(), File: file}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
