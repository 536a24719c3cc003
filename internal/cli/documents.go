package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/history"
	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/loader"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/transport"
)

// CLI error codes for failures that do not come from a lower package.
const (
	ErrCodeDiffFailed   = "E_DIFF"
	ErrCodeHistory      = "E_HISTORY"
	ErrCodeDeterminism  = "E_DETERMINISM"
	ErrCodeTestFailed   = "E_TEST_FAILED"
	ErrCodeServeFailed  = "E_SERVE"
	ErrCodeConnect      = "E_CONNECT"
	ErrCodeNotFound     = "E_NOT_FOUND"
	ErrCodeInvalidInput = "E_INVALID_INPUT"
)

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// loadState reads a state document. An empty path means an empty object.
func loadState(path string) (ir.Value, error) {
	if path == "" {
		return ir.Object{}, nil
	}
	v, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if !ir.IsContainer(v) {
		return nil, &loader.LoadError{
			Code:    loader.ErrCodeInvalidValue,
			Message: fmt.Sprintf("state must be an object or array, got %s", ir.TypeName(v)),
			File:    path,
		}
	}
	return v, nil
}

// reportError returns the ExitError for err, writing a JSON error envelope
// first when the output format is json. Text-format errors are printed by
// the caller of Execute.
//
// Load errors and transport failures are command errors; rejected batches
// and remote rejections are failures of the operation itself.
func reportError(out *OutputFormatter, message string, err error) error {
	code, exit := classify(err)
	return fail(out, code, exit, message, err)
}

func fail(out *OutputFormatter, code string, exit int, message string, err error) error {
	if out.Format == "json" {
		if rerr := out.Error(code, fmt.Sprintf("%s: %v", message, err), nil); rerr != nil {
			return rerr
		}
	}
	return WrapExitError(exit, message, err)
}

func classify(err error) (string, int) {
	var le *loader.LoadError
	if errors.As(err, &le) {
		return le.Code, ExitCommandError
	}
	var re *transport.RemoteError
	if errors.As(err, &re) {
		return re.Code, ExitFailure
	}
	if transport.IsFailure(err) {
		return transport.CodeTransportFailure, ExitCommandError
	}
	if errors.Is(err, history.ErrInvalidCursor) || errors.Is(err, history.ErrEntryMismatch) {
		return ErrCodeHistory, ExitCommandError
	}
	if code := patch.ErrorCode(err); code != "" {
		return string(code), ExitFailure
	}
	return ErrCodeInvalidInput, ExitCommandError
}
