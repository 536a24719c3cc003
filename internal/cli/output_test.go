package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchstore/internal/history"
	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/loader"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/transport"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("TEST_FAILED", "batch rejected", map[string]int{"index": 1}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TEST_FAILED", resp.Error.Code)
	assert.Equal(t, "batch rejected", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut, Verbose: true}

	require.NoError(t, formatter.Error("E005", "file not found", "state.json"))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Error [E005]: file not found")
	assert.Contains(t, errOut.String(), "Details: state.json")
}

func TestOutputFormatter_Value(t *testing.T) {
	v := ir.Object{"b": ir.Int(2), "a": ir.Array{ir.String("<x>")}}

	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}
		require.NoError(t, formatter.Value(v))
		assert.Equal(t, `{"a":["<x>"],"b":2}`+"\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "json", Writer: buf}
		require.NoError(t, formatter.Value(v))

		var resp struct {
			Status string          `json:"status"`
			Data   json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.JSONEq(t, `{"a":["<x>"],"b":2}`, string(resp.Data))
	})
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			formatter.VerboseLog("Loading %s", "state.json")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Loading state.json")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "load", errors.New("inner")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "outer: load: inner", wrapped.Error())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"load error", &loader.LoadError{Code: loader.ErrCodeNotFound}, loader.ErrCodeNotFound, ExitCommandError},
		{"remote rejection", &transport.RemoteError{Code: "TEST_FAILED"}, "TEST_FAILED", ExitFailure},
		{"transport failure", &transport.FailureError{Err: transport.ErrClosed}, transport.CodeTransportFailure, ExitCommandError},
		{"history cursor", fmt.Errorf("x: %w", history.ErrInvalidCursor), ErrCodeHistory, ExitCommandError},
		{"patch error", fmt.Errorf("replay: %w", &patch.Error{Code: patch.CodeInvalidTarget}), "INVALID_TARGET", ExitFailure},
		{"anything else", errors.New("boom"), ErrCodeInvalidInput, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := classify(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantExit, exit)
		})
	}
}
