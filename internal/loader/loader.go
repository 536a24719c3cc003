package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/patchstore/internal/history"
	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/patch"
)

// Format identifies a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &LoadError{
			Code:    ErrCodeUnsupportedFormat,
			Message: fmt.Sprintf("unsupported extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path)),
			File:    path,
		}
	}
}

// LoadFile reads and decodes the document at path.
func LoadFile(path string) (ir.Value, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "file not found", File: path}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error(), File: path}
	}
	return Decode(data, format, path)
}

// Decode decodes a document. filename is used in error messages only.
func Decode(data []byte, format Format, filename string) (ir.Value, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data, filename)
	case FormatYAML:
		return decodeYAML(data, filename)
	case FormatCUE:
		return decodeCUE(data, filename)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupportedFormat, Message: fmt.Sprintf("unknown format %q", format), File: filename}
	}
}

func decodeJSON(data []byte, filename string) (ir.Value, error) {
	if !json.Valid(data) {
		var discard any
		err := json.Unmarshal(data, &discard)
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), File: filename}
	}
	v, err := ir.UnmarshalValue(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidValue, Message: err.Error(), File: filename}
	}
	return v, nil
}

func decodeYAML(data []byte, filename string) (ir.Value, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), File: filename}
	}
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidValue, Message: err.Error(), File: filename}
	}
	return v, nil
}

func decodeCUE(data []byte, filename string) (ir.Value, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(ErrCodeBuildFailed, filename, err)
	}
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(ErrCodeBuildFailed, filename, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(ErrCodeNotConcrete, filename, err)
	}

	exported, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(ErrCodeNotConcrete, filename, err)
	}
	out, err := ir.UnmarshalValue(exported)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidValue, Message: err.Error(), File: filename}
	}
	return out, nil
}

// LoadPatch loads a batch. The document is either an array of operations
// or an object whose "operations" field holds one.
func LoadPatch(path string) ([]patch.Operation, error) {
	v, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return PatchFromValue(v, path)
}

// PatchFromValue extracts a batch from a decoded document.
func PatchFromValue(v ir.Value, filename string) ([]patch.Operation, error) {
	if obj, ok := v.(ir.Object); ok {
		inner, found := obj["operations"]
		if !found {
			return nil, &LoadError{Code: ErrCodeInvalidPatch, Message: `object has no "operations" field`, File: filename}
		}
		v = inner
	}
	ops, err := patch.FromValue(v)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidPatch, Message: err.Error(), File: filename}
	}
	return ops, nil
}

// LoadHistory loads a persisted history in any supported format.
func LoadHistory(path string) (history.Serialized, error) {
	v, err := LoadFile(path)
	if err != nil {
		return history.Serialized{}, err
	}
	data, err := ir.MarshalValue(v)
	if err != nil {
		return history.Serialized{}, &LoadError{Code: ErrCodeInvalidValue, Message: err.Error(), File: path}
	}

	var out history.Serialized
	if err := json.Unmarshal(data, &out); err != nil {
		return history.Serialized{}, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("history: %v", err), File: path}
	}
	return out, nil
}
