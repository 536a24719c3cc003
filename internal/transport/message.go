package transport

import (
	"encoding/json"

	"github.com/roach88/patchstore/internal/patch"
)

// MessageType selects the remote operation.
type MessageType string

const (
	TypeApply MessageType = "apply"
	TypeGet   MessageType = "get"
)

// Request is the wire form of a call.
type Request struct {
	ID         string            `json:"id"`
	Type       MessageType       `json:"type"`
	Operations []patch.Operation `json:"operations,omitempty"`
	Pointer    string            `json:"pointer,omitempty"`
}

// Response is the wire form of a reply. Exactly one of Error or the
// type-specific fields is meaningful.
type Response struct {
	ID         string            `json:"id"`
	Operations []patch.Operation `json:"operations,omitempty"`
	Value      json.RawMessage   `json:"value,omitempty"`
	Found      bool              `json:"found"`
	Error      *RemoteError      `json:"error,omitempty"`
}
