package transport

import (
	"errors"
	"fmt"
)

// CodeTransportFailure is the error code for requests that got no response.
const CodeTransportFailure = "TRANSPORT_FAILURE"

// ErrClosed is returned by a Conn after it has been closed by either side.
var ErrClosed = errors.New("transport: connection closed")

// FailureError reports a request that never received its response,
// because the connection failed or the caller's context ended.
type FailureError struct {
	// RequestID is the id of the abandoned request.
	RequestID string

	// Type is the request type.
	Type MessageType

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FailureError) Error() string {
	return fmt.Sprintf("%s: %s request %s: %v", CodeTransportFailure, e.Type, e.RequestID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FailureError) Unwrap() error {
	return e.Err
}

// IsFailure returns true if err is a FailureError.
// Uses errors.As to handle wrapped errors.
func IsFailure(err error) bool {
	var fe *FailureError
	return errors.As(err, &fe)
}

// RemoteError is a failure reported by the far side, such as a rejected
// batch or a malformed pointer.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %s", e.Code, e.Message)
}
