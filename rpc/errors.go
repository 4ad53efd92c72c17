package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrTransport is matched by errors returned when the backend could not
	// be reached.
	ErrTransport = errors.New("status-backend unreachable")
	// ErrProtocolViolation is matched by errors returned by validating calls
	// when the backend response is not a successful one.
	ErrProtocolViolation = errors.New("invalid status-backend response")
)

// TransportError wraps connection level failures: refused connections, DNS
// errors, timeouts.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: POST %s: %s", ErrTransport, e.URL, e.Err)
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolViolation is returned when a response fails validation. Body holds
// the raw response for diagnostics.
type ProtocolViolation struct {
	URL        string
	StatusCode int
	Body       []byte
	Reason     string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("%s from %s: %s (status %d, body %q)", ErrProtocolViolation, e.URL, e.Reason, e.StatusCode, e.Body)
}

func (e *ProtocolViolation) Is(target error) bool {
	return target == ErrProtocolViolation
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}
