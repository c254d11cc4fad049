package debug

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrConnection   = errors.New("debug adapter connection failed")
	ErrInvalidState = errors.New("invalid session state")
	ErrProtocol     = errors.New("debug adapter protocol error")
)

// ConnectionError is returned by Start when the adapter cannot be reached or
// the handshake fails. The session is left Idle.
type ConnectionError struct {
	// Op is the handshake step that failed ("dial", "initialize", "launch", ...).
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("debug session: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrConnection.
func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// InvalidStateError is returned for a command the current state cannot
// service, such as Continue while Idle. The state is not changed.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("debug session: %s not allowed while %s", e.Op, e.State)
}

// Is reports whether target is ErrInvalidState.
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// ProtocolError describes a failed or malformed adapter response.
type ProtocolError struct {
	Command string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("debug session: %s: %v", e.Command, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Is reports whether target is ErrProtocol.
func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }
