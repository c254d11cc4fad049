package event

import (
	"errors"
	"fmt"
)

// ErrHandlerPanic is matched by PanicError via errors.Is.
var ErrHandlerPanic = errors.New("handler panicked")

// PanicError wraps a panic value recovered from a signal handler.
type PanicError struct {
	// ConnectionID is the ID of the connection whose handler panicked.
	ConnectionID string

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic for connection %s: %v", e.ConnectionID, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
