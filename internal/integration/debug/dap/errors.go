package dap

import (
	"errors"
	"fmt"
)

var (
	// ErrClientClosed is returned for requests issued after Close, and for
	// requests still pending when the connection drops.
	ErrClientClosed = errors.New("dap client closed")

	// ErrUnexpectedResponse is returned when the adapter answers a request
	// with a response of the wrong type.
	ErrUnexpectedResponse = errors.New("unexpected response")

	// ErrMalformedResponse is returned when the adapter's response to a
	// request could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// ResponseError is returned when the adapter answers a request with
// success=false.
type ResponseError struct {
	// Command is the request command that failed.
	Command string

	// Message is the adapter-supplied failure message.
	Message string
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	if e.Message == "" {
		return e.Command + " failed"
	}
	return fmt.Sprintf("%s failed: %s", e.Command, e.Message)
}

// DecodeError is returned by a Transport when a well-framed message could
// not be decoded. The stream is still aligned, so readers may continue.
type DecodeError struct {
	Content []byte
	Err     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return "decode message: " + e.Err.Error()
}

// Unwrap returns the underlying decode error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
