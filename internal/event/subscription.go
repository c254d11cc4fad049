package event

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Connection is a single handler attached to a signal.
type Connection interface {
	// ID returns the unique connection identifier.
	ID() string

	// Connected reports whether the handler still receives emissions.
	Connected() bool

	// Disconnect detaches the handler. It returns false if the connection
	// was already disconnected.
	Disconnect() bool
}

// detacher is implemented by Signal so connections can remove themselves
// without knowing the payload type of their signal.
type detacher interface {
	detach(id string)
}

// connection is the internal implementation of Connection.
type connection[T any] struct {
	id       string
	fn       Handler[T]
	signal   detacher
	receiver *Receiver
	active   atomic.Bool
}

func newConnection[T any](sig detacher, fn Handler[T], r *Receiver) *connection[T] {
	c := &connection[T]{
		id:       uuid.NewString(),
		fn:       fn,
		signal:   sig,
		receiver: r,
	}
	c.active.Store(true)
	return c
}

// ID returns the connection ID.
func (c *connection[T]) ID() string {
	return c.id
}

// Connected reports whether the connection is live.
func (c *connection[T]) Connected() bool {
	return c.active.Load()
}

// Disconnect detaches the handler from its signal and receiver.
func (c *connection[T]) Disconnect() bool {
	if !c.active.CompareAndSwap(true, false) {
		return false
	}
	c.signal.detach(c.id)
	if c.receiver != nil {
		c.receiver.forget(c.id)
	}
	return true
}
