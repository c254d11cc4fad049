package event

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Handler receives the signal owner and the emitted payload.
type Handler[T any] func(sender any, payload T)

// Signal is a named notification declared by an owner object.
// It is safe for concurrent use.
type Signal[T any] struct {
	owner  any
	config signalConfig

	mu    sync.Mutex
	conns []*connection[T]
}

// NewSignal creates a signal owned by owner. The owner is passed as sender
// to every handler.
func NewSignal[T any](owner any, opts ...SignalOption) *Signal[T] {
	config := defaultSignalConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Signal[T]{
		owner:  owner,
		config: config,
	}
}

// Owner returns the object that declared the signal.
func (s *Signal[T]) Owner() any {
	return s.owner
}

// String returns the signal name, or its payload type when unnamed.
func (s *Signal[T]) String() string {
	if s.config.name != "" {
		return s.config.name
	}
	var zero T
	return fmt.Sprintf("signal[%T]", zero)
}

// Connect attaches fn to the signal. It panics if fn is nil.
func (s *Signal[T]) Connect(fn Handler[T]) Connection {
	return s.ConnectTo(nil, fn)
}

// ConnectTo attaches fn to the signal and tracks the connection on r so that
// r.DisconnectAll severs it. A nil receiver behaves like Connect.
func (s *Signal[T]) ConnectTo(r *Receiver, fn Handler[T]) Connection {
	if fn == nil {
		panic("event: nil handler connected to " + s.String())
	}

	c := newConnection[T](s, fn, r)

	s.mu.Lock()
	s.conns = append(s.conns, c)
	s.mu.Unlock()

	if r != nil {
		r.track(c)
	}
	return c
}

// Emit invokes every connected handler with (owner, payload) in connection
// order and returns once all of them have run.
func (s *Signal[T]) Emit(payload T) {
	s.mu.Lock()
	conns := make([]*connection[T], len(s.conns))
	copy(conns, s.conns)
	s.mu.Unlock()

	for _, c := range conns {
		if !c.Connected() {
			continue
		}
		s.invoke(c, payload)
	}
}

func (s *Signal[T]) invoke(c *connection[T], payload T) {
	defer func() {
		if r := recover(); r != nil {
			s.config.panicHandler(s.owner, payload, &PanicError{
				ConnectionID: c.id,
				Value:        r,
				Stack:        string(debug.Stack()),
			})
		}
	}()
	c.fn(s.owner, payload)
}

// Len returns the number of live connections.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// DisconnectAll severs every connection on the signal and returns how many
// were live. Owners call it on teardown.
func (s *Signal[T]) DisconnectAll() int {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	n := 0
	for _, c := range conns {
		if c.Disconnect() {
			n++
		}
	}
	return n
}

func (s *Signal[T]) detach(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.conns {
		if c.id == id {
			s.conns = append(s.conns[:i:i], s.conns[i+1:]...)
			return
		}
	}
}
