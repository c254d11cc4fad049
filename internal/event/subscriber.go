package event

import (
	"sync"
)

// Receiver tracks the connections made on behalf of one observer so they can
// all be severed together. The zero value is ready to use.
type Receiver struct {
	mu    sync.Mutex
	conns map[string]Connection
}

// NewReceiver creates an empty Receiver.
func NewReceiver() *Receiver {
	return &Receiver{}
}

func (r *Receiver) track(c Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns == nil {
		r.conns = make(map[string]Connection)
	}
	r.conns[c.ID()] = c
}

func (r *Receiver) forget(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Len returns the number of live connections held by the receiver.
func (r *Receiver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// DisconnectAll severs every connection tracked by the receiver and returns
// how many were live.
func (r *Receiver) DisconnectAll() int {
	r.mu.Lock()
	conns := r.conns
	r.conns = nil
	r.mu.Unlock()

	n := 0
	for _, c := range conns {
		if c.Disconnect() {
			n++
		}
	}
	return n
}
