// Package daptest provides an in-memory debug adapter for exercising DAP
// clients in tests.
package daptest

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"

	"github.com/google/go-dap"

	stepdap "github.com/dshills/stepscope/internal/integration/debug/dap"
)

// HandlerFunc answers one request. Returning nil sends no response.
type HandlerFunc func(a *Adapter, req dap.RequestMessage) dap.Message

// Adapter is a scripted debug adapter on the far side of a net.Pipe.
// Requests without a registered handler get an empty success response.
type Adapter struct {
	conn   net.Conn
	reader *bufio.Reader

	writeMu sync.Mutex
	seq     int

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	requests []dap.RequestMessage
	notify   chan string

	done chan struct{}
}

// New creates an adapter and the client-side transport connected to it.
// Call Serve to start answering requests.
func New() (*Adapter, stepdap.Transport) {
	server, client := net.Pipe()
	a := &Adapter{
		conn:     server,
		reader:   bufio.NewReader(server),
		handlers: make(map[string]HandlerFunc),
		notify:   make(chan string, 256),
		done:     make(chan struct{}),
	}
	return a, stepdap.NewStreamTransport(client)
}

// Handle registers fn for command, replacing any earlier handler.
func (a *Adapter) Handle(command string, fn HandlerFunc) {
	a.mu.Lock()
	a.handlers[command] = fn
	a.mu.Unlock()
}

// Serve answers requests until the connection closes. It returns
// immediately; the loop runs on its own goroutine.
func (a *Adapter) Serve() {
	go func() {
		defer close(a.done)
		for {
			msg, err := dap.ReadProtocolMessage(a.reader)
			if err != nil {
				return
			}
			req, ok := msg.(dap.RequestMessage)
			if !ok {
				continue
			}
			command := req.GetRequest().Command

			a.mu.Lock()
			a.requests = append(a.requests, req)
			fn := a.handlers[command]
			a.mu.Unlock()

			var resp dap.Message
			if fn != nil {
				resp = fn(a, req)
			} else {
				resp = Success(req, nil)
			}
			if resp != nil {
				_ = a.Send(resp)
			}

			select {
			case a.notify <- command:
			default:
			}
		}
	}()
}

// Send writes msg to the client, stamping a sequence number.
func (a *Adapter) Send(msg dap.Message) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	a.seq++
	switch m := msg.(type) {
	case *rawResponse:
		m.Seq = a.seq
	case *rawEvent:
		m.Seq = a.seq
	case dap.ResponseMessage:
		m.GetResponse().Seq = a.seq
	case dap.EventMessage:
		m.GetEvent().Seq = a.seq
	}
	return dap.WriteProtocolMessage(a.conn, msg)
}

// SendRaw writes a framed message body verbatim.
func (a *Adapter) SendRaw(content []byte) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return dap.WriteBaseMessage(a.conn, content)
}

// Commands returns the commands received so far, in order.
func (a *Adapter) Commands() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, len(a.requests))
	for i, r := range a.requests {
		out[i] = r.GetRequest().Command
	}
	return out
}

// Requests returns the requests received for command, in order.
func (a *Adapter) Requests(command string) []dap.RequestMessage {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []dap.RequestMessage
	for _, r := range a.requests {
		if r.GetRequest().Command == command {
			out = append(out, r)
		}
	}
	return out
}

// Received reports each command after it has been answered.
func (a *Adapter) Received() <-chan string {
	return a.notify
}

// Close drops the connection, as a crashing adapter would.
func (a *Adapter) Close() error {
	return a.conn.Close()
}

// Done is closed when Serve's loop exits.
func (a *Adapter) Done() <-chan struct{} {
	return a.done
}

type rawResponse struct {
	dap.Response
	Body any `json:"body,omitempty"`
}

type rawEvent struct {
	dap.Event
	Body any `json:"body,omitempty"`
}

// Success builds a successful response to req carrying body.
func Success(req dap.RequestMessage, body any) dap.Message {
	r := req.GetRequest()
	return &rawResponse{
		Response: dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Type: "response"},
			Command:         r.Command,
			RequestSeq:      r.Seq,
			Success:         true,
		},
		Body: body,
	}
}

// Failure builds an error response to req.
func Failure(req dap.RequestMessage, message string) dap.Message {
	r := req.GetRequest()
	return &rawResponse{
		Response: dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Type: "response"},
			Command:         r.Command,
			RequestSeq:      r.Seq,
			Success:         false,
			Message:         message,
		},
	}
}

// Event builds an event message with body.
func Event(name string, body any) dap.Message {
	return &rawEvent{
		Event: dap.Event{
			ProtocolMessage: dap.ProtocolMessage{Type: "event"},
			Event:           name,
		},
		Body: body,
	}
}

// Stopped builds a stopped event for threadID.
func Stopped(reason string, threadID int) dap.Message {
	return Event("stopped", dap.StoppedEventBody{
		Reason:            reason,
		ThreadId:          threadID,
		AllThreadsStopped: true,
	})
}

// Malformed builds a response to req whose body cannot be decoded into the
// command's response type.
func Malformed(req dap.RequestMessage) []byte {
	r := req.GetRequest()
	content, _ := json.Marshal(map[string]any{
		"seq":         0,
		"type":        "response",
		"request_seq": r.Seq,
		"command":     r.Command,
		"success":     true,
		"body":        "not an object",
	})
	return content
}
