package dap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/go-dap"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/dshills/stepscope/internal/logging"
)

// Client is a DAP client that communicates with a debug adapter.
//
// Messages are read on one goroutine. Responses are routed to the waiting
// request; events are queued and handed to the registered handlers, in
// arrival order, on a second goroutine. Handlers may therefore issue requests
// of their own without stalling the reader.
type Client struct {
	transport Transport
	log       *logrus.Entry

	seq       int64
	pending   map[int]*pendingRequest
	pendingMu sync.Mutex

	handlers  eventHandlers
	handlerMu sync.RWMutex

	queue     []func()
	queueMu   sync.Mutex
	queueWake chan struct{}

	done      chan struct{}
	closeOnce sync.Once
	err       error
	errMu     sync.RWMutex
	wg        sync.WaitGroup
}

// pendingRequest tracks a pending request awaiting response.
type pendingRequest struct {
	done      chan struct{}
	closeOnce sync.Once
	response  dap.ResponseMessage
	err       error
}

// close safely closes the done channel.
func (p *pendingRequest) close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

// eventHandlers stores event handler functions.
type eventHandlers struct {
	onInitialized  func()
	onStopped      func(dap.StoppedEventBody)
	onContinued    func(dap.ContinuedEventBody)
	onExited       func(dap.ExitedEventBody)
	onTerminated   func(dap.TerminatedEventBody)
	onThread       func(dap.ThreadEventBody)
	onOutput       func(dap.OutputEventBody)
	onBreakpoint   func(dap.BreakpointEventBody)
	onDisconnected func(error)
	onAny          func(dap.EventMessage)
}

// NewClient creates a new DAP client with the given transport. A nil logger
// discards output.
func NewClient(transport Transport, log *logrus.Entry) *Client {
	c := &Client{
		transport: transport,
		log:       logging.OrDiscard(log),
		pending:   make(map[int]*pendingRequest),
		queueWake: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	c.wg.Add(2)
	go c.receiveLoop()
	go c.dispatchLoop()
	return c
}

// Close closes the client and underlying transport. Pending requests fail
// with ErrClientClosed. Close is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.transport.Close()
		c.failPending(ErrClientClosed)
	})
	return err
}

// Done is closed once Close has been called.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the client's goroutines have exited.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Error returns the error that ended the receive loop, if any.
func (c *Client) Error() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()
	return c.err
}

func (c *Client) closing() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// receiveLoop continuously receives messages from the transport.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	for {
		msg, err := c.transport.ReadMessage()
		if err != nil {
			if c.closing() {
				return
			}

			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				c.handleUndecodable(decodeErr)
				continue
			}

			c.errMu.Lock()
			c.err = err
			c.errMu.Unlock()

			c.failPending(fmt.Errorf("%w: %v", ErrClientClosed, err))
			c.enqueue(func() { c.handleDisconnect(err) })
			return
		}

		if c.closing() {
			return
		}

		c.handleMessage(msg)
	}
}

// dispatchLoop runs queued event callbacks in order.
func (c *Client) dispatchLoop() {
	defer c.wg.Done()

	for {
		c.queueMu.Lock()
		batch := c.queue
		c.queue = nil
		c.queueMu.Unlock()

		for _, fn := range batch {
			fn()
		}

		select {
		case <-c.done:
			return
		case <-c.queueWake:
		}
	}
}

func (c *Client) enqueue(fn func()) {
	c.queueMu.Lock()
	c.queue = append(c.queue, fn)
	c.queueMu.Unlock()

	select {
	case c.queueWake <- struct{}{}:
	default:
	}
}

func (c *Client) failPending(err error) {
	c.pendingMu.Lock()
	pending := c.pending
	c.pending = make(map[int]*pendingRequest)
	c.pendingMu.Unlock()

	for _, req := range pending {
		req.err = err
		req.close()
	}
}

// handleMessage dispatches a received message.
func (c *Client) handleMessage(msg dap.Message) {
	switch m := msg.(type) {
	case dap.ResponseMessage:
		c.handleResponse(m)
	case dap.EventMessage:
		c.enqueue(func() { c.handleEvent(m) })
	default:
		c.log.Debugf("ignoring %T from adapter", msg)
	}
}

// handleResponse processes a response message.
func (c *Client) handleResponse(m dap.ResponseMessage) {
	resp := m.GetResponse()

	c.pendingMu.Lock()
	req, ok := c.pending[resp.RequestSeq]
	if ok {
		delete(c.pending, resp.RequestSeq)
	}
	c.pendingMu.Unlock()

	if !ok {
		c.log.Debugf("response to unknown request %d (%s)", resp.RequestSeq, resp.Command)
		return
	}
	req.response = m
	req.close()
}

// handleUndecodable fails the request a malformed response belongs to, so
// the caller is not left waiting. Anything else is dropped.
func (c *Client) handleUndecodable(decodeErr *DecodeError) {
	fields := gjson.GetManyBytes(decodeErr.Content, "type", "request_seq", "command", "event")
	if fields[0].String() != "response" {
		c.log.WithError(decodeErr).Warnf("dropping undecodable %s %s", fields[0].String(), fields[3].String())
		return
	}

	seq := int(fields[1].Int())
	c.pendingMu.Lock()
	req, ok := c.pending[seq]
	if ok {
		delete(c.pending, seq)
	}
	c.pendingMu.Unlock()

	if !ok {
		c.log.WithError(decodeErr).Warnf("dropping undecodable response to %d", seq)
		return
	}
	req.err = fmt.Errorf("%s: %w: %v", fields[2].String(), ErrMalformedResponse, decodeErr.Err)
	req.close()
}

// handleEvent runs the handler registered for the event.
func (c *Client) handleEvent(m dap.EventMessage) {
	c.handlerMu.RLock()
	handlers := c.handlers
	c.handlerMu.RUnlock()

	switch evt := m.(type) {
	case *dap.InitializedEvent:
		if handlers.onInitialized != nil {
			handlers.onInitialized()
		}
	case *dap.StoppedEvent:
		if handlers.onStopped != nil {
			handlers.onStopped(evt.Body)
		}
	case *dap.ContinuedEvent:
		if handlers.onContinued != nil {
			handlers.onContinued(evt.Body)
		}
	case *dap.ExitedEvent:
		if handlers.onExited != nil {
			handlers.onExited(evt.Body)
		}
	case *dap.TerminatedEvent:
		if handlers.onTerminated != nil {
			handlers.onTerminated(evt.Body)
		}
	case *dap.ThreadEvent:
		if handlers.onThread != nil {
			handlers.onThread(evt.Body)
		}
	case *dap.OutputEvent:
		if handlers.onOutput != nil {
			handlers.onOutput(evt.Body)
		}
	case *dap.BreakpointEvent:
		if handlers.onBreakpoint != nil {
			handlers.onBreakpoint(evt.Body)
		}
	}

	if handlers.onAny != nil {
		handlers.onAny(m)
	}
}

func (c *Client) handleDisconnect(err error) {
	c.handlerMu.RLock()
	handler := c.handlers.onDisconnected
	c.handlerMu.RUnlock()

	if handler != nil {
		handler(err)
	}
}

// newRequest builds the request header for command.
func newRequest(command string) dap.Request {
	return dap.Request{
		ProtocolMessage: dap.ProtocolMessage{Type: "request"},
		Command:         command,
	}
}

// sendRequest sends a request and waits for the response.
func (c *Client) sendRequest(ctx context.Context, req dap.RequestMessage) (dap.ResponseMessage, error) {
	if c.closing() {
		return nil, ErrClientClosed
	}

	seq := int(atomic.AddInt64(&c.seq, 1))
	r := req.GetRequest()
	r.Seq = seq
	r.Type = "request"

	pending := &pendingRequest{
		done: make(chan struct{}),
	}

	c.pendingMu.Lock()
	c.pending[seq] = pending
	c.pendingMu.Unlock()

	c.log.Debugf("-> %s (seq %d)", r.Command, seq)

	if err := c.transport.WriteMessage(req); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, seq)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("send %s: %w", r.Command, err)
	}

	select {
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, seq)
		c.pendingMu.Unlock()
		return nil, ctx.Err()
	case <-pending.done:
		if pending.err != nil {
			return nil, pending.err
		}
		resp := pending.response.GetResponse()
		if !resp.Success {
			return nil, &ResponseError{Command: r.Command, Message: resp.Message}
		}
		return pending.response, nil
	}
}

// call sends req and asserts the response type.
func call[T dap.ResponseMessage](ctx context.Context, c *Client, req dap.RequestMessage) (T, error) {
	var zero T
	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return zero, err
	}
	typed, ok := resp.(T)
	if !ok {
		return zero, fmt.Errorf("%s: %w %T", req.GetRequest().Command, ErrUnexpectedResponse, resp)
	}
	return typed, nil
}

// Event handler setters

// OnInitialized sets the handler for the initialized event.
func (c *Client) OnInitialized(handler func()) {
	c.handlerMu.Lock()
	c.handlers.onInitialized = handler
	c.handlerMu.Unlock()
}

// OnStopped sets the handler for the stopped event.
func (c *Client) OnStopped(handler func(dap.StoppedEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onStopped = handler
	c.handlerMu.Unlock()
}

// OnContinued sets the handler for the continued event.
func (c *Client) OnContinued(handler func(dap.ContinuedEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onContinued = handler
	c.handlerMu.Unlock()
}

// OnExited sets the handler for the exited event.
func (c *Client) OnExited(handler func(dap.ExitedEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onExited = handler
	c.handlerMu.Unlock()
}

// OnTerminated sets the handler for the terminated event.
func (c *Client) OnTerminated(handler func(dap.TerminatedEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onTerminated = handler
	c.handlerMu.Unlock()
}

// OnThread sets the handler for the thread event.
func (c *Client) OnThread(handler func(dap.ThreadEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onThread = handler
	c.handlerMu.Unlock()
}

// OnOutput sets the handler for the output event.
func (c *Client) OnOutput(handler func(dap.OutputEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onOutput = handler
	c.handlerMu.Unlock()
}

// OnBreakpoint sets the handler for the breakpoint event.
func (c *Client) OnBreakpoint(handler func(dap.BreakpointEventBody)) {
	c.handlerMu.Lock()
	c.handlers.onBreakpoint = handler
	c.handlerMu.Unlock()
}

// OnDisconnected sets the handler called once when the connection to the
// adapter drops unexpectedly. It is not called after Close.
func (c *Client) OnDisconnected(handler func(error)) {
	c.handlerMu.Lock()
	c.handlers.onDisconnected = handler
	c.handlerMu.Unlock()
}

// OnAnyEvent sets a handler for all events.
func (c *Client) OnAnyEvent(handler func(dap.EventMessage)) {
	c.handlerMu.Lock()
	c.handlers.onAny = handler
	c.handlerMu.Unlock()
}

// DAP Request Methods

// Initialize sends the initialize request.
func (c *Client) Initialize(ctx context.Context, args dap.InitializeRequestArguments) (*dap.Capabilities, error) {
	resp, err := call[*dap.InitializeResponse](ctx, c, &dap.InitializeRequest{
		Request:   newRequest("initialize"),
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}
	return &resp.Body, nil
}

// ConfigurationDone sends the configurationDone request.
func (c *Client) ConfigurationDone(ctx context.Context) error {
	_, err := call[*dap.ConfigurationDoneResponse](ctx, c, &dap.ConfigurationDoneRequest{
		Request: newRequest("configurationDone"),
	})
	return err
}

// Launch sends the launch request with adapter-specific arguments.
func (c *Client) Launch(ctx context.Context, args any) error {
	raw, err := marshalArgs(args)
	if err != nil {
		return err
	}
	_, err = call[*dap.LaunchResponse](ctx, c, &dap.LaunchRequest{
		Request:   newRequest("launch"),
		Arguments: raw,
	})
	return err
}

// Attach sends the attach request with adapter-specific arguments.
func (c *Client) Attach(ctx context.Context, args any) error {
	raw, err := marshalArgs(args)
	if err != nil {
		return err
	}
	_, err = call[*dap.AttachResponse](ctx, c, &dap.AttachRequest{
		Request:   newRequest("attach"),
		Arguments: raw,
	})
	return err
}

func marshalArgs(args any) (json.RawMessage, error) {
	if raw, ok := args.(json.RawMessage); ok {
		return raw, nil
	}
	if args == nil {
		return json.RawMessage(`{}`), nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}
	return raw, nil
}

// Disconnect sends the disconnect request.
func (c *Client) Disconnect(ctx context.Context, terminateDebuggee bool) error {
	_, err := call[*dap.DisconnectResponse](ctx, c, &dap.DisconnectRequest{
		Request: newRequest("disconnect"),
		Arguments: &dap.DisconnectArguments{
			TerminateDebuggee: terminateDebuggee,
		},
	})
	return err
}

// SetBreakpoints sends the setBreakpoints request for one source file.
func (c *Client) SetBreakpoints(ctx context.Context, args dap.SetBreakpointsArguments) ([]dap.Breakpoint, error) {
	resp, err := call[*dap.SetBreakpointsResponse](ctx, c, &dap.SetBreakpointsRequest{
		Request:   newRequest("setBreakpoints"),
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body.Breakpoints, nil
}

// Continue sends the continue request.
func (c *Client) Continue(ctx context.Context, threadID int) (*dap.ContinueResponseBody, error) {
	resp, err := call[*dap.ContinueResponse](ctx, c, &dap.ContinueRequest{
		Request:   newRequest("continue"),
		Arguments: dap.ContinueArguments{ThreadId: threadID},
	})
	if err != nil {
		return nil, err
	}
	return &resp.Body, nil
}

// Next sends the next (step over) request.
func (c *Client) Next(ctx context.Context, threadID int) error {
	_, err := call[*dap.NextResponse](ctx, c, &dap.NextRequest{
		Request:   newRequest("next"),
		Arguments: dap.NextArguments{ThreadId: threadID},
	})
	return err
}

// StepIn sends the stepIn request.
func (c *Client) StepIn(ctx context.Context, threadID int) error {
	_, err := call[*dap.StepInResponse](ctx, c, &dap.StepInRequest{
		Request:   newRequest("stepIn"),
		Arguments: dap.StepInArguments{ThreadId: threadID},
	})
	return err
}

// StepOut sends the stepOut request.
func (c *Client) StepOut(ctx context.Context, threadID int) error {
	_, err := call[*dap.StepOutResponse](ctx, c, &dap.StepOutRequest{
		Request:   newRequest("stepOut"),
		Arguments: dap.StepOutArguments{ThreadId: threadID},
	})
	return err
}

// Pause sends the pause request.
func (c *Client) Pause(ctx context.Context, threadID int) error {
	_, err := call[*dap.PauseResponse](ctx, c, &dap.PauseRequest{
		Request:   newRequest("pause"),
		Arguments: dap.PauseArguments{ThreadId: threadID},
	})
	return err
}

// Threads sends the threads request.
func (c *Client) Threads(ctx context.Context) ([]dap.Thread, error) {
	resp, err := call[*dap.ThreadsResponse](ctx, c, &dap.ThreadsRequest{
		Request: newRequest("threads"),
	})
	if err != nil {
		return nil, err
	}
	return resp.Body.Threads, nil
}

// StackTrace sends the stackTrace request.
func (c *Client) StackTrace(ctx context.Context, args dap.StackTraceArguments) (*dap.StackTraceResponseBody, error) {
	resp, err := call[*dap.StackTraceResponse](ctx, c, &dap.StackTraceRequest{
		Request:   newRequest("stackTrace"),
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}
	return &resp.Body, nil
}

// Scopes sends the scopes request.
func (c *Client) Scopes(ctx context.Context, frameID int) ([]dap.Scope, error) {
	resp, err := call[*dap.ScopesResponse](ctx, c, &dap.ScopesRequest{
		Request:   newRequest("scopes"),
		Arguments: dap.ScopesArguments{FrameId: frameID},
	})
	if err != nil {
		return nil, err
	}
	return resp.Body.Scopes, nil
}

// Variables sends the variables request.
func (c *Client) Variables(ctx context.Context, variablesRef int) ([]dap.Variable, error) {
	resp, err := call[*dap.VariablesResponse](ctx, c, &dap.VariablesRequest{
		Request:   newRequest("variables"),
		Arguments: dap.VariablesArguments{VariablesReference: variablesRef},
	})
	if err != nil {
		return nil, err
	}
	return resp.Body.Variables, nil
}

// Evaluate sends the evaluate request.
func (c *Client) Evaluate(ctx context.Context, args dap.EvaluateArguments) (*dap.EvaluateResponseBody, error) {
	resp, err := call[*dap.EvaluateResponse](ctx, c, &dap.EvaluateRequest{
		Request:   newRequest("evaluate"),
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}
	return &resp.Body, nil
}
