package debug

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	godap "github.com/google/go-dap"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dshills/stepscope/internal/event"
	"github.com/dshills/stepscope/internal/integration/debug/dap"
	"github.com/dshills/stepscope/internal/logging"
)

// Connector opens a transport to a debug adapter.
type Connector interface {
	Connect(ctx context.Context) (dap.Transport, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context) (dap.Transport, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context) (dap.Transport, error) {
	return f(ctx)
}

// Output is the payload of Session.Output.
type Output struct {
	Category string
	Text     string
}

// SessionConfig configures a debug session.
type SessionConfig struct {
	// AdapterID is the debug adapter identifier.
	AdapterID string

	// ClientID is this client's identifier.
	ClientID string

	// ClientName is this client's name.
	ClientName string

	// Request is "launch" or "attach".
	Request string

	// Arguments are sent as the launch or attach arguments. They are
	// adapter specific.
	Arguments any

	// TerminateOnStop asks the adapter to end the debuggee on Stop.
	TerminateOnStop bool

	// StopTimeout bounds the disconnect request sent by Stop.
	StopTimeout time.Duration

	// RequestTimeout bounds requests the session makes on its own, such as
	// the stack trace that locates a stop.
	RequestTimeout time.Duration

	// Configure runs after the adapter reports initialized and before
	// configurationDone. Breakpoints are set here.
	Configure func(ctx context.Context, s *Session) error
}

// DefaultSessionConfig returns a default session configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		AdapterID:       "go",
		ClientID:        "stepscope",
		ClientName:      "stepscope",
		Request:         "launch",
		TerminateOnStop: true,
		StopTimeout:     2 * time.Second,
		RequestTimeout:  10 * time.Second,
	}
}

// link is one adapter connection. Callbacks registered on a link check that
// it is still the session's current link before touching session state.
type link struct {
	client *dap.Client

	// ctx is cancelled when the link is detached.
	ctx    context.Context
	cancel context.CancelFunc

	initialized chan struct{}
	initOnce    sync.Once
	lost        chan struct{}
	lostOnce    sync.Once
}

// Session is a debug session with one debug adapter.
//
// A session moves between Idle, Running and Stopped. Commands must be
// serialized by the caller: issuing Continue while a previous Continue is
// still outstanding is undefined. Adapter events are processed on the DAP
// client's dispatch goroutine and signals fire there.
type Session struct {
	id        string
	connector Connector
	config    SessionConfig
	log       *logrus.Entry

	mu       sync.Mutex
	link     *link
	state    State
	started  bool
	caps     godap.Capabilities
	threadID int
	frameID  int
	line     int
	reason   string

	// stopGen counts stops. A resume acknowledged for an older generation
	// does not override a newer stop.
	stopGen uint64

	// Stopped fires once per pause, after CurrentLine has been updated.
	Stopped *event.Signal[struct{}]

	// StateChanged fires on every state transition.
	StateChanged *event.Signal[StateChange]

	// Output carries debuggee and adapter output.
	Output *event.Signal[Output]

	// BreakpointUpdated carries adapter-initiated breakpoint changes.
	// Only AdapterID, Verified, Message and ActualLine are meaningful.
	BreakpointUpdated *event.Signal[Breakpoint]
}

// NewSession creates an idle session that will connect through connector.
// A nil log discards output.
func NewSession(connector Connector, config SessionConfig, log *logrus.Entry) *Session {
	defaults := DefaultSessionConfig()
	if config.StopTimeout <= 0 {
		config.StopTimeout = defaults.StopTimeout
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaults.RequestTimeout
	}
	if config.Request == "" {
		config.Request = defaults.Request
	}

	s := &Session{
		id:        uuid.NewString(),
		connector: connector,
		config:    config,
	}
	s.log = logging.OrDiscard(log).WithField("session", s.id[:8])

	s.Stopped = event.NewSignal[struct{}](s, event.WithName("stopped"))
	s.StateChanged = event.NewSignal[StateChange](s, event.WithName("stateChanged"))
	s.Output = event.NewSignal[Output](s, event.WithName("output"))
	s.BreakpointUpdated = event.NewSignal[Breakpoint](s, event.WithName("breakpointUpdated"))
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Started reports whether the session has completed Start and not been
// stopped since.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// CurrentLine returns the line of the most recent stop, or 0 when the
// session is not stopped.
func (s *Session) CurrentLine() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.line
}

// ThreadID returns the thread of the most recent stop.
func (s *Session) ThreadID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// StopReason returns the adapter's reason for the current stop.
func (s *Session) StopReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Capabilities returns the debug adapter capabilities reported during
// Start.
func (s *Session) Capabilities() godap.Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps
}

// Start connects to the adapter and runs the DAP handshake. It returns once
// the adapter has acknowledged the launch or attach request, leaving the
// session Running. Start on a connected session does nothing.
//
// Failures return a *ConnectionError and leave the session Idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	connected := s.link != nil
	s.mu.Unlock()
	if connected {
		return nil
	}

	transport, err := s.connector.Connect(ctx)
	if err != nil {
		return &ConnectionError{Op: "dial", Err: err}
	}

	l := s.newLink(transport)
	s.mu.Lock()
	s.link = l
	s.mu.Unlock()

	if err := s.handshake(ctx, l); err != nil {
		if s.detach(l) {
			s.release(context.Background(), l, false)
		}
		s.log.WithError(err).Warn("start failed")
		return err
	}

	s.log.Info("session started")
	return nil
}

func (s *Session) newLink(transport dap.Transport) *link {
	ctx, cancel := context.WithCancel(context.Background())
	l := &link{
		client:      dap.NewClient(transport, s.log.WithField("layer", logging.LayerDAP)),
		ctx:         ctx,
		cancel:      cancel,
		initialized: make(chan struct{}),
		lost:        make(chan struct{}),
	}

	c := l.client
	c.OnInitialized(func() {
		l.initOnce.Do(func() { close(l.initialized) })
	})
	c.OnStopped(func(body godap.StoppedEventBody) { s.onStopped(l, body) })
	c.OnContinued(func(godap.ContinuedEventBody) { s.onContinued(l) })
	c.OnExited(func(body godap.ExitedEventBody) {
		s.onEnded(l, fmt.Sprintf("exited with code %d", body.ExitCode))
	})
	c.OnTerminated(func(godap.TerminatedEventBody) { s.onEnded(l, "terminated") })
	c.OnOutput(func(body godap.OutputEventBody) { s.onOutput(l, body) })
	c.OnBreakpoint(func(body godap.BreakpointEventBody) { s.onBreakpoint(l, body) })
	c.OnDisconnected(func(err error) {
		l.lostOnce.Do(func() { close(l.lost) })
		s.onLost(l, err)
	})
	return l
}

// handshake runs initialize, launch or attach, the configure hook and
// configurationDone. The launch request is sent without waiting for its
// response because some adapters only answer it after configurationDone.
func (s *Session) handshake(ctx context.Context, l *link) error {
	caps, err := l.client.Initialize(ctx, godap.InitializeRequestArguments{
		ClientID:             s.config.ClientID,
		ClientName:           s.config.ClientName,
		AdapterID:            s.config.AdapterID,
		PathFormat:           "path",
		LinesStartAt1:        true,
		ColumnsStartAt1:      true,
		SupportsVariableType: true,
	})
	if err != nil {
		return &ConnectionError{Op: "initialize", Err: err}
	}

	s.mu.Lock()
	s.caps = *caps
	s.mu.Unlock()

	request := s.config.Request
	launched := make(chan error, 1)
	go func() {
		if request == "attach" {
			launched <- l.client.Attach(ctx, s.config.Arguments)
			return
		}
		launched <- l.client.Launch(ctx, s.config.Arguments)
	}()

	launchDone := false
	select {
	case <-l.initialized:
	case err := <-launched:
		if err != nil {
			return &ConnectionError{Op: request, Err: err}
		}
		launchDone = true
		if err := waitInitialized(ctx, l); err != nil {
			return err
		}
	case <-l.lost:
		return &ConnectionError{Op: "initialize", Err: lostError(l)}
	case <-ctx.Done():
		return &ConnectionError{Op: "initialize", Err: ctx.Err()}
	}

	if s.config.Configure != nil {
		if err := s.config.Configure(ctx, s); err != nil {
			return &ConnectionError{Op: "configure", Err: err}
		}
	}

	s.mu.Lock()
	if s.link != l {
		s.mu.Unlock()
		return &ConnectionError{Op: "configure", Err: lostError(l)}
	}
	old := s.state
	next, _ := transition(old, triggerReady)
	s.state = next
	s.started = true
	s.mu.Unlock()
	s.emitChange(old, next)

	if caps.SupportsConfigurationDoneRequest {
		if err := l.client.ConfigurationDone(ctx); err != nil {
			return &ConnectionError{Op: "configurationDone", Err: err}
		}
	}

	if !launchDone {
		select {
		case err := <-launched:
			if err != nil {
				return &ConnectionError{Op: request, Err: err}
			}
		case <-ctx.Done():
			return &ConnectionError{Op: request, Err: ctx.Err()}
		}
	}
	return nil
}

func waitInitialized(ctx context.Context, l *link) error {
	select {
	case <-l.initialized:
		return nil
	case <-l.lost:
		return &ConnectionError{Op: "initialized", Err: lostError(l)}
	case <-ctx.Done():
		return &ConnectionError{Op: "initialized", Err: ctx.Err()}
	}
}

func lostError(l *link) error {
	if err := l.client.Error(); err != nil {
		return fmt.Errorf("%w: %v", dap.ErrClientClosed, err)
	}
	return dap.ErrClientClosed
}

// Stop disconnects from the adapter and returns the session to Idle. The
// disconnect request is best effort and bounded by StopTimeout; failures are
// logged. Stop on an idle session does nothing.
func (s *Session) Stop(ctx context.Context) {
	s.mu.Lock()
	l := s.link
	s.mu.Unlock()

	if l == nil || !s.detach(l) {
		return
	}
	s.release(ctx, l, true)
	s.log.Info("session stopped")
}

// Dispose stops the session and severs every connection to its signals.
// The session must not be used afterwards.
func (s *Session) Dispose(ctx context.Context) {
	s.Stop(ctx)
	s.Stopped.DisconnectAll()
	s.StateChanged.DisconnectAll()
	s.Output.DisconnectAll()
	s.BreakpointUpdated.DisconnectAll()
}

// detach makes the session Idle and forgets l. It returns false if l is not
// the current link.
func (s *Session) detach(l *link) bool {
	s.mu.Lock()
	if s.link != l {
		s.mu.Unlock()
		return false
	}
	s.link = nil
	s.started = false
	s.threadID, s.frameID, s.line = 0, 0, 0
	s.reason = ""
	s.stopGen++
	old := s.state
	s.state, _ = transition(old, triggerEnded)
	s.mu.Unlock()

	l.cancel()
	s.emitChange(old, StateIdle)
	return true
}

// release sends disconnect when requested and closes the client.
func (s *Session) release(ctx context.Context, l *link, disconnect bool) {
	if disconnect {
		dctx, cancel := context.WithTimeout(ctx, s.config.StopTimeout)
		err := l.client.Disconnect(dctx, s.config.TerminateOnStop)
		cancel()
		if err != nil {
			s.log.WithError(err).Debug("disconnect failed")
		}
	}
	if err := l.client.Close(); err != nil {
		s.log.WithError(err).Debug("close transport")
	}
}

// Continue asks the adapter to resume the current thread. The session moves
// to Running when the adapter acknowledges, unless a newer stop has already
// arrived. Continue while Idle returns *InvalidStateError.
func (s *Session) Continue(ctx context.Context) error {
	s.mu.Lock()
	l, state, thread, gen := s.link, s.state, s.threadID, s.stopGen
	s.mu.Unlock()

	if l == nil || state == StateIdle {
		return &InvalidStateError{Op: "continue", State: state}
	}

	if _, err := l.client.Continue(ctx, thread); err != nil {
		return s.commandFailed(ctx, "continue", err)
	}
	s.resume(l, gen)
	return nil
}

// Next steps over the current line.
func (s *Session) Next(ctx context.Context) error {
	return s.step(ctx, "next", (*dap.Client).Next)
}

// StepIn steps into the call on the current line.
func (s *Session) StepIn(ctx context.Context) error {
	return s.step(ctx, "stepIn", (*dap.Client).StepIn)
}

// StepOut runs until the current function returns.
func (s *Session) StepOut(ctx context.Context) error {
	return s.step(ctx, "stepOut", (*dap.Client).StepOut)
}

func (s *Session) step(ctx context.Context, op string, send func(*dap.Client, context.Context, int) error) error {
	s.mu.Lock()
	l, state, thread, gen := s.link, s.state, s.threadID, s.stopGen
	s.mu.Unlock()

	if l == nil || state != StateStopped {
		return &InvalidStateError{Op: op, State: state}
	}

	if err := send(l.client, ctx, thread); err != nil {
		return s.commandFailed(ctx, op, err)
	}
	s.resume(l, gen)
	return nil
}

// Pause asks the adapter to suspend a running debuggee. The session moves
// to Stopped when the resulting stopped event arrives.
func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	l, state, thread := s.link, s.state, s.threadID
	s.mu.Unlock()

	if l == nil || state != StateRunning {
		return &InvalidStateError{Op: "pause", State: state}
	}
	if err := l.client.Pause(ctx, thread); err != nil {
		return s.commandFailed(ctx, "pause", err)
	}
	return nil
}

// commandFailed classifies a failed command. Context errors pass through,
// a dropped connection is a *ConnectionError and anything else is a logged
// *ProtocolError.
func (s *Session) commandFailed(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, dap.ErrClientClosed) {
		return &ConnectionError{Op: op, Err: err}
	}
	pe := &ProtocolError{Command: op, Err: err}
	s.log.WithError(pe).Warn("adapter request failed")
	return pe
}

// fetchFailed is commandFailed for read operations: protocol and connection
// failures are logged and swallowed, leaving only context errors.
func (s *Session) fetchFailed(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	pe := &ProtocolError{Command: op, Err: err}
	s.log.WithError(pe).Warn("adapter request failed")
	return nil
}

// stoppedAt returns the current link and frame if the session is Stopped.
func (s *Session) stoppedAt() (*link, int, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.link == nil || s.state != StateStopped {
		return nil, 0, 0, false
	}
	return s.link, s.frameID, s.stopGen, true
}

// stillStopped reports whether the stop identified by l and gen is still
// current, so data fetched for it is valid.
func (s *Session) stillStopped(l *link, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link == l && s.stopGen == gen && s.state == StateStopped
}

// Scopes returns the scopes of the top stack frame with the variables of
// every inexpensive scope filled in. Outside Stopped the result is empty.
// Adapter failures are logged and yield an empty result; only context errors
// are returned.
func (s *Session) Scopes(ctx context.Context) ([]Scope, error) {
	l, frame, gen, ok := s.stoppedAt()
	if !ok {
		return nil, nil
	}

	scopes, err := l.client.Scopes(ctx, frame)
	if err != nil {
		return nil, s.fetchFailed(ctx, "scopes", err)
	}

	out := make([]Scope, 0, len(scopes))
	for _, ds := range scopes {
		scope := scopeFromDAP(ds)
		if !ds.Expensive && ds.VariablesReference > 0 {
			vars, err := l.client.Variables(ctx, ds.VariablesReference)
			if err != nil {
				if ferr := s.fetchFailed(ctx, "variables", err); ferr != nil {
					return nil, ferr
				}
			} else {
				scope.Variables = variablesFromDAP(vars)
			}
		}
		out = append(out, scope)
	}

	if !s.stillStopped(l, gen) {
		return nil, nil
	}
	return out, nil
}

// Variables returns the variables of the first scope, normally the locals.
// The result is empty outside Stopped.
func (s *Session) Variables(ctx context.Context) ([]Variable, error) {
	scopes, err := s.Scopes(ctx)
	if err != nil || len(scopes) == 0 {
		return nil, err
	}
	return scopes[0].Variables, nil
}

// ExpandVariable returns the children of a variable or expensive scope.
func (s *Session) ExpandVariable(ctx context.Context, ref int) ([]Variable, error) {
	if ref <= 0 {
		return nil, nil
	}

	l, _, gen, ok := s.stoppedAt()
	if !ok {
		return nil, nil
	}

	vars, err := l.client.Variables(ctx, ref)
	if err != nil {
		return nil, s.fetchFailed(ctx, "variables", err)
	}
	if !s.stillStopped(l, gen) {
		return nil, nil
	}
	return variablesFromDAP(vars), nil
}

// StackTrace returns the stopped thread's call stack, top frame first.
func (s *Session) StackTrace(ctx context.Context) ([]StackFrame, error) {
	l, _, gen, ok := s.stoppedAt()
	if !ok {
		return nil, nil
	}

	body, err := l.client.StackTrace(ctx, godap.StackTraceArguments{ThreadId: s.ThreadID()})
	if err != nil {
		return nil, s.fetchFailed(ctx, "stackTrace", err)
	}
	if !s.stillStopped(l, gen) {
		return nil, nil
	}
	return framesFromDAP(body.StackFrames), nil
}

// Evaluate evaluates expression in the top frame. It is only valid while
// Stopped. Evaluation failures, such as an unknown identifier, are returned
// as *ProtocolError.
func (s *Session) Evaluate(ctx context.Context, expression string) (Variable, error) {
	s.mu.Lock()
	l, state, frame := s.link, s.state, s.frameID
	s.mu.Unlock()

	if l == nil || state != StateStopped {
		return Variable{}, &InvalidStateError{Op: "evaluate", State: state}
	}

	body, err := l.client.Evaluate(ctx, godap.EvaluateArguments{
		Expression: expression,
		FrameId:    frame,
		Context:    "repl",
	})
	if err != nil {
		return Variable{}, s.commandFailed(ctx, "evaluate", err)
	}
	return Variable{
		Name:               expression,
		Value:              body.Result,
		Type:               body.Type,
		VariablesReference: body.VariablesReference,
		NamedVariables:     body.NamedVariables,
		IndexedVariables:   body.IndexedVariables,
	}, nil
}

// SetBreakpoints replaces the adapter's breakpoints for path with lines. The
// result holds the adapter's verdict for each requested line, in order.
// It may be called from the Configure hook during Start.
func (s *Session) SetBreakpoints(ctx context.Context, path string, lines []int) ([]Breakpoint, error) {
	s.mu.Lock()
	l, state := s.link, s.state
	s.mu.Unlock()

	if l == nil {
		return nil, &InvalidStateError{Op: "setBreakpoints", State: state}
	}

	sbs := make([]godap.SourceBreakpoint, len(lines))
	for i, line := range lines {
		sbs[i] = godap.SourceBreakpoint{Line: line}
	}

	resp, err := l.client.SetBreakpoints(ctx, godap.SetBreakpointsArguments{
		Source:      godap.Source{Name: filepath.Base(path), Path: path},
		Breakpoints: sbs,
	})
	if err != nil {
		return nil, s.commandFailed(ctx, "setBreakpoints", err)
	}

	out := make([]Breakpoint, len(lines))
	for i, line := range lines {
		out[i] = Breakpoint{Path: path, Line: line}
		if i >= len(resp) {
			continue
		}
		out[i].Verified = resp[i].Verified
		out[i].Message = resp[i].Message
		out[i].AdapterID = resp[i].Id
		if resp[i].Line != 0 && resp[i].Line != line {
			out[i].ActualLine = resp[i].Line
		}
	}
	return out, nil
}

// resume moves the session to Running for a resume acknowledged at stop
// generation gen.
func (s *Session) resume(l *link, gen uint64) {
	s.mu.Lock()
	if s.link != l || s.stopGen != gen {
		s.mu.Unlock()
		return
	}
	old := s.state
	next, ok := transition(old, triggerResumed)
	if !ok {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.frameID, s.line = 0, 0
	s.reason = ""
	s.mu.Unlock()

	s.emitChange(old, next)
}

func (s *Session) emitChange(old, next State) {
	if old == next {
		return
	}
	s.log.Debugf("state %s -> %s", old, next)
	s.StateChanged.Emit(StateChange{Old: old, New: next})
}

// Event handlers

func (s *Session) onStopped(l *link, body godap.StoppedEventBody) {
	s.mu.Lock()
	if s.link != l || s.state == StateIdle {
		s.mu.Unlock()
		s.log.Debugf("ignoring stopped event (%s)", body.Reason)
		return
	}
	s.stopGen++
	gen := s.stopGen
	thread := body.ThreadId
	if thread == 0 {
		thread = s.threadID
	}
	s.mu.Unlock()

	thread, frame := s.locate(l, thread)

	s.mu.Lock()
	if s.link != l || s.stopGen != gen {
		s.mu.Unlock()
		return
	}
	old := s.state
	s.state, _ = transition(old, triggerStopped)
	s.threadID = thread
	s.frameID = frame.ID
	s.line = frame.Line
	s.reason = body.Reason
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"reason": body.Reason,
		"thread": thread,
		"line":   frame.Line,
	}).Info("stopped")

	s.emitChange(old, StateStopped)
	s.Stopped.Emit(struct{}{})
}

// locate finds the top frame of thread. When thread is 0 the first thread
// reported by the adapter is used. Failures yield a zero frame.
func (s *Session) locate(l *link, thread int) (int, StackFrame) {
	ctx, cancel := context.WithTimeout(l.ctx, s.config.RequestTimeout)
	defer cancel()

	if thread == 0 {
		threads, err := l.client.Threads(ctx)
		if err != nil {
			_ = s.fetchFailed(ctx, "threads", err)
			return 0, StackFrame{}
		}
		if len(threads) == 0 {
			return 0, StackFrame{}
		}
		thread = threads[0].Id
	}

	body, err := l.client.StackTrace(ctx, godap.StackTraceArguments{ThreadId: thread, Levels: 1})
	if err != nil {
		_ = s.fetchFailed(ctx, "stackTrace", err)
		return thread, StackFrame{}
	}
	if len(body.StackFrames) == 0 {
		return thread, StackFrame{}
	}
	return thread, framesFromDAP(body.StackFrames[:1])[0]
}

func (s *Session) onContinued(l *link) {
	s.mu.Lock()
	gen := s.stopGen
	s.mu.Unlock()
	s.resume(l, gen)
}

func (s *Session) onEnded(l *link, reason string) {
	if !s.detach(l) {
		return
	}
	s.log.Infof("debuggee %s", reason)
	go s.release(context.Background(), l, true)
}

func (s *Session) onLost(l *link, err error) {
	if !s.detach(l) {
		return
	}
	s.log.WithError(err).Warn("adapter connection lost")
	s.release(context.Background(), l, false)
}

func (s *Session) current(l *link) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link == l
}

func (s *Session) onOutput(l *link, body godap.OutputEventBody) {
	if !s.current(l) {
		return
	}
	s.Output.Emit(Output{Category: body.Category, Text: body.Output})
}

func (s *Session) onBreakpoint(l *link, body godap.BreakpointEventBody) {
	if !s.current(l) {
		return
	}
	s.BreakpointUpdated.Emit(Breakpoint{
		AdapterID:  body.Breakpoint.Id,
		Verified:   body.Breakpoint.Verified,
		Message:    body.Breakpoint.Message,
		ActualLine: body.Breakpoint.Line,
	})
}
