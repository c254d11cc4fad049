// Package panel is the debugger panel model: it observes a Controller and its
// current session, keeps a snapshot of what to display and renders it as text.
package panel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dshills/stepscope/internal/debugger"
	"github.com/dshills/stepscope/internal/event"
	"github.com/dshills/stepscope/internal/integration/debug"
	"github.com/dshills/stepscope/internal/logging"
)

// ErrNoSession is returned by actions when no context is active.
var ErrNoSession = errors.New("no debug session")

// maxOutput is the number of output lines kept for display.
const maxOutput = 50

// View is a snapshot of the panel.
type View struct {
	Path        string
	State       debug.State
	Line        int
	Locals      []debug.Variable
	Breakpoints []debug.Breakpoint
	Output      []string
}

// Panel observes a controller. All reads go through Snapshot.
type Panel struct {
	ctrl *debugger.Controller
	log  *logrus.Entry

	// ctrlRecv holds connections to the controller, sessRecv those to the
	// current session.
	ctrlRecv *event.Receiver
	sessRecv *event.Receiver

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	mounted bool
	session *debug.Session
	view    View

	// Updated fires whenever the snapshot changes.
	Updated *event.Signal[struct{}]
}

// New creates an unmounted panel for ctrl. A nil log discards output.
func New(ctrl *debugger.Controller, log *logrus.Entry) *Panel {
	p := &Panel{
		ctrl:     ctrl,
		log:      logging.OrDiscard(log),
		ctrlRecv: event.NewReceiver(),
		sessRecv: event.NewReceiver(),
	}
	p.Updated = event.NewSignal[struct{}](p, event.WithName("updated"))
	return p
}

// Mount subscribes to the controller and its current session. Mounting a
// mounted panel does nothing.
func (p *Panel) Mount() {
	p.mu.Lock()
	if p.mounted {
		p.mu.Unlock()
		return
	}
	p.mounted = true
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.mu.Unlock()

	p.ctrl.ActiveContextChanged.ConnectTo(p.ctrlRecv, func(_ any, change debugger.ContextChange) {
		p.attach(change.Path, change.Session, change.Breakpoints)
	})
	p.ctrl.BreakpointChanged.ConnectTo(p.ctrlRecv, func(_ any, change debugger.BreakpointChange) {
		p.mu.Lock()
		if change.Path != p.view.Path {
			p.mu.Unlock()
			return
		}
		p.view.Breakpoints = change.Breakpoints
		p.mu.Unlock()
		p.Updated.Emit(struct{}{})
	})

	p.attach(p.ctrl.ActiveContext(), p.ctrl.Session(), p.ctrl.Breakpoints())
}

// Unmount severs every subscription and waits for running refreshes.
// It is safe to call on an unmounted panel.
func (p *Panel) Unmount() {
	p.mu.Lock()
	if !p.mounted {
		p.mu.Unlock()
		return
	}
	p.mounted = false
	p.session = nil
	cancel := p.cancel
	p.mu.Unlock()

	p.ctrlRecv.DisconnectAll()
	p.sessRecv.DisconnectAll()
	cancel()
	p.wg.Wait()
}

// attach drops the previous session's subscriptions before subscribing to
// session.
func (p *Panel) attach(path string, session *debug.Session, breakpoints []debug.Breakpoint) {
	p.sessRecv.DisconnectAll()

	p.mu.Lock()
	p.session = session
	p.view = View{Path: path, Breakpoints: breakpoints}
	if session != nil {
		p.view.State = session.State()
		p.view.Line = session.CurrentLine()
	}
	p.mu.Unlock()

	if session != nil {
		session.Stopped.ConnectTo(p.sessRecv, func(any, struct{}) {
			p.spawnRefresh(session)
		})
		session.StateChanged.ConnectTo(p.sessRecv, func(_ any, change debug.StateChange) {
			p.stateChanged(session, change)
		})
		session.Output.ConnectTo(p.sessRecv, func(_ any, out debug.Output) {
			p.appendOutput(session, out)
		})
	}
	p.Updated.Emit(struct{}{})
}

// spawnRefresh runs Refresh off the emitting goroutine.
func (p *Panel) spawnRefresh(session *debug.Session) {
	p.mu.Lock()
	if !p.mounted || p.session != session {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		if err := p.refresh(ctx, session); err != nil {
			p.log.WithError(err).Debug("refresh abandoned")
		}
	}()
}

// Refresh fetches the current session's variables and line, then highlights
// the line.
func (p *Panel) Refresh(ctx context.Context) error {
	p.mu.Lock()
	session := p.session
	p.mu.Unlock()

	if session == nil {
		return nil
	}
	return p.refresh(ctx, session)
}

func (p *Panel) refresh(ctx context.Context, session *debug.Session) error {
	locals, err := session.Variables(ctx)
	if err != nil {
		return err
	}
	line := session.CurrentLine()
	state := session.State()
	if state != debug.StateStopped {
		locals, line = nil, 0
	}

	p.mu.Lock()
	stale := p.session != session
	p.mu.Unlock()
	if stale {
		return nil
	}

	p.ctrl.AddLineHighlight(line)

	p.mu.Lock()
	if p.session == session {
		p.view.Locals = locals
		p.view.Line = line
		p.view.State = state
	}
	p.mu.Unlock()
	p.Updated.Emit(struct{}{})
	return nil
}

func (p *Panel) stateChanged(session *debug.Session, change debug.StateChange) {
	p.mu.Lock()
	if p.session != session {
		p.mu.Unlock()
		return
	}
	p.view.State = change.New
	if change.New != debug.StateStopped {
		p.view.Locals = nil
		p.view.Line = 0
	}
	p.mu.Unlock()
	p.Updated.Emit(struct{}{})
}

func (p *Panel) appendOutput(session *debug.Session, out debug.Output) {
	p.mu.Lock()
	if p.session != session {
		p.mu.Unlock()
		return
	}
	p.view.Output = append(p.view.Output, out.Text)
	if n := len(p.view.Output); n > maxOutput {
		p.view.Output = append([]string(nil), p.view.Output[n-maxOutput:]...)
	}
	p.mu.Unlock()
	p.Updated.Emit(struct{}{})
}

// Snapshot returns a copy of the current view.
func (p *Panel) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := p.view
	v.Locals = append([]debug.Variable(nil), p.view.Locals...)
	v.Breakpoints = append([]debug.Breakpoint(nil), p.view.Breakpoints...)
	v.Output = append([]string(nil), p.view.Output...)
	return v
}

func (p *Panel) current() (*debug.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil, ErrNoSession
	}
	return p.session, nil
}

// Start starts the current session.
func (p *Panel) Start(ctx context.Context) error {
	s, err := p.current()
	if err != nil {
		return err
	}
	return s.Start(ctx)
}

// Stop stops the current session.
func (p *Panel) Stop(ctx context.Context) {
	if s, err := p.current(); err == nil {
		s.Stop(ctx)
	}
}

// Continue resumes the current session.
func (p *Panel) Continue(ctx context.Context) error {
	s, err := p.current()
	if err != nil {
		return err
	}
	return s.Continue(ctx)
}

// Next steps over the current line.
func (p *Panel) Next(ctx context.Context) error {
	s, err := p.current()
	if err != nil {
		return err
	}
	return s.Next(ctx)
}

// StepIn steps into the call on the current line.
func (p *Panel) StepIn(ctx context.Context) error {
	s, err := p.current()
	if err != nil {
		return err
	}
	return s.StepIn(ctx)
}

// StepOut runs until the current function returns.
func (p *Panel) StepOut(ctx context.Context) error {
	s, err := p.current()
	if err != nil {
		return err
	}
	return s.StepOut(ctx)
}

// Render writes the view as plain text.
func (p *Panel) Render(w io.Writer) error {
	return Render(w, p.Snapshot())
}

// Render writes v as plain text.
func Render(w io.Writer, v View) error {
	ew := &errWriter{w: w}

	if v.Path == "" {
		ew.printf("no active context\n")
		return ew.err
	}

	ew.printf("%s [%s]", v.Path, v.State)
	if v.Line > 0 {
		ew.printf(" line %d", v.Line)
	}
	ew.printf("\n")

	ew.printf("Locals:\n")
	if len(v.Locals) == 0 {
		ew.printf("  (none)\n")
	}
	for _, local := range v.Locals {
		ew.printf("  %s\n", local)
	}

	ew.printf("Breakpoints:\n")
	if len(v.Breakpoints) == 0 {
		ew.printf("  (none)\n")
	}
	for _, bp := range v.Breakpoints {
		mark := "o"
		if bp.Verified {
			mark = "*"
		}
		ew.printf("  %s %d", mark, bp.Line)
		if bp.ActualLine != 0 {
			ew.printf(" -> %d", bp.ActualLine)
		}
		if bp.Message != "" {
			ew.printf(" (%s)", bp.Message)
		}
		ew.printf("\n")
	}

	if len(v.Output) > 0 {
		ew.printf("Output:\n")
		for _, line := range v.Output {
			ew.printf("  %s", line)
			if line == "" || line[len(line)-1] != '\n' {
				ew.printf("\n")
			}
		}
	}
	return ew.err
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
