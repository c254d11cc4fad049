package debugger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dshills/stepscope/internal/event"
	"github.com/dshills/stepscope/internal/integration/debug"
	"github.com/dshills/stepscope/internal/logging"
)

// ErrNoContext is returned by breakpoint operations when no context is active.
var ErrNoContext = errors.New("no active context")

// Editor is the editing surface that displays the execution line.
type Editor interface {
	AddLineHighlight(line int)
	RemoveLineHighlight(line int)
}

// SessionFactory creates the session for a context. The returned session
// must be idle.
type SessionFactory func(path string) (*debug.Session, error)

// ContextChange is the payload of ActiveContextChanged.
type ContextChange struct {
	Path        string
	Session     *debug.Session
	Breakpoints []debug.Breakpoint
}

// BreakpointChange is the payload of BreakpointChanged. Breakpoints is the
// complete, line-ordered set for Path.
type BreakpointChange struct {
	Path        string
	Breakpoints []debug.Breakpoint
}

// Controller tracks the active context, its session and its breakpoints.
type Controller struct {
	factory SessionFactory
	editor  Editor
	store   *debug.BreakpointStore
	log     *logrus.Entry

	// switchMu serializes context switches.
	switchMu sync.Mutex
	// recv holds the controller's own connections to the current session.
	recv *event.Receiver

	mu      sync.RWMutex
	path    string
	session *debug.Session

	hmu       sync.Mutex
	highlight int

	// ActiveContextChanged fires after the active context and its session
	// have been replaced.
	ActiveContextChanged *event.Signal[ContextChange]

	// BreakpointChanged fires whenever the active context's breakpoints or
	// their verification change.
	BreakpointChanged *event.Signal[BreakpointChange]
}

// NewController creates a controller. editor may be nil, in which case the
// highlighted line is only tracked. A nil log discards output.
func NewController(factory SessionFactory, editor Editor, log *logrus.Entry) *Controller {
	c := &Controller{
		factory: factory,
		editor:  editor,
		store:   debug.NewBreakpointStore(),
		log:     logging.OrDiscard(log),
		recv:    event.NewReceiver(),
	}
	c.ActiveContextChanged = event.NewSignal[ContextChange](c, event.WithName("activeContextChanged"))
	c.BreakpointChanged = event.NewSignal[BreakpointChange](c, event.WithName("breakpointChanged"))
	return c
}

// Session returns the active context's session, or nil. Compare sessions by
// identity to detect a stale reference after a context switch.
func (c *Controller) Session() *debug.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// ActiveContext returns the active context path.
func (c *Controller) ActiveContext() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// SetActiveContext makes path the active context. The previous session is
// stopped and its signals severed before the new session is created. Setting
// the context that is already active does nothing.
func (c *Controller) SetActiveContext(ctx context.Context, path string) error {
	c.switchMu.Lock()
	defer c.switchMu.Unlock()

	c.mu.RLock()
	current, old := c.path, c.session
	c.mu.RUnlock()

	if path == current && old != nil {
		return nil
	}

	c.recv.DisconnectAll()
	if old != nil {
		old.Dispose(ctx)
		c.store.ResetVerification(current)
	}
	c.ClearLineHighlight()

	c.mu.Lock()
	c.path, c.session = "", nil
	c.mu.Unlock()

	session, err := c.factory(path)
	if err != nil {
		return fmt.Errorf("create session for %s: %w", path, err)
	}
	c.watch(session, path)

	c.mu.Lock()
	c.path, c.session = path, session
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"context": path, "session": session.ID()}).Debug("active context changed")
	c.ActiveContextChanged.Emit(ContextChange{
		Path:        path,
		Session:     session,
		Breakpoints: c.store.For(path),
	})
	return nil
}

// watch connects the controller to session. Handlers never take switchMu,
// so disposing a session while switching cannot deadlock.
func (c *Controller) watch(session *debug.Session, path string) {
	session.StateChanged.ConnectTo(c.recv, func(_ any, change debug.StateChange) {
		if change.New != debug.StateIdle {
			return
		}
		c.ClearLineHighlight()
		c.store.ResetVerification(path)
		c.emitBreakpoints(path)
	})
	session.BreakpointUpdated.ConnectTo(c.recv, func(_ any, update debug.Breakpoint) {
		if c.store.ApplyUpdate(path, update) {
			c.emitBreakpoints(path)
		}
	})
}

// Close disposes the active session and severs the controller's signals.
func (c *Controller) Close(ctx context.Context) {
	c.switchMu.Lock()
	defer c.switchMu.Unlock()

	c.recv.DisconnectAll()
	c.mu.Lock()
	path, session := c.path, c.session
	c.path, c.session = "", nil
	c.mu.Unlock()

	if session != nil {
		session.Dispose(ctx)
		c.store.ResetVerification(path)
	}
	c.ClearLineHighlight()
	c.ActiveContextChanged.DisconnectAll()
	c.BreakpointChanged.DisconnectAll()
}

// Breakpoints returns the active context's breakpoints ordered by line.
func (c *Controller) Breakpoints() []debug.Breakpoint {
	path := c.ActiveContext()
	if path == "" {
		return nil
	}
	return c.store.For(path)
}

// AddBreakpoint adds a breakpoint at line in the active context.
func (c *Controller) AddBreakpoint(ctx context.Context, line int) error {
	path, err := c.activePath()
	if err != nil {
		return err
	}
	_, added, err := c.store.Add(path, line)
	if err != nil || !added {
		return err
	}
	return c.breakpointsChanged(ctx, path)
}

// RemoveBreakpoint removes the breakpoint at line in the active context.
func (c *Controller) RemoveBreakpoint(ctx context.Context, line int) error {
	path, err := c.activePath()
	if err != nil {
		return err
	}
	if !c.store.Remove(path, line) {
		return nil
	}
	return c.breakpointsChanged(ctx, path)
}

// ToggleBreakpoint adds or removes the breakpoint at line and reports whether
// it is now set.
func (c *Controller) ToggleBreakpoint(ctx context.Context, line int) (bool, error) {
	path, err := c.activePath()
	if err != nil {
		return false, err
	}
	set, err := c.store.Toggle(path, line)
	if err != nil {
		return false, err
	}
	return set, c.breakpointsChanged(ctx, path)
}

// ClearBreakpoints removes every breakpoint in the active context.
func (c *Controller) ClearBreakpoints(ctx context.Context) error {
	path, err := c.activePath()
	if err != nil {
		return err
	}
	if c.store.Clear(path) == 0 {
		return nil
	}
	return c.breakpointsChanged(ctx, path)
}

// SyncBreakpoints sends the active context's breakpoints to session and
// emits the verified set. Its signature matches debug.SessionConfig.Configure
// so factories can install it as the handshake hook. A rejected request is
// logged and does not fail the handshake.
func (c *Controller) SyncBreakpoints(ctx context.Context, session *debug.Session) error {
	path := c.ActiveContext()
	if path == "" {
		return nil
	}
	if err := c.push(ctx, session, path); err != nil && ctx.Err() != nil {
		return err
	}
	c.emitBreakpoints(path)
	return nil
}

func (c *Controller) activePath() (string, error) {
	path := c.ActiveContext()
	if path == "" {
		return "", ErrNoContext
	}
	return path, nil
}

// breakpointsChanged pushes the set to a started session and then emits the
// full list, so receivers see the adapter's verification when there is one.
func (c *Controller) breakpointsChanged(ctx context.Context, path string) error {
	var err error
	if session := c.Session(); session != nil && session.Started() {
		err = c.push(ctx, session, path)
	}
	c.emitBreakpoints(path)
	return err
}

func (c *Controller) push(ctx context.Context, session *debug.Session, path string) error {
	results, err := session.SetBreakpoints(ctx, path, c.store.Lines(path))
	if err != nil {
		c.log.WithError(err).WithField("context", path).Warn("set breakpoints failed")
		return err
	}
	c.store.ApplyResults(path, results)
	return nil
}

func (c *Controller) emitBreakpoints(path string) {
	if path != c.ActiveContext() {
		return
	}
	c.BreakpointChanged.Emit(BreakpointChange{Path: path, Breakpoints: c.store.For(path)})
}

// AddLineHighlight highlights line on the editor, replacing any previous
// highlight. Line 0 does nothing.
func (c *Controller) AddLineHighlight(line int) {
	if line <= 0 {
		return
	}

	c.hmu.Lock()
	defer c.hmu.Unlock()

	if c.highlight == line {
		return
	}
	if c.highlight != 0 && c.editor != nil {
		c.editor.RemoveLineHighlight(c.highlight)
	}
	c.highlight = line
	if c.editor != nil {
		c.editor.AddLineHighlight(line)
	}
}

// ClearLineHighlight removes the current highlight, if any.
func (c *Controller) ClearLineHighlight() {
	c.hmu.Lock()
	defer c.hmu.Unlock()

	if c.highlight == 0 {
		return
	}
	if c.editor != nil {
		c.editor.RemoveLineHighlight(c.highlight)
	}
	c.highlight = 0
}

// HighlightedLine returns the highlighted line, or 0.
func (c *Controller) HighlightedLine() int {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	return c.highlight
}

// SaveBreakpoints writes every context's breakpoints to file.
func (c *Controller) SaveBreakpoints(file string) error {
	return c.store.Save(file)
}

// LoadBreakpoints replaces all breakpoints with those in file and emits the
// active context's new set.
func (c *Controller) LoadBreakpoints(ctx context.Context, file string) error {
	if err := c.store.Load(file); err != nil {
		return err
	}
	path := c.ActiveContext()
	if path == "" {
		return nil
	}
	return c.breakpointsChanged(ctx, path)
}
