package daptest

import (
	"sync"
	"sync/atomic"

	"github.com/google/go-dap"

	stepdap "github.com/dshills/stepscope/internal/integration/debug/dap"
)

// Program is an Adapter scripted as a single-threaded program stopped in
// one source file. It completes the handshake, verifies every breakpoint,
// reports the line given to StopAt as the top frame and serves SetLocals as
// the first scope's variables.
type Program struct {
	*Adapter
	path string
	line atomic.Int64
	ids  atomic.Int64

	mu     sync.Mutex
	locals []dap.Variable
}

// NewProgram creates a serving Program whose source file is path.
func NewProgram(path string) (*Program, stepdap.Transport) {
	adapter, transport := New()
	p := &Program{Adapter: adapter, path: path}

	adapter.Handle("initialize", func(a *Adapter, req dap.RequestMessage) dap.Message {
		_ = a.Send(Success(req, dap.Capabilities{SupportsConfigurationDoneRequest: true}))
		_ = a.Send(Event("initialized", nil))
		return nil
	})
	adapter.Handle("setBreakpoints", func(_ *Adapter, req dap.RequestMessage) dap.Message {
		args := req.(*dap.SetBreakpointsRequest).Arguments
		bps := make([]dap.Breakpoint, len(args.Breakpoints))
		for i, sb := range args.Breakpoints {
			bps[i] = dap.Breakpoint{Id: int(p.ids.Add(1)), Verified: true, Line: sb.Line}
		}
		return Success(req, dap.SetBreakpointsResponseBody{Breakpoints: bps})
	})
	adapter.Handle("stackTrace", func(_ *Adapter, req dap.RequestMessage) dap.Message {
		return Success(req, dap.StackTraceResponseBody{
			StackFrames: []dap.StackFrame{{
				Id:     1000,
				Name:   "main.main",
				Line:   int(p.line.Load()),
				Source: &dap.Source{Path: p.path},
			}},
			TotalFrames: 1,
		})
	})
	adapter.Handle("scopes", func(_ *Adapter, req dap.RequestMessage) dap.Message {
		return Success(req, dap.ScopesResponseBody{
			Scopes: []dap.Scope{{Name: "Locals", PresentationHint: "locals", VariablesReference: 1}},
		})
	})
	adapter.Handle("variables", func(_ *Adapter, req dap.RequestMessage) dap.Message {
		p.mu.Lock()
		defer p.mu.Unlock()
		return Success(req, dap.VariablesResponseBody{Variables: p.locals})
	})
	adapter.Serve()
	return p, transport
}

// SetLocals replaces the variables of the Locals scope.
func (p *Program) SetLocals(vars ...dap.Variable) {
	p.mu.Lock()
	p.locals = vars
	p.mu.Unlock()
}

// StopAt reports a breakpoint stop at line on thread 1.
func (p *Program) StopAt(line int) error {
	p.line.Store(int64(line))
	return p.Send(Stopped("breakpoint", 1))
}
