package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dshills/stepscope/internal/debugger"
	"github.com/dshills/stepscope/internal/debugger/panel"
)

const helpText = `commands:
  r          start the session
  c          continue
  n          step over
  i          step in
  o          step out
  v          show variables and breakpoints
  b <line>   toggle a breakpoint
  B          clear breakpoints
  s          stop the session
  q          quit
`

// errQuit ends the command loop.
var errQuit = errors.New("quit")

// repl reads debugger commands, one per line.
type repl struct {
	panel   *panel.Panel
	ctrl    *debugger.Controller
	out     io.Writer
	timeout time.Duration
}

func (r *repl) run(ctx context.Context, in lineReader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := in.ReadLine()
			if err != nil {
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprint(r.out, helpText)
	defer r.panel.Stop(context.Background())
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := r.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil && reportable(err) {
				fmt.Fprintf(r.out, "error: %v\n", err)
			}
		}
	}
}

// exec runs one command line.
func (r *repl) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	switch fields[0] {
	case "r", "run":
		return r.panel.Start(ctx)
	case "c", "continue":
		return r.panel.Continue(ctx)
	case "n", "next":
		return r.panel.Next(ctx)
	case "i", "in":
		return r.panel.StepIn(ctx)
	case "o", "out":
		return r.panel.StepOut(ctx)
	case "v", "vars":
		if err := r.panel.Refresh(ctx); err != nil {
			return err
		}
		return r.panel.Render(r.out)
	case "b", "break":
		if len(fields) != 2 {
			return fmt.Errorf("usage: b <line>")
		}
		line, err := parseLine(fields[1])
		if err != nil {
			return err
		}
		set, err := r.ctrl.ToggleBreakpoint(ctx, line)
		if err != nil {
			return err
		}
		if set {
			fmt.Fprintf(r.out, "breakpoint set at line %d\n", line)
		} else {
			fmt.Fprintf(r.out, "breakpoint cleared at line %d\n", line)
		}
		return nil
	case "B", "clear":
		return r.ctrl.ClearBreakpoints(ctx)
	case "s", "stop":
		r.panel.Stop(ctx)
		return nil
	case "q", "quit", "exit":
		return errQuit
	case "h", "help", "?":
		fmt.Fprint(r.out, helpText)
		return nil
	default:
		return fmt.Errorf("unknown command %q (h for help)", fields[0])
	}
}
