package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	godap "github.com/google/go-dap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stepscope/internal/config"
	"github.com/dshills/stepscope/internal/debugger"
	"github.com/dshills/stepscope/internal/debugger/panel"
	"github.com/dshills/stepscope/internal/integration/debug"
	"github.com/dshills/stepscope/internal/integration/debug/dap"
	"github.com/dshills/stepscope/internal/integration/debug/dap/daptest"
)

// syncBuffer is a bytes.Buffer safe for the editor and the test to share.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type replFixture struct {
	repl    *repl
	out     *syncBuffer
	program *daptest.Program
}

func newReplFixture(t *testing.T) *replFixture {
	t.Helper()
	f := &replFixture{out: &syncBuffer{}}

	var ctrl *debugger.Controller
	ctrl = debugger.NewController(func(path string) (*debug.Session, error) {
		program, transport := daptest.NewProgram(path)
		t.Cleanup(func() { program.Close() })
		f.program = program

		cfg := debug.DefaultSessionConfig()
		cfg.StopTimeout = 200 * time.Millisecond
		cfg.Configure = ctrl.SyncBreakpoints
		return debug.NewSession(debug.ConnectorFunc(func(context.Context) (dap.Transport, error) {
			return transport, nil
		}), cfg, nil), nil
	}, newTerminalEditor(f.out, "/src/main.go", false), nil)

	require.NoError(t, ctrl.SetActiveContext(context.Background(), "/src/main.go"))
	p := panel.New(ctrl, nil)
	p.Mount()
	t.Cleanup(func() {
		p.Unmount()
		ctrl.Close(context.Background())
	})

	f.repl = &repl{panel: p, ctrl: ctrl, out: f.out, timeout: 2 * time.Second}
	return f
}

func TestRepl_Scenario(t *testing.T) {
	f := newReplFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repl.exec(ctx, "b 10"))
	require.NoError(t, f.repl.exec(ctx, "r"))

	f.program.SetLocals(godap.Variable{Name: "x", Value: "1", Type: "int"})
	require.NoError(t, f.program.StopAt(10))

	require.Eventually(t, func() bool {
		return strings.Contains(f.out.String(), "=> main.go:10\n")
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, f.repl.exec(ctx, "v"))
	out := f.out.String()
	assert.Contains(t, out, "breakpoint set at line 10")
	assert.Contains(t, out, "/src/main.go [stopped] line 10")
	assert.Contains(t, out, "  x: 1\n")
	assert.Contains(t, out, "  * 10\n")

	require.NoError(t, f.repl.exec(ctx, "c"))
	assert.ErrorIs(t, f.repl.exec(ctx, "q"), errQuit)
}

func TestRepl_Commands(t *testing.T) {
	f := newReplFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.repl.exec(ctx, "   "))
	assert.ErrorIs(t, f.repl.exec(ctx, "c"), debug.ErrInvalidState)
	assert.ErrorIs(t, f.repl.exec(ctx, "n"), debug.ErrInvalidState)
	assert.ErrorContains(t, f.repl.exec(ctx, "b"), "usage")
	assert.ErrorContains(t, f.repl.exec(ctx, "b zero"), "invalid line")
	assert.ErrorContains(t, f.repl.exec(ctx, "b 0"), "invalid line")
	assert.ErrorContains(t, f.repl.exec(ctx, "frobnicate"), "unknown command")

	require.NoError(t, f.repl.exec(ctx, "b 4"))
	require.NoError(t, f.repl.exec(ctx, "b 4"))
	assert.Contains(t, f.out.String(), "breakpoint cleared at line 4")

	require.NoError(t, f.repl.exec(ctx, "h"))
	assert.Contains(t, f.out.String(), "toggle a breakpoint")
}

func TestRepl_RunEndsOnQuit(t *testing.T) {
	f := newReplFixture(t)

	done := make(chan error, 1)
	go func() { done <- f.repl.run(context.Background(), newScanReader(strings.NewReader("x\nq\n"))) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("repl did not quit")
	}
	assert.Contains(t, f.out.String(), `unknown command "x"`)
}

func TestDebugFlags_Apply(t *testing.T) {
	cfg := config.Default()
	flags := debugFlags{
		address:     "127.0.0.1:4711",
		adapter:     "python3 -m debugpy.adapter",
		kind:        "python",
		attach:      true,
		stopOnEntry: true,
		logLevel:    "debug",
	}
	require.NoError(t, flags.apply(cfg))

	assert.Equal(t, "127.0.0.1:4711", cfg.Adapter.Address)
	assert.Equal(t, "python3", cfg.Adapter.Command)
	assert.Equal(t, []string{"-m", "debugpy.adapter"}, cfg.Adapter.Args)
	assert.Equal(t, "python", cfg.Adapter.Type)
	assert.Equal(t, "attach", cfg.Adapter.Request)
	assert.True(t, cfg.Adapter.StopOnEntry)
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.Error(t, debugFlags{logLevel: "chatty"}.apply(config.Default()))
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[adapter]\naddress = \"127.0.0.1:4711\"\n"), 0o644))

	var out bytes.Buffer
	root := newRootCommand(strings.NewReader(""), &out)
	root.SetArgs([]string{"config", "--config", path})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "127.0.0.1:4711")
	assert.Contains(t, out.String(), "[session]")
}

func TestDebugCommandRequiresFile(t *testing.T) {
	root := newRootCommand(strings.NewReader(""), &bytes.Buffer{})
	root.SetArgs([]string{"debug"})
	assert.Error(t, root.Execute())
}

func TestTerminalEditor(t *testing.T) {
	var out bytes.Buffer
	e := newTerminalEditor(&out, "/src/app/main.go", true)

	e.AddLineHighlight(7)
	assert.Equal(t, 7, e.Line())
	assert.Equal(t, ansiBold+"=> main.go:7"+ansiReset+"\n", out.String())

	e.RemoveLineHighlight(3)
	assert.Equal(t, 7, e.Line())
	e.RemoveLineHighlight(7)
	assert.Zero(t, e.Line())
}

func TestCompleteCommand(t *testing.T) {
	assert.Equal(t, []string{"clear", "continue"}, completeCommand("c"))
	assert.Equal(t, []string{"vars"}, completeCommand("v"))
	assert.Empty(t, completeCommand("z"))
	assert.Len(t, completeCommand(""), len(commandNames))
}

func TestScanReader(t *testing.T) {
	r := newScanReader(strings.NewReader("c\nn\n"))
	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "c", line)
	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "n", line)
	_, err = r.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, r.Close())
}
