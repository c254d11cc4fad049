package dap_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-dap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stepdap "github.com/dshills/stepscope/internal/integration/debug/dap"
	"github.com/dshills/stepscope/internal/integration/debug/dap/daptest"
)

func newClient(t *testing.T) (*daptest.Adapter, *stepdap.Client) {
	t.Helper()
	adapter, transport := daptest.New()
	adapter.Serve()
	client := stepdap.NewClient(transport, nil)
	t.Cleanup(func() {
		client.Close()
		adapter.Close()
	})
	return adapter, client
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClient_ConfigurationDone(t *testing.T) {
	adapter, client := newClient(t)

	require.NoError(t, client.ConfigurationDone(testContext(t)))
	assert.Equal(t, []string{"configurationDone"}, adapter.Commands())
}

func TestClient_Initialize(t *testing.T) {
	adapter, client := newClient(t)
	adapter.Handle("initialize", func(_ *daptest.Adapter, req dap.RequestMessage) dap.Message {
		return daptest.Success(req, dap.Capabilities{
			SupportsConfigurationDoneRequest: true,
			SupportsStepBack:                 true,
		})
	})

	caps, err := client.Initialize(testContext(t), dap.InitializeRequestArguments{
		ClientID:      "stepscope",
		AdapterID:     "go",
		LinesStartAt1: true,
	})
	require.NoError(t, err)
	assert.True(t, caps.SupportsConfigurationDoneRequest)
	assert.True(t, caps.SupportsStepBack)

	reqs := adapter.Requests("initialize")
	require.Len(t, reqs, 1)
	init := reqs[0].(*dap.InitializeRequest)
	assert.Equal(t, "stepscope", init.Arguments.ClientID)
	assert.Equal(t, "go", init.Arguments.AdapterID)
}

func TestClient_SetBreakpoints(t *testing.T) {
	adapter, client := newClient(t)
	adapter.Handle("setBreakpoints", func(_ *daptest.Adapter, req dap.RequestMessage) dap.Message {
		args := req.(*dap.SetBreakpointsRequest).Arguments
		var bps []dap.Breakpoint
		for i, sb := range args.Breakpoints {
			bps = append(bps, dap.Breakpoint{Id: i + 1, Verified: true, Line: sb.Line})
		}
		return daptest.Success(req, dap.SetBreakpointsResponseBody{Breakpoints: bps})
	})

	bps, err := client.SetBreakpoints(testContext(t), dap.SetBreakpointsArguments{
		Source:      dap.Source{Path: "/src/main.go"},
		Breakpoints: []dap.SourceBreakpoint{{Line: 10}, {Line: 20}},
	})
	require.NoError(t, err)
	require.Len(t, bps, 2)
	assert.Equal(t, 10, bps[0].Line)
	assert.Equal(t, 20, bps[1].Line)
	assert.True(t, bps[1].Verified)

	req := adapter.Requests("setBreakpoints")[0].(*dap.SetBreakpointsRequest)
	assert.Equal(t, "/src/main.go", req.Arguments.Source.Path)
}

func TestClient_RequestFailure(t *testing.T) {
	adapter, client := newClient(t)
	adapter.Handle("launch", func(_ *daptest.Adapter, req dap.RequestMessage) dap.Message {
		return daptest.Failure(req, "program not found")
	})

	err := client.Launch(testContext(t), map[string]any{"program": "/nope"})

	var respErr *stepdap.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, "launch", respErr.Command)
	assert.Equal(t, "program not found", respErr.Message)
	assert.Equal(t, "launch failed: program not found", err.Error())
}

func TestClient_LaunchArguments(t *testing.T) {
	adapter, client := newClient(t)

	require.NoError(t, client.Launch(testContext(t), map[string]any{"program": "/bin/app", "stopOnEntry": true}))
	require.NoError(t, client.Attach(testContext(t), nil))

	launch := adapter.Requests("launch")[0].(*dap.LaunchRequest)
	assert.JSONEq(t, `{"program":"/bin/app","stopOnEntry":true}`, string(launch.Arguments))

	attach := adapter.Requests("attach")[0].(*dap.AttachRequest)
	assert.JSONEq(t, `{}`, string(attach.Arguments))
}

func TestClient_ContextCancellation(t *testing.T) {
	adapter, client := newClient(t)
	adapter.Handle("threads", func(*daptest.Adapter, dap.RequestMessage) dap.Message {
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Threads(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_MalformedResponseFailsRequest(t *testing.T) {
	adapter, client := newClient(t)
	adapter.Handle("variables", func(a *daptest.Adapter, req dap.RequestMessage) dap.Message {
		_ = a.SendRaw(daptest.Malformed(req))
		return nil
	})

	_, err := client.Variables(testContext(t), 1000)
	assert.ErrorIs(t, err, stepdap.ErrMalformedResponse)
	assert.Contains(t, err.Error(), "variables")

	// The connection survives.
	_, err = client.Threads(testContext(t))
	assert.NoError(t, err)
}

func TestClient_EventHandlers(t *testing.T) {
	adapter, client := newClient(t)

	var mu sync.Mutex
	var got []string
	record := func(s string) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}

	done := make(chan struct{})
	client.OnInitialized(func() { record("initialized") })
	client.OnStopped(func(body dap.StoppedEventBody) { record("stopped:" + body.Reason) })
	client.OnContinued(func(dap.ContinuedEventBody) { record("continued") })
	client.OnOutput(func(body dap.OutputEventBody) { record("output:" + body.Output) })
	client.OnExited(func(dap.ExitedEventBody) { record("exited") })
	client.OnTerminated(func(dap.TerminatedEventBody) {
		record("terminated")
		close(done)
	})

	require.NoError(t, adapter.Send(daptest.Event("initialized", nil)))
	require.NoError(t, adapter.Send(daptest.Stopped("breakpoint", 1)))
	require.NoError(t, adapter.Send(daptest.Event("continued", dap.ContinuedEventBody{ThreadId: 1})))
	require.NoError(t, adapter.Send(daptest.Event("output", dap.OutputEventBody{Category: "stdout", Output: "hi"})))
	require.NoError(t, adapter.Send(daptest.Event("exited", dap.ExitedEventBody{ExitCode: 0})))
	require.NoError(t, adapter.Send(daptest.Event("terminated", nil)))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("terminated handler not called")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"initialized",
		"stopped:breakpoint",
		"continued",
		"output:hi",
		"exited",
		"terminated",
	}, got)
}

func TestClient_OnAnyEvent(t *testing.T) {
	adapter, client := newClient(t)

	events := make(chan string, 4)
	client.OnAnyEvent(func(m dap.EventMessage) { events <- m.GetEvent().Event })

	require.NoError(t, adapter.Send(daptest.Event("thread", dap.ThreadEventBody{Reason: "started", ThreadId: 3})))

	select {
	case name := <-events:
		assert.Equal(t, "thread", name)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestClient_HandlerMayIssueRequests(t *testing.T) {
	adapter, client := newClient(t)
	adapter.Handle("stackTrace", func(_ *daptest.Adapter, req dap.RequestMessage) dap.Message {
		return daptest.Success(req, dap.StackTraceResponseBody{
			StackFrames: []dap.StackFrame{{Id: 1000, Name: "main.main", Line: 10}},
			TotalFrames: 1,
		})
	})

	lines := make(chan int, 1)
	client.OnStopped(func(body dap.StoppedEventBody) {
		trace, err := client.StackTrace(context.Background(), dap.StackTraceArguments{ThreadId: body.ThreadId, Levels: 1})
		if err != nil {
			lines <- -1
			return
		}
		lines <- trace.StackFrames[0].Line
	})

	require.NoError(t, adapter.Send(daptest.Stopped("breakpoint", 1)))

	select {
	case line := <-lines:
		assert.Equal(t, 10, line)
	case <-time.After(2 * time.Second):
		t.Fatal("stopped handler deadlocked")
	}
}

func TestClient_ScopesAndVariables(t *testing.T) {
	adapter, client := newClient(t)
	adapter.Handle("scopes", func(_ *daptest.Adapter, req dap.RequestMessage) dap.Message {
		return daptest.Success(req, dap.ScopesResponseBody{
			Scopes: []dap.Scope{{Name: "Locals", VariablesReference: 1000}},
		})
	})
	adapter.Handle("variables", func(_ *daptest.Adapter, req dap.RequestMessage) dap.Message {
		return daptest.Success(req, dap.VariablesResponseBody{
			Variables: []dap.Variable{{Name: "x", Value: "1", Type: "int"}},
		})
	})

	ctx := testContext(t)
	scopes, err := client.Scopes(ctx, 1)
	require.NoError(t, err)
	require.Len(t, scopes, 1)
	assert.Equal(t, 1000, scopes[0].VariablesReference)

	vars, err := client.Variables(ctx, scopes[0].VariablesReference)
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.Equal(t, "x", vars[0].Name)

	req := adapter.Requests("variables")[0].(*dap.VariablesRequest)
	assert.Equal(t, 1000, req.Arguments.VariablesReference)
}

func TestClient_Evaluate(t *testing.T) {
	adapter, client := newClient(t)
	adapter.Handle("evaluate", func(_ *daptest.Adapter, req dap.RequestMessage) dap.Message {
		return daptest.Success(req, dap.EvaluateResponseBody{Result: "42", Type: "int"})
	})

	body, err := client.Evaluate(testContext(t), dap.EvaluateArguments{Expression: "x * 2", Context: "repl"})
	require.NoError(t, err)
	assert.Equal(t, "42", body.Result)
}

func TestClient_SequenceNumbers(t *testing.T) {
	adapter, client := newClient(t)

	ctx := testContext(t)
	for i := 0; i < 3; i++ {
		_, err := client.Threads(ctx)
		require.NoError(t, err)
	}

	reqs := adapter.Requests("threads")
	require.Len(t, reqs, 3)
	for i, r := range reqs {
		assert.Equal(t, i+1, r.GetRequest().Seq)
	}
}

func TestClient_DisconnectFailsPending(t *testing.T) {
	adapter, client := newClient(t)
	adapter.Handle("continue", func(a *daptest.Adapter, _ dap.RequestMessage) dap.Message {
		a.Close()
		return nil
	})

	disconnected := make(chan error, 1)
	client.OnDisconnected(func(err error) { disconnected <- err })

	_, err := client.Continue(testContext(t), 1)
	assert.ErrorIs(t, err, stepdap.ErrClientClosed)

	select {
	case err := <-disconnected:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect handler not called")
	}
	assert.Error(t, client.Error())
}

func TestClient_RequestAfterClose(t *testing.T) {
	_, client := newClient(t)
	require.NoError(t, client.Close())

	err := client.ConfigurationDone(context.Background())
	assert.True(t, errors.Is(err, stepdap.ErrClientClosed))
	assert.NoError(t, client.Close())
	client.Wait()
}
