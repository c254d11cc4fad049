package adapters

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"

	"github.com/dshills/stepscope/internal/integration/debug"
	"github.com/dshills/stepscope/internal/integration/debug/dap"
)

// TCP connects to an adapter listening on address, retrying per policy.
func TCP(address string, policy dap.RetryPolicy) debug.Connector {
	return debug.ConnectorFunc(func(ctx context.Context) (dap.Transport, error) {
		return dap.DialTCPWithRetry(ctx, address, policy)
	})
}

// Stdio starts command and speaks DAP over its standard streams.
func Stdio(command string, args ...string) debug.Connector {
	return debug.ConnectorFunc(func(context.Context) (dap.Transport, error) {
		return dap.StartProcess(exec.Command(command, args...))
	})
}

// Spawn starts command as a TCP adapter and dials it. The literal "{addr}"
// in args is replaced with a free local address. Closing the transport kills
// the process.
func Spawn(command string, args []string, policy dap.RetryPolicy) debug.Connector {
	return debug.ConnectorFunc(func(ctx context.Context) (dap.Transport, error) {
		addr, err := FreeAddress()
		if err != nil {
			return nil, err
		}

		expanded := make([]string, len(args))
		for i, a := range args {
			expanded[i] = strings.ReplaceAll(a, "{addr}", addr)
		}

		cmd := exec.Command(command, expanded...)
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start %s: %w", command, err)
		}

		t, err := dap.DialTCPWithRetry(ctx, addr, policy)
		if err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return nil, err
		}
		return &processTransport{Transport: t, cmd: cmd}, nil
	})
}

// FreeAddress returns a loopback address with a port that was free when
// checked.
func FreeAddress() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("find free port: %w", err)
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		return "", err
	}
	return addr, nil
}

// processTransport ties an adapter process to its socket.
type processTransport struct {
	dap.Transport
	cmd *exec.Cmd
}

func (p *processTransport) Close() error {
	err := p.Transport.Close()
	_ = p.cmd.Process.Kill()
	var exitErr *exec.ExitError
	if werr := p.cmd.Wait(); werr != nil && !errors.As(werr, &exitErr) && err == nil {
		err = werr
	}
	return err
}
