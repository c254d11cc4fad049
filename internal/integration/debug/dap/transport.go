// Package dap implements a Debug Adapter Protocol client on top of the
// message types and codec from github.com/google/go-dap.
package dap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-dap"
)

// Transport moves DAP messages to and from a debug adapter.
// ReadMessage is called from a single goroutine; WriteMessage may be called
// concurrently.
type Transport interface {
	// ReadMessage blocks until the next message is available.
	ReadMessage() (dap.Message, error)

	// WriteMessage sends a message to the debug adapter.
	WriteMessage(msg dap.Message) error

	// Close closes the transport. Blocked reads return an error.
	Close() error
}

// streamTransport implements Transport over any io.ReadWriteCloser.
type streamTransport struct {
	rwc    io.ReadWriteCloser
	reader *bufio.Reader

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
	onClose   func() error
}

// NewStreamTransport wraps rwc as a Transport.
func NewStreamTransport(rwc io.ReadWriteCloser) Transport {
	return newStreamTransport(rwc)
}

func newStreamTransport(rwc io.ReadWriteCloser) *streamTransport {
	return &streamTransport{
		rwc:    rwc,
		reader: bufio.NewReader(rwc),
	}
}

// ReadMessage reads and decodes the next message. Framing errors, including
// bodies over go-dap's content limit, are returned as *dap.BaseProtocolError.
// A well-framed body that does not decode is a *DecodeError and leaves the
// stream positioned at the next message.
func (t *streamTransport) ReadMessage() (dap.Message, error) {
	content, err := dap.ReadBaseMessage(t.reader)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	msg, err := dap.DecodeProtocolMessage(content)
	if err != nil {
		return nil, &DecodeError{Content: content, Err: err}
	}
	return msg, nil
}

// WriteMessage encodes and writes msg.
func (t *streamTransport) WriteMessage(msg dap.Message) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := dap.WriteProtocolMessage(t.rwc, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close closes the underlying stream once.
func (t *streamTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.rwc.Close()
		if t.onClose != nil {
			if err := t.onClose(); err != nil && t.closeErr == nil {
				t.closeErr = err
			}
		}
	})
	return t.closeErr
}

// DialTCP connects to a debug adapter listening on address.
func DialTCP(ctx context.Context, address string) (Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return NewStreamTransport(conn), nil
}

// RetryPolicy bounds DialTCPWithRetry.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration

	// MaxInterval caps the delay between retries.
	MaxInterval time.Duration
}

// DialTCPWithRetry dials address, retrying with exponential backoff. It is
// meant for adapters that are started alongside the client and take a moment
// to begin listening.
func DialTCPWithRetry(ctx context.Context, address string, policy RetryPolicy) (Transport, error) {
	eb := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		eb.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		eb.MaxInterval = policy.MaxInterval
	}
	eb.MaxElapsedTime = 0

	var transport Transport
	op := func() error {
		t, err := DialTCP(ctx, address)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		transport = t
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(eb, policy.MaxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return transport, nil
}

// processStream joins a subprocess's stdout and stdin into one stream.
type processStream struct {
	io.Reader
	io.WriteCloser
	stdout io.Closer
}

func (p *processStream) Close() error {
	return errors.Join(p.WriteCloser.Close(), p.stdout.Close())
}

// StartProcess starts cmd and speaks DAP over its stdin and stdout. Closing
// the transport kills the process.
func StartProcess(cmd *exec.Cmd) (Transport, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("get stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("get stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("start command: %w", err)
	}

	t := newStreamTransport(&processStream{Reader: stdout, WriteCloser: stdin, stdout: stdout})
	t.onClose = func() error {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Killed on purpose.
			return nil
		}
		return err
	}
	return t, nil
}
