package debug

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from State
		on   trigger
		want State
		ok   bool
	}{
		{StateIdle, triggerReady, StateRunning, true},
		{StateRunning, triggerReady, StateRunning, false},
		{StateIdle, triggerResumed, StateIdle, false},
		{StateStopped, triggerResumed, StateRunning, true},
		{StateRunning, triggerResumed, StateRunning, true},
		{StateIdle, triggerStopped, StateIdle, false},
		{StateRunning, triggerStopped, StateStopped, true},
		{StateStopped, triggerStopped, StateStopped, true},
		{StateIdle, triggerEnded, StateIdle, true},
		{StateRunning, triggerEnded, StateIdle, true},
		{StateStopped, triggerEnded, StateIdle, true},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.on.String(), func(t *testing.T) {
			got, ok := transition(tt.from, tt.on)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestErrors(t *testing.T) {
	cause := errors.New("boom")

	connErr := &ConnectionError{Op: "dial", Err: cause}
	assert.True(t, errors.Is(connErr, ErrConnection))
	assert.True(t, errors.Is(connErr, cause))
	assert.False(t, errors.Is(connErr, ErrProtocol))
	assert.Equal(t, "debug session: dial: boom", connErr.Error())

	stateErr := &InvalidStateError{Op: "continue", State: StateIdle}
	assert.True(t, errors.Is(stateErr, ErrInvalidState))
	assert.Equal(t, "debug session: continue not allowed while idle", stateErr.Error())

	protoErr := &ProtocolError{Command: "variables", Err: cause}
	assert.True(t, errors.Is(protoErr, ErrProtocol))
	assert.True(t, errors.Is(protoErr, cause))
}
