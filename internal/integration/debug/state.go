package debug

// State is the run state of a Session.
type State int

const (
	// StateIdle means no adapter connection.
	StateIdle State = iota
	// StateRunning means the debuggee is executing.
	StateRunning
	// StateStopped means the debuggee is paused at a known location.
	StateStopped
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StateChange is the payload of Session.StateChanged.
type StateChange struct {
	Old State
	New State
}

// trigger is an input to the state machine.
type trigger int

const (
	triggerReady   trigger = iota // handshake reached configurationDone
	triggerResumed                // continue acknowledged or continued event
	triggerStopped                // stopped event with a resolved location
	triggerEnded                  // Stop, terminated, exited or connection lost
)

func (t trigger) String() string {
	switch t {
	case triggerReady:
		return "ready"
	case triggerResumed:
		return "resumed"
	case triggerStopped:
		return "stopped"
	case triggerEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// transition returns the state reached from s on t, and false when t does
// not apply in s.
func transition(s State, t trigger) (State, bool) {
	switch t {
	case triggerReady:
		if s == StateIdle {
			return StateRunning, true
		}
	case triggerResumed:
		if s != StateIdle {
			return StateRunning, true
		}
	case triggerStopped:
		if s != StateIdle {
			return StateStopped, true
		}
	case triggerEnded:
		return StateIdle, true
	}
	return s, false
}
