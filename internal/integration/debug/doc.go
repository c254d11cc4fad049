// Package debug provides the debug session that stepscope drives through the
// Debug Adapter Protocol.
//
// A Session owns one connection to a debug adapter. It runs the DAP
// handshake, relays control commands and turns the adapter's asynchronous
// events into a small state machine:
//
//	        Start            stopped event
//	Idle ----------> Running -------------> Stopped
//	 ^                 ^                       |
//	 |                 +-----------------------+
//	 |                  continue / step ack
//	 |
//	 +---- Stop, terminated, exited, connection lost (from any state)
//
// # Events
//
// Sessions expose typed signals from package event:
//
//   - Stopped fires once per pause, after the session has resolved the stop
//     location. Receivers read CurrentLine and call Variables themselves.
//   - StateChanged carries every transition.
//   - Output carries debuggee output.
//   - BreakpointUpdated carries adapter-initiated breakpoint changes.
//
// # Variables
//
// Scopes and Variables return empty results outside Stopped. Adapter failures
// and malformed responses while fetching are logged as *ProtocolError and
// produce an empty result; a bad fetch never ends the session.
//
// # Usage
//
//	session := debug.NewSession(connector, debug.SessionConfig{
//	    AdapterID: "go",
//	    Request:   "launch",
//	    Arguments: map[string]any{"mode": "debug", "program": "./cmd/app"},
//	}, log)
//
//	session.Stopped.Connect(func(any, struct{}) {
//	    go refresh(session.CurrentLine())
//	})
//
//	if err := session.Start(ctx); err != nil {
//	    return err
//	}
//	defer session.Stop(ctx)
//
// # Subpackages
//
//   - adapters: launch configurations and connectors for common adapters
//   - dap: DAP client and transports
package debug
