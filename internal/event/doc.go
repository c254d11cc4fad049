// Package event provides typed signals for stepscope.
//
// A component that produces notifications declares one Signal per event name
// and emits payloads on it. Other components connect handlers to the signals
// they care about. Every handler receives the signal's owner as sender plus
// the payload:
//
//	type Session struct {
//	    Stopped *event.Signal[struct{}]
//	}
//
//	s.Stopped = event.NewSignal[struct{}](s)
//	...
//	s.Stopped.Emit(struct{}{})
//
// # Delivery
//
// Emit invokes connected handlers synchronously on the emitting goroutine in
// connection order. There is no queue: a handler connected after an emission
// never sees it. A handler that is disconnected while an emission is in
// progress is not invoked for the remainder of that emission.
//
// Handlers that need to do blocking work (for example fetching variables after
// a stop) should start their own goroutine so the emitter is never held up.
//
// # Receivers
//
// A Receiver groups the connections made on behalf of one observer, typically
// a view that is mounted and unmounted repeatedly:
//
//	var r event.Receiver
//	session.Stopped.ConnectTo(&r, v.onStopped)
//	controller.BreakpointChanged.ConnectTo(&r, v.onBreakpoints)
//	...
//	r.DisconnectAll() // on unmount
//
// DisconnectAll severs every tracked connection in one call. It is safe on an
// empty receiver and safe to call repeatedly.
//
// # Panics
//
// A panicking handler is recovered and reported to the signal's PanicHandler.
// Delivery continues with the next handler.
package event
