// Package debugger binds debug sessions to the active editing context.
//
// A Controller owns at most one session at a time. Switching context disposes
// the previous session before a new one is created, so observers never see
// events from two sessions at once. Observers re-subscribe to Session() when
// ActiveContextChanged fires; the old session's signals are already severed.
//
// Breakpoints are kept per context in a debug.BreakpointStore. Every change to
// the active context's set emits BreakpointChanged with the full list.
package debugger
