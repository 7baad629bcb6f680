// Package lifecycle provides the state machine that governs starting and
// stopping linetap's long-lived components.
//
// Both the receiving server and the shipping client own a Manager. The
// explicit states (Stopped, Starting, Running, Stopping) replace ambient
// "is it running" booleans: a component can reject a Start while a previous
// Stop is still draining, report its state to callers, and bound its
// shutdown wait.
//
// The Manager also tracks worker goroutines so shutdown can wait for them
// with a timeout rather than indefinitely.
package lifecycle
