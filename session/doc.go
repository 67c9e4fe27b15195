// Package session implements the MTConnect session state machine: the
// SequenceRange window manager (A), the Error Router (C), the Asset Change
// Tracker (D), the Session Loop (E), and the Subscription Surface (F). It
// drives the Request Drivers in package drivers and republishes their
// results as typed events to subscribers.
//
// Everything that mutates SequenceRange or SessionState runs on the single
// goroutine started by Client.Start; subscriber callbacks run synchronously
// on that same goroutine and must not block.
package session
