// Package wsbroadcast runs a small HTTP server that upgrades GET /ws
// connections to WebSocket and broadcasts every event on a
// session.Subscriptions surface to every connected client, at-most-once.
// Like bridge/nats it only subscribes through the public Subscription
// Surface; it adds no behavior to the Session Loop.
package wsbroadcast
