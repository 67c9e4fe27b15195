// Package nats republishes a session.Client's downstream events onto NATS
// subjects, for deployments that want the event stream to leave the
// process. It subscribes through the public Subscription Surface only —
// it adds no behavior to the Session Loop itself.
package nats
