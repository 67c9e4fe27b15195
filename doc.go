// Package mtconnectclient is the root of a long-running client for the
// MTConnect manufacturing-telemetry protocol.
//
// # Architecture
//
// The session package holds the core: a Session Loop state machine
// (Probing -> CurrentFetch -> Streaming -> Backoff) that drives a
// SequenceRange and a set of Request Drivers (drivers/) against an
// HTTP-accessible MTConnect Agent. Documents are decoded by the document
// package into a tagged union (Devices/Streams/Assets/Error) and every
// decoded event is republished synchronously through a typed Subscription
// Surface, session.Subscriptions.
//
// Two optional bridges sit on top of that surface without reaching into
// core state:
//
//   - bridge/nats republishes every event as JSON on a NATS subject.
//   - bridge/wsbroadcast republishes every event to connected WebSocket
//     clients.
//
// The ambient stack around the core - config, metric, health, errors,
// transport/TLS, component lifecycle - exists to give the Session Loop a
// real agent to talk to and a real process to run inside of. See
// cmd/mtconnect-client for how they're wired together at startup.
//
// # Packages
//
//   - session: Session Loop, SequenceRange, Asset Change Tracker, Subscription Surface
//   - drivers: Probe/Current/Sample/Asset Request Drivers
//   - document: MTConnect XML document types and decoding
//   - transport: HTTP client, URL composition, mTLS
//   - bridge/nats: NATS event republish bridge
//   - bridge/wsbroadcast: WebSocket event broadcast bridge
//   - config: configuration loading, validation and env overrides
//   - metric, health, errors, component: ambient infrastructure shared by
//     the session client and both bridges
//   - pkg/worker, pkg/security, pkg/tlsutil: shared utilities grounded on
//     this codebase's own conventions for worker pools and TLS material
//   - cmd/mtconnect-client: process entry point
package mtconnectclient
