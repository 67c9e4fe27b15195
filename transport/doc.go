// Package transport builds the HTTP client the Request Drivers share, with
// optional mTLS to the Agent, and composes the MTConnect request URLs
// (BASE/[DEVICE/]verb?query) and the multipart chunk reader the Stream
// driver reads from.
package transport
