package session

import "github.com/c360/mtconnect-client/document"

// ConnectionError is delivered to ConnectionError subscribers when a driver
// reports a ConnectionFailure.
type ConnectionError struct {
	Op    string
	URL   string
	Cause error
}

// ProtocolErrorEvent is delivered to Error subscribers when a driver
// decodes an MTConnectError document.
type ProtocolErrorEvent struct {
	Op  string
	Doc *document.ErrorDocument
}

// XmlErrorEvent is delivered to XmlError subscribers when a driver receives
// a non-empty body that parses as none of the expected document shapes.
type XmlErrorEvent struct {
	Op      string
	Payload []byte
}

// Events is the set of typed callbacks the Subscription Surface dispatches
// to. Every field is optional; nil callbacks are simply not invoked. All
// callbacks run synchronously on the Session Loop's goroutine (except
// AssetsReceived, which may also be invoked from a detached asset-fetch
// goroutine — see assettracker.go) and must not block.
type Events struct {
	ProbeReceived   func(*document.DevicesDocument)
	CurrentReceived func(*document.StreamsDocument)
	SampleReceived  func(*document.StreamsDocument)
	AssetsReceived  func(*document.AssetsDocument)
	Error           func(ProtocolErrorEvent)
	ConnectionError func(ConnectionError)
	XmlError        func(XmlErrorEvent)
	Started         func()
	Stopped         func()
}
