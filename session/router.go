package session

import (
	stderrors "errors"
	"time"

	"github.com/c360/mtconnect-client/document"
	mterrors "github.com/c360/mtconnect-client/errors"
)

// route dispatches a driver failure to the matching subscriber list per
// spec §4.C. A nil err is not a valid call; callers only invoke route when
// a driver returned a non-nil error.
func route(subs *Subscriptions, metrics sessionMetrics, err error) {
	var cf *mterrors.ConnectionFailure
	if stderrors.As(err, &cf) {
		subs.connectionError.dispatch(ConnectionError{Op: cf.Op, URL: cf.URL, Cause: err})
		if metrics != nil {
			metrics.RecordStreamReconnect()
		}
		return
	}

	var pe *mterrors.ProtocolError
	if stderrors.As(err, &pe) {
		subs.errorEvent.dispatch(ProtocolErrorEvent{Op: pe.Op, Doc: protocolErrorDoc(pe)})
		return
	}

	var te *mterrors.TransportError
	if stderrors.As(err, &te) {
		subs.xmlError.dispatch(XmlErrorEvent{Op: te.Op, Payload: te.Payload})
		return
	}

	// Any other error shape is treated as a connection failure: the driver
	// contract in drivers/ only ever returns one of the three above, but
	// the router stays total rather than panicking on an unrecognized type.
	subs.connectionError.dispatch(ConnectionError{Cause: err})
}

func protocolErrorDoc(pe *mterrors.ProtocolError) *document.ErrorDocument {
	return &document.ErrorDocument{
		Errors: []document.AgentError{{ErrorCode: pe.Code, Message: pe.Message}},
	}
}

// sessionMetrics is the subset of *metric.Metrics the session package
// records to; kept as an interface so tests can run without the metric
// package wired in.
type sessionMetrics interface {
	RecordSessionState(device string, state int)
	RecordDocument(device, kind string)
	RecordSequence(seq uint64)
	RecordInstanceID(id uint64)
	RecordAssetFetch(device, status string)
	RecordStreamReconnect()
	RecordProcessingDuration(service, operation string, duration time.Duration)
}
