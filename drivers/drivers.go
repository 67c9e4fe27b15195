package drivers

import (
	stderrors "errors"
	"fmt"

	"github.com/c360/mtconnect-client/document"
	mterrors "github.com/c360/mtconnect-client/errors"
	"github.com/c360/mtconnect-client/transport"

	"context"
)

// fetch issues a single device-scoped GET against verb and classifies the
// outcome per spec §4.B: ConnectionFailure for I/O and non-2xx status,
// ProtocolError for a decoded MTConnectError body, TransportError for
// anything else that doesn't decode as one of the expected document shapes.
func fetch(ctx context.Context, client *transport.Client, op, verb string, params ...transport.Param) (document.Outcome, error) {
	url := client.URL(verb, params...)
	body, err := client.Get(ctx, verb, params...)
	return classify(ctx, op, url, body, err)
}

// fetchRoot is fetch's agent-root counterpart, used by the assets verb,
// which spec §6 serves at BASE/assets with no device segment.
func fetchRoot(ctx context.Context, client *transport.Client, op, verb string, params ...transport.Param) (document.Outcome, error) {
	url := client.URLRoot(verb, params...)
	body, err := client.GetRoot(ctx, verb, params...)
	return classify(ctx, op, url, body, err)
}

func classify(ctx context.Context, op, url string, body []byte, err error) (document.Outcome, error) {
	if err != nil {
		var statusErr *transport.StatusError
		if stderrors.As(err, &statusErr) {
			if outcome, decErr := document.Decode(statusErr.Body); decErr == nil && outcome.Kind == document.KindError {
				return outcome, protocolError(op, url, outcome.Error)
			}
			return document.Outcome{}, connectionFailure(op, url, err)
		}
		if ctx.Err() != nil {
			return document.Outcome{}, mterrors.NewCancelledFailure(op, url)
		}
		return document.Outcome{}, connectionFailure(op, url, err)
	}

	outcome, decErr := document.Decode(body)
	if decErr != nil {
		return document.Outcome{}, &mterrors.TransportError{Op: op, URL: url, Payload: body, Err: decErr}
	}

	switch outcome.Kind {
	case document.KindError:
		return outcome, protocolError(op, url, outcome.Error)
	case document.KindUnknown:
		return outcome, &mterrors.TransportError{Op: op, URL: url, Payload: body, Err: fmt.Errorf("unrecognized document root")}
	default:
		return outcome, nil
	}
}

func connectionFailure(op, url string, err error) *mterrors.ConnectionFailure {
	return &mterrors.ConnectionFailure{Op: op, URL: url, Err: err}
}

func protocolError(op, url string, doc *document.ErrorDocument) *mterrors.ProtocolError {
	var code, msg, summary string
	if doc != nil && len(doc.Errors) > 0 {
		code = doc.Errors[0].ErrorCode
		msg = doc.Errors[0].Message
		summary = doc.Summary()
	}
	return &mterrors.ProtocolError{Op: op, URL: url, Code: code, Message: msg, NativeErr: fmt.Errorf("%s", summary)}
}

// Probe executes the probe request and returns the decoded device
// description, or a classified failure.
func Probe(ctx context.Context, client *transport.Client) (*document.DevicesDocument, error) {
	outcome, err := fetch(ctx, client, "probe", "probe")
	if err != nil {
		return nil, err
	}
	return outcome.Devices, nil
}

// Current executes the current request, optionally scoped by params (e.g.
// "at" or "path"), and returns the decoded streams snapshot.
func Current(ctx context.Context, client *transport.Client, params ...transport.Param) (*document.StreamsDocument, error) {
	outcome, err := fetch(ctx, client, "current", "current", params...)
	if err != nil {
		return nil, err
	}
	return outcome.Streams, nil
}

// Assets executes a best-effort assets fetch and returns the decoded asset
// list.
func Assets(ctx context.Context, client *transport.Client) (*document.AssetsDocument, error) {
	outcome, err := fetchRoot(ctx, client, "assets", "assets")
	if err != nil {
		return nil, err
	}
	return outcome.Assets, nil
}
