package drivers

import (
	stderrors "errors"
	"io"
	"strconv"

	mterrors "github.com/c360/mtconnect-client/errors"
	"github.com/c360/mtconnect-client/transport"

	"context"
)

// ChunkFunc receives one raw sample chunk's XML payload, in delivery order.
// The Session Loop is responsible for deciding how to parse it (a streams
// document, an MTConnectError, or neither) — the Stream driver itself does
// no interpretation of the payload, per spec §4.B.
type ChunkFunc func(payload []byte)

// RunStream opens the sample endpoint with the given window and interval and
// delivers chunks to onChunk until the agent closes the connection, ctx is
// cancelled, or a read error occurs. It always returns a non-nil
// *errors.ConnectionFailure: io.EOF and caller cancellation are both folded
// into that type so the Session Loop has one failure shape to route.
func RunStream(ctx context.Context, client *transport.Client, from, count uint64, intervalMs int, onChunk ChunkFunc) error {
	params := []transport.Param{
		{Key: "from", Value: strconv.FormatUint(from, 10)},
		{Key: "count", Value: strconv.FormatUint(count, 10)},
		{Key: "interval", Value: strconv.Itoa(intervalMs)},
	}
	url := client.URL("sample", params...)

	stream, err := client.OpenStream(ctx, params...)
	if err != nil {
		var statusErr *transport.StatusError
		if stderrors.As(err, &statusErr) {
			return connectionFailure("sample", url, err)
		}
		if ctx.Err() != nil {
			return mterrors.NewCancelledFailure("sample", url)
		}
		return connectionFailure("sample", url, err)
	}
	defer stream.Close()

	for {
		chunk, err := stream.Next()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return connectionFailure("sample", url, io.EOF)
			}
			if ctx.Err() != nil {
				return mterrors.NewCancelledFailure("sample", url)
			}
			return connectionFailure("sample", url, err)
		}
		onChunk(chunk)
	}
}
