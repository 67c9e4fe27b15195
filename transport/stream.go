package transport

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

// Stream is an open sample request. Next returns one chunk's body at a
// time; the agent frames each chunk as one part of a multipart/x-mixed-
// replace response. Next returns io.EOF when the agent closes the
// connection.
type Stream struct {
	resp *http.Response
	mr   *multipart.Reader
}

// OpenStream issues the long-lived GET for the sample endpoint and prepares
// the multipart chunk reader. The returned Stream must be closed by the
// caller once done (agent close, stop(), or error).
func (c *Client) OpenStream(ctx context.Context, params ...Param) (*Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL("sample", params...), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: body}
	}

	mediaType, params2, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("transport: sample response is not multipart (content-type %q)", resp.Header.Get("Content-Type"))
	}

	boundary, ok := params2["boundary"]
	if !ok {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("transport: sample response missing multipart boundary")
	}

	return &Stream{resp: resp, mr: multipart.NewReader(resp.Body, boundary)}, nil
}

// Next blocks until the next chunk is available, the agent closes the
// connection (io.EOF), the request context is cancelled, or a read error
// occurs.
func (s *Stream) Next() ([]byte, error) {
	part, err := s.mr.NextPart()
	if err != nil {
		return nil, err
	}
	defer part.Close()
	return io.ReadAll(part)
}

// Close releases the underlying connection. Safe to call more than once.
func (s *Stream) Close() error {
	return s.resp.Body.Close()
}
