package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/c360/mtconnect-client/errors"
	"github.com/c360/mtconnect-client/pkg/security"
	"github.com/c360/mtconnect-client/pkg/tlsutil"
)

// Param is one query-string parameter. A slice of Param (rather than
// url.Values) preserves the caller's ordering, matching the parameter
// order MTConnect agents and their logs expect (from, count, interval).
type Param struct {
	Key   string
	Value string
}

// Client issues requests against one agent base URL, optionally scoped to a
// single device.
type Client struct {
	http   *http.Client
	base   string
	device string
}

// New builds a Client. tlsCfg/mtlsCfg are applied only when base is an
// https:// URL; an empty security.ClientTLSConfig produces a standard
// system-trust TLS configuration.
func New(base, device string, tlsCfg security.ClientTLSConfig, mtlsCfg security.ClientMTLSConfig) (*Client, error) {
	tlsConfig, err := tlsutil.LoadClientTLSConfigWithMTLS(tlsCfg, mtlsCfg)
	if err != nil {
		return nil, errors.WrapFatal(err, "transport", "New", "build TLS config")
	}

	return &Client{
		http: &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		},
		base:   strings.TrimRight(base, "/"),
		device: strings.Trim(device, "/"),
	}, nil
}

// URL composes BASE/[DEVICE/]verb[?params...].
func (c *Client) URL(verb string, params ...Param) string {
	segments := []string{c.base}
	if c.device != "" {
		segments = append(segments, c.device)
	}
	segments = append(segments, verb)
	u := strings.Join(segments, "/")
	if len(params) > 0 {
		u += "?" + encodeQuery(params)
	}
	return u
}

// URLRoot composes BASE/verb[?params...], without the device segment. Per
// spec §6 the assets verb is served at the agent root even when a device is
// configured, unlike probe/current/sample which are device-scoped.
func (c *Client) URLRoot(verb string, params ...Param) string {
	u := c.base + "/" + verb
	if len(params) > 0 {
		u += "?" + encodeQuery(params)
	}
	return u
}

func encodeQuery(params []Param) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// StatusError reports a non-2xx HTTP response. The Request Drivers
// classify it as a ConnectionFailure per spec §4.B.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Code)
}

// Get issues a single GET against the device-scoped verb (BASE/[DEVICE/]verb)
// and returns the response body for a 2xx status. Non-2xx responses return
// the body alongside a *StatusError so callers can still attempt to decode
// an MTConnectError document from it.
func (c *Client) Get(ctx context.Context, verb string, params ...Param) ([]byte, error) {
	return c.do(ctx, c.URL(verb, params...))
}

// GetRoot issues a single GET against the agent-root verb (BASE/verb,
// bypassing the device segment) and returns the response body for a 2xx
// status, with the same non-2xx handling as Get.
func (c *Client) GetRoot(ctx context.Context, verb string, params ...Param) ([]byte, error) {
	return c.do(ctx, c.URLRoot(verb, params...))
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &StatusError{Code: resp.StatusCode, Body: body}
	}
	return body, nil
}
