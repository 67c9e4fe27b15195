package nats

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/c360/mtconnect-client/errors"
)

// ConnectionStatus mirrors the connection lifecycle this codebase's NATS
// client tracks elsewhere: disconnected, connecting, connected,
// reconnecting.
type ConnectionStatus int32

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

var ErrNotConnected = stderrors.New("bridge/nats: not connected")

// Client is a minimal publish-only NATS connection manager. It is grounded
// on this codebase's natsclient package but trims everything a fire-
// and-forget event republisher doesn't need: subscriptions, JetStream,
// and key/value buckets. Reconnection is handled entirely by nats.go's
// built-in reconnect loop, configured the same way natsclient configures
// it (bounded reconnect wait, unlimited reconnect attempts).
type Client struct {
	url           string
	reconnectWait time.Duration
	maxReconnects int

	status     atomic.Int32
	reconnects atomic.Int32
	conn       *natsgo.Conn

	onStatusChange func(ConnectionStatus)
	onReconnect    func()
}

// NewClient builds an inert Client for url. Call Connect to dial.
func NewClient(url string) *Client {
	return &Client{url: url, reconnectWait: 2 * time.Second, maxReconnects: -1}
}

// OnStatusChange registers a hook invoked every time Status() changes,
// including the initial transition to StatusConnecting made by Connect.
// Must be called before Connect.
func (c *Client) OnStatusChange(fn func(ConnectionStatus)) { c.onStatusChange = fn }

// OnReconnect registers a hook invoked each time nats.go's reconnect loop
// re-establishes the connection. Must be called before Connect.
func (c *Client) OnReconnect(fn func()) { c.onReconnect = fn }

func (c *Client) setStatus(s ConnectionStatus) {
	c.status.Store(int32(s))
	if c.onStatusChange != nil {
		c.onStatusChange(s)
	}
}

// Connect dials url and installs reconnect/disconnect handlers that keep
// Status() current.
func (c *Client) Connect(ctx context.Context) error {
	c.setStatus(StatusConnecting)

	opts := []natsgo.Option{
		natsgo.MaxReconnects(c.maxReconnects),
		natsgo.ReconnectWait(c.reconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, _ error) {
			c.setStatus(StatusReconnecting)
		}),
		natsgo.ReconnectHandler(func(_ *natsgo.Conn) {
			c.setStatus(StatusConnected)
			c.reconnects.Add(1)
			if c.onReconnect != nil {
				c.onReconnect()
			}
		}),
		natsgo.ClosedHandler(func(_ *natsgo.Conn) {
			c.setStatus(StatusDisconnected)
		}),
	}

	conn, err := natsgo.Connect(c.url, opts...)
	if err != nil {
		c.setStatus(StatusDisconnected)
		return errors.WrapTransient(err, "bridge/nats", "Connect", "dial NATS")
	}

	c.conn = conn
	c.setStatus(StatusConnected)
	return nil
}

// Publish sends data on subject. Returns ErrNotConnected if Connect hasn't
// succeeded yet.
func (c *Client) Publish(subject string, data []byte) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.Publish(subject, data)
}

// Status reports the current connection state.
func (c *Client) Status() ConnectionStatus { return ConnectionStatus(c.status.Load()) }

// RTT returns the round-trip time to the server, or an error if
// disconnected.
func (c *Client) RTT() (time.Duration, error) {
	if c.conn == nil {
		return 0, ErrNotConnected
	}
	return c.conn.RTT()
}

// Reconnects returns the number of reconnect events observed since
// Connect.
func (c *Client) Reconnects() int32 { return c.reconnects.Load() }

// Close closes the connection without draining it.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
