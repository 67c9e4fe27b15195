package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/mtconnect-client/component"
	"github.com/c360/mtconnect-client/errors"
	"github.com/c360/mtconnect-client/pkg/security"
	"github.com/c360/mtconnect-client/transport"
	"golang.org/x/sync/errgroup"
)

// Client is the public entry point: one Session Loop plus its Subscription
// Surface, talking to one agent base URL. It implements
// component.Lifecycle so main and the event bridges in bridge/ can manage
// it uniformly.
type Client struct {
	cfg     Configuration
	subs    *Subscriptions
	logger  *slog.Logger
	client  *transport.Client
	metrics sessionMetrics

	bridges []component.Lifecycle

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger attaches a structured logger; defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics attaches the Prometheus collectors the Session Loop and
// Asset Tracker record to. Omit to run without metrics.
func WithMetrics(m sessionMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithBridge registers an event republish bridge (bridge/nats,
// bridge/wsbroadcast, ...) to be started alongside the Session Loop and
// stopped alongside it. Bridges subscribe to c.Subscriptions() themselves;
// Client does not wire them to specific events.
func WithBridge(b component.Lifecycle) Option {
	return func(c *Client) { c.bridges = append(c.bridges, b) }
}

// New builds an inert Client. Call Start to launch the Session Loop.
func New(cfg Configuration, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()

	tlsCfg := security.ClientTLSConfig{InsecureSkipVerify: cfg.InsecureSkipVerify, CAFiles: cfg.CAFiles}
	var mtlsCfg security.ClientMTLSConfig
	if cfg.ClientCertFile != "" {
		mtlsCfg = security.ClientMTLSConfig{Enabled: true, CertFile: cfg.ClientCertFile, KeyFile: cfg.ClientKeyFile}
	}

	tc, err := transport.New(cfg.BaseURL, cfg.DeviceName, tlsCfg, mtlsCfg)
	if err != nil {
		return nil, errors.WrapFatal(err, "session", "New", "build transport client")
	}

	c := &Client{
		cfg:    cfg,
		subs:   NewSubscriptions(),
		logger: slog.Default(),
		client: tc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Subscriptions returns the Subscription Surface. Safe to call before or
// after Start.
func (c *Client) Subscriptions() *Subscriptions { return c.subs }

// Initialize satisfies component.Lifecycle. The Session Loop needs no
// setup beyond what New already performed.
func (c *Client) Initialize() error { return nil }

// Start launches the Session Loop and every registered bridge, and blocks
// until ctx is cancelled or Stop is called.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.started = true
	c.mu.Unlock()

	tracker := NewAssetTracker(c.client, c.subs, c.metrics, c.cfg.DeviceName, c.cfg.AssetConcurrency, c.logger)
	if err := tracker.Start(runCtx); err != nil {
		cancel()
		return errors.WrapFatal(err, "session", "Start", "start asset tracker")
	}

	group, groupCtx := errgroup.WithContext(runCtx)
	for _, b := range c.bridges {
		b := b
		if err := b.Initialize(); err != nil {
			cancel()
			return errors.WrapFatal(err, "session", "Start", "initialize bridge")
		}
		group.Go(func() error { return b.Start(groupCtx) })
	}

	c.subs.started.dispatch()
	l := newLoop(c.client, c.subs, tracker, c.metrics, c.cfg, c.logger)
	l.Run(runCtx)

	_ = tracker.Stop(c.cfg.timeout())
	close(c.done)
	return group.Wait()
}

// Stop requests cooperative cancellation: it signals the shared
// cancellation handle the Session Loop and every bridge watch, then waits
// up to timeout for the loop goroutine to exit.
func (c *Client) Stop(timeout time.Duration) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return errors.WrapTransient(context.DeadlineExceeded, "session", "Stop", "wait for loop exit")
	}
}
