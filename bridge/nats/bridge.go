package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/mtconnect-client/document"
	"github.com/c360/mtconnect-client/session"
)

// metrics is the subset of *metric.Metrics the bridge records to; kept as
// an interface so tests can run without the metric package wired in.
type metrics interface {
	RecordNATSStatus(connected bool)
	RecordNATSRTT(rtt time.Duration)
	RecordNATSReconnect()
}

const rttSampleInterval = 10 * time.Second

// Bridge republishes every event on a session.Subscriptions surface as a
// JSON-encoded NATS message, on a subject named mtconnect.<device>.<kind>.
// It implements component.Lifecycle so main can start and stop it
// alongside the session.Client it is wired to. Publish failures are logged
// and otherwise swallowed: a downstream NATS outage must never slow or
// block the Session Loop.
type Bridge struct {
	client  *Client
	subs    *session.Subscriptions
	device  string
	logger  *slog.Logger
	metrics metrics

	mu      sync.Mutex
	handles []unsubscribe
	cancel  context.CancelFunc
	done    chan struct{}
}

type unsubscribe func()

// NewBridge builds a Bridge that will dial url once Start is called.
// metrics may be nil.
func NewBridge(url string, subs *session.Subscriptions, device string, metrics metrics, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{client: NewClient(url), subs: subs, device: device, metrics: metrics, logger: logger}
}

// Initialize satisfies component.Lifecycle. Connection happens in Start,
// which owns a context.
func (b *Bridge) Initialize() error { return nil }

// Start connects to NATS, subscribes to every event kind, and blocks until
// ctx is cancelled or Stop is called.
func (b *Bridge) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	b.cancel = cancel
	b.done = make(chan struct{})
	b.mu.Unlock()

	if b.metrics != nil {
		b.client.OnStatusChange(func(s ConnectionStatus) { b.metrics.RecordNATSStatus(s == StatusConnected) })
		b.client.OnReconnect(func() { b.metrics.RecordNATSReconnect() })
	}

	if err := b.client.Connect(runCtx); err != nil {
		cancel()
		return err
	}
	defer b.client.Close()

	b.subscribeAll()
	defer b.unsubscribeAll()

	if b.metrics != nil {
		go b.sampleRTT(runCtx)
	}

	<-runCtx.Done()
	close(b.done)
	return nil
}

// sampleRTT periodically records the NATS round-trip time; nats.go has no
// RTT-changed event to hook, so this polls instead.
func (b *Bridge) sampleRTT(ctx context.Context) {
	ticker := time.NewTicker(rttSampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if rtt, err := b.client.RTT(); err == nil {
				b.metrics.RecordNATSRTT(rtt)
			}
		}
	}
}

// Stop requests cooperative shutdown and waits up to timeout for Start to
// return.
func (b *Bridge) Stop(timeout time.Duration) error {
	b.mu.Lock()
	cancel := b.cancel
	done := b.done
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		b.logger.Info("nats bridge stopped", "component", "bridge/nats", "reconnects", b.client.Reconnects())
		return nil
	case <-timer.C:
		return context.DeadlineExceeded
	}
}

func (b *Bridge) subject(kind string) string {
	return "mtconnect." + b.device + "." + kind
}

func (b *Bridge) publish(kind string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		b.logger.Warn("event marshal failed", "component", "bridge/nats", "kind", kind, "error", err)
		return
	}
	if err := b.client.Publish(b.subject(kind), data); err != nil {
		b.logger.Warn("publish failed", "component", "bridge/nats", "kind", kind, "error", err)
	}
}

func (b *Bridge) subscribeAll() {
	s := b.subs
	b.handles = nil

	probeSub := s.OnProbeReceived(func(doc *document.DevicesDocument) { b.publish("probe", doc) })
	b.handles = append(b.handles, func() { s.OffProbeReceived(probeSub) })

	currentSub := s.OnCurrentReceived(func(doc *document.StreamsDocument) { b.publish("current", doc) })
	b.handles = append(b.handles, func() { s.OffCurrentReceived(currentSub) })

	sampleSub := s.OnSampleReceived(func(doc *document.StreamsDocument) { b.publish("sample", doc) })
	b.handles = append(b.handles, func() { s.OffSampleReceived(sampleSub) })

	assetsSub := s.OnAssetsReceived(func(doc *document.AssetsDocument) { b.publish("assets", doc) })
	b.handles = append(b.handles, func() { s.OffAssetsReceived(assetsSub) })

	errSub := s.OnError(func(ev session.ProtocolErrorEvent) { b.publish("error", ev) })
	b.handles = append(b.handles, func() { s.OffError(errSub) })

	connSub := s.OnConnectionError(func(ev session.ConnectionError) { b.publish("connection_error", ev) })
	b.handles = append(b.handles, func() { s.OffConnectionError(connSub) })

	xmlSub := s.OnXmlError(func(ev session.XmlErrorEvent) { b.publish("xml_error", ev) })
	b.handles = append(b.handles, func() { s.OffXmlError(xmlSub) })

	startedSub := s.OnStarted(func() { b.publish("started", struct{}{}) })
	b.handles = append(b.handles, func() { s.OffStarted(startedSub) })

	stoppedSub := s.OnStopped(func() { b.publish("stopped", struct{}{}) })
	b.handles = append(b.handles, func() { s.OffStopped(stoppedSub) })
}

func (b *Bridge) unsubscribeAll() {
	for _, u := range b.handles {
		u()
	}
	b.handles = nil
}
