package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the client's Prometheus metrics: the request-driver
// timing histogram shared across every verb, plus the MTConnect-specific
// gauges the session loop and bridges update directly.
type Metrics struct {
	ProcessingDuration *prometheus.HistogramVec

	// Session loop metrics
	SessionState    *prometheus.GaugeVec
	DocumentsTotal  *prometheus.CounterVec
	SequenceNumber  prometheus.Gauge
	InstanceID      prometheus.Gauge
	AssetFetches    *prometheus.CounterVec
	StreamReconnect prometheus.Counter

	// NATS bridge metrics
	NATSConnected  prometheus.Gauge
	NATSRTT        prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all client metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mtconnect_client",
				Subsystem: "processing",
				Name:      "duration_seconds",
				Help:      "Request driver round-trip duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),

		SessionState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "mtconnect_client",
				Subsystem: "session",
				Name:      "state",
				Help:      "Session loop state (0=Probing, 1=CurrentFetch, 2=Streaming, 3=Backoff, 4=Stopped)",
			},
			[]string{"device"},
		),

		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mtconnect_client",
				Subsystem: "session",
				Name:      "documents_total",
				Help:      "Total MTConnect documents decoded by document kind",
			},
			[]string{"device", "kind"},
		),

		SequenceNumber: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mtconnect_client",
				Subsystem: "session",
				Name:      "sequence_number",
				Help:      "Sequence number of the most recently consumed observation",
			},
		),

		InstanceID: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mtconnect_client",
				Subsystem: "session",
				Name:      "instance_id",
				Help:      "Agent instance ID currently tracked by the session",
			},
		),

		AssetFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mtconnect_client",
				Subsystem: "session",
				Name:      "asset_fetches_total",
				Help:      "Total detached asset fetches dispatched by the asset change tracker",
			},
			[]string{"device", "status"},
		),

		StreamReconnect: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mtconnect_client",
				Subsystem: "session",
				Name:      "stream_reconnects_total",
				Help:      "Total number of times the sample stream was re-established",
			},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mtconnect_client",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS bridge connection status (0=disconnected, 1=connected)",
			},
		),

		NATSRTT: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mtconnect_client",
				Subsystem: "nats",
				Name:      "rtt_milliseconds",
				Help:      "NATS round-trip time in milliseconds",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mtconnect_client",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// RecordProcessingDuration records a request driver's round-trip time for
// operation ("probe", "current", "assets", "sample").
func (c *Metrics) RecordProcessingDuration(service, operation string, duration time.Duration) {
	c.ProcessingDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordSessionState updates the session loop state gauge for device.
func (c *Metrics) RecordSessionState(device string, state int) {
	c.SessionState.WithLabelValues(device).Set(float64(state))
}

// RecordDocument increments the documents-decoded counter for kind
// ("probe", "current", "sample", "assets", "error").
func (c *Metrics) RecordDocument(device, kind string) {
	c.DocumentsTotal.WithLabelValues(device, kind).Inc()
}

// RecordSequence updates the last-consumed sequence number gauge.
func (c *Metrics) RecordSequence(seq uint64) {
	c.SequenceNumber.Set(float64(seq))
}

// RecordInstanceID updates the tracked agent instance ID gauge.
func (c *Metrics) RecordInstanceID(id uint64) {
	c.InstanceID.Set(float64(id))
}

// RecordAssetFetch increments the asset fetch counter with status "ok" or "error".
func (c *Metrics) RecordAssetFetch(device, status string) {
	c.AssetFetches.WithLabelValues(device, status).Inc()
}

// RecordStreamReconnect increments the stream reconnect counter.
func (c *Metrics) RecordStreamReconnect() {
	c.StreamReconnect.Inc()
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSRTT updates NATS round-trip time
func (c *Metrics) RecordNATSRTT(rtt time.Duration) {
	c.NATSRTT.Set(float64(rtt.Milliseconds()))
}

// RecordNATSReconnect increments reconnection counter
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}
