// Package metric provides the Prometheus metrics registry for the
// MTConnect client: a request-driver duration histogram shared by every
// verb, the session loop's state/sequence/asset-fetch gauges and
// counters, and the NATS bridge's connection gauges.
//
// # Basic usage
//
//	registry := metric.NewMetricsRegistry()
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordSessionState("VMC-123", 2) // 2 = Streaming
//	coreMetrics.RecordDocument("VMC-123", "sample")
//
// Expose registry.PrometheusRegistry() behind promhttp.HandlerFor to serve
// /metrics.
//
// # Service-specific metrics
//
// Components outside the session loop and NATS bridge register their own
// metrics through the MetricsRegistrar interface rather than adding fields
// to Metrics:
//
//	counter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Name: "api_requests_total",
//	    Help: "Total number of API requests",
//	})
//	err := registry.RegisterCounter("api-service", "api_requests_total", counter)
//
// RegisterGauge, RegisterHistogram, and their *Vec counterparts follow the
// same shape. Unregister removes a previously registered metric.
//
// Duplicate registrations, by this registry's own bookkeeping or by the
// underlying prometheus.Registry, return an error rather than panicking.
package metric
