package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/mtconnect-client/document"
	"github.com/c360/mtconnect-client/drivers"
	"github.com/c360/mtconnect-client/pkg/worker"
	"github.com/c360/mtconnect-client/transport"
	"golang.org/x/time/rate"
)

// AssetTracker is component D. It watches every incoming streams document
// for AssetChanged DataItems and triggers on-demand asset refreshes,
// without ever blocking the Session Loop: each refresh runs as a detached
// task on a bounded worker pool and publishes through AssetsReceived.
type AssetTracker struct {
	client  *transport.Client
	subs    *Subscriptions
	metrics sessionMetrics
	device  string
	logger  *slog.Logger

	lastChangedAssetID string

	pool    *worker.Pool[struct{}]
	limiter *rate.Limiter
}

// NewAssetTracker builds a tracker dispatching detached fetches through a
// worker pool of the given width (spec §4.D's asset_fetch_concurrency).
func NewAssetTracker(client *transport.Client, subs *Subscriptions, metrics sessionMetrics, device string, concurrency int, logger *slog.Logger) *AssetTracker {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	t := &AssetTracker{
		client:  client,
		subs:    subs,
		metrics: metrics,
		device:  device,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(concurrency), concurrency),
	}
	t.pool = worker.NewPool(concurrency, concurrency*4, t.fetch)
	return t
}

// Start brings up the underlying worker pool. Call once before Observe.
func (t *AssetTracker) Start(ctx context.Context) error {
	return t.pool.Start(ctx)
}

// Stop drains the worker pool, bounded by timeout.
func (t *AssetTracker) Stop(timeout time.Duration) error {
	return t.pool.Stop(timeout)
}

// Observe scans ds's DataItems for AssetChanged entries and dispatches a
// detached fetch for each distinct new id, per spec §4.D / P5. It runs on
// the Session Loop's goroutine and returns immediately.
func (t *AssetTracker) Observe(ds *document.DeviceStream) {
	if ds == nil {
		return
	}
	for _, item := range ds.DataItems() {
		if item.Type() != "AssetChanged" {
			continue
		}
		value := item.Value
		if value == "UNAVAILABLE" || value == t.lastChangedAssetID {
			continue
		}
		t.lastChangedAssetID = value

		if err := t.pool.Submit(struct{}{}); err != nil {
			t.logger.Warn("asset fetch dropped", "component", "assettracker", "error", err)
		}
	}
}

func (t *AssetTracker) fetch(ctx context.Context, _ struct{}) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	doc, err := drivers.Assets(ctx, t.client)
	if t.metrics != nil {
		t.metrics.RecordProcessingDuration("session", "assets", time.Since(start))
	}
	if err != nil {
		status := "error"
		if t.metrics != nil {
			t.metrics.RecordAssetFetch(t.device, status)
		}
		route(t.subs, t.metrics, err)
		return err
	}

	if t.metrics != nil {
		t.metrics.RecordAssetFetch(t.device, "ok")
	}
	t.logger.Debug("asset fetch completed", "component", "assettracker", "count", len(doc.AssetList()))
	t.subs.assetsReceived.dispatch(doc)
	return nil
}
