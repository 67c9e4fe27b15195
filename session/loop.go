package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/mtconnect-client/document"
	"github.com/c360/mtconnect-client/drivers"
	"github.com/c360/mtconnect-client/transport"
)

// loopState is one of the Session Loop's five states (spec §4.E). The
// numeric values double as the session_state gauge recorded to metrics:
// 0=Probing, 1=CurrentFetch, 2=Streaming, 3=Backoff, 4=Stopped.
type loopState int

const (
	stateProbing loopState = iota
	stateCurrentFetch
	stateStreaming
	stateBackoff
	stateStopped
)

// backoffTarget names the state a Backoff wait resumes into.
type backoffTarget int

const (
	targetProbing backoffTarget = iota
	targetCurrentFetch
)

// loop is the Session Loop (component E). It owns SequenceRange and
// runState for the lifetime of one Run call; both are thread-confined to
// the goroutine that calls Run.
type loop struct {
	client  *transport.Client
	subs    *Subscriptions
	tracker *AssetTracker
	metrics sessionMetrics
	cfg     Configuration
	device  string
	logger  *slog.Logger

	seq   SequenceRange
	state *runState

	// pendingTarget is set by whichever state transitions into Backoff,
	// immediately before returning stateBackoff. Only ever touched by the
	// loop's own goroutine.
	pendingTarget backoffTarget
}

func newLoop(client *transport.Client, subs *Subscriptions, tracker *AssetTracker, metrics sessionMetrics, cfg Configuration, logger *slog.Logger) *loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &loop{
		client:  client,
		subs:    subs,
		tracker: tracker,
		metrics: metrics,
		cfg:     cfg,
		device:  cfg.DeviceName,
		logger:  logger,
		state:   newRunState(),
	}
}

func (l *loop) recordState(s loopState) {
	if l.metrics != nil {
		l.metrics.RecordSessionState(l.device, int(s))
	}
}

func (l *loop) timeOperation(operation string, start time.Time) {
	if l.metrics != nil {
		l.metrics.RecordProcessingDuration("session", operation, time.Since(start))
	}
}

// Run drives the state machine until ctx is cancelled. It always returns
// after dispatching Stopped exactly once.
func (l *loop) Run(ctx context.Context) {
	current := stateProbing

	for {
		switch current {
		case stateProbing:
			current = l.runProbing(ctx)
		case stateCurrentFetch:
			current = l.runCurrentFetch(ctx)
		case stateStreaming:
			current = l.runStreaming(ctx)
		case stateBackoff:
			current = l.runBackoff(ctx, l.pendingTarget)
		case stateStopped:
			l.recordState(stateStopped)
			l.subs.stopped.dispatch()
			return
		}

		if ctx.Err() != nil && current != stateStopped {
			current = stateStopped
		}
	}
}

func (l *loop) runProbing(ctx context.Context) loopState {
	l.recordState(stateProbing)

	start := time.Now()
	doc, err := drivers.Probe(ctx, l.client)
	l.timeOperation("probe", start)
	if err != nil {
		route(l.subs, l.metrics, err)
		l.pendingTarget = targetProbing
		return stateBackoff
	}

	l.subs.probeReceived.dispatch(doc)
	l.state.initialize = true
	return stateCurrentFetch
}

func (l *loop) runCurrentFetch(ctx context.Context) loopState {
	l.recordState(stateCurrentFetch)

	// Best-effort asset fetch on every CurrentFetch entry (spec §4.E).
	// Failures are routed for observability but never affect control flow.
	assetsStart := time.Now()
	assetsDoc, assetsErr := drivers.Assets(ctx, l.client)
	l.timeOperation("assets", assetsStart)
	if assetsErr != nil {
		route(l.subs, l.metrics, assetsErr)
	} else {
		l.subs.assetsReceived.dispatch(assetsDoc)
	}

	start := time.Now()
	doc, err := drivers.Current(ctx, l.client)
	l.timeOperation("current", start)
	if err != nil {
		route(l.subs, l.metrics, err)
		l.pendingTarget = targetCurrentFetch
		return stateBackoff
	}

	h := doc.AgentHeader()
	if l.metrics != nil {
		l.metrics.RecordDocument(l.device, "current")
		l.metrics.RecordInstanceID(h.InstanceID)
	}

	if !l.state.initialize {
		l.state.initialize = l.seq.From() > 0 && h.FirstSequence > l.seq.From()
	}

	ds, _ := doc.DeviceStream(l.device)

	if l.state.initialize {
		l.subs.currentReceived.dispatch(doc)
		l.tracker.Observe(ds)
	}

	prevInstance := l.state.lastInstanceID
	if l.state.initialize || int64(h.InstanceID) != prevInstance {
		l.seq.Reset()
		l.state.lastInstanceID = int64(h.InstanceID)

		if !l.state.initialize && prevInstance != -1 && prevInstance != int64(h.InstanceID) {
			// Agent restarted with a new instance mid-session: its device
			// description may have changed too, so re-run Probe.
			return stateProbing
		}
	}

	var from, to uint64
	if l.state.initialize {
		from = h.NextSequence
		to = from
	} else {
		from = maxU64(l.seq.From(), maxU64(h.FirstSequence, subClamp(h.LastSequence, h.BufferSize-100)))
		to = minU64(h.NextSequence, from+l.cfg.MaxSampleCount)
	}

	l.seq.Set(from, to)
	l.state.initialize = false

	return stateStreaming
}

func (l *loop) runStreaming(ctx context.Context) loopState {
	l.recordState(stateStreaming)

	onChunk := func(payload []byte) {
		outcome, err := document.Decode(payload)
		if err != nil {
			l.subs.xmlError.dispatch(XmlErrorEvent{Op: "sample", Payload: payload})
			return
		}

		switch outcome.Kind {
		case document.KindStreams:
			ds, _ := outcome.Streams.DeviceStream(l.device)
			l.tracker.Observe(ds)

			h := outcome.Streams.AgentHeader()
			var itemCount uint64
			if ds != nil {
				itemCount = uint64(len(ds.DataItems()))
			}
			l.seq.Advance(itemCount, h.NextSequence)

			if l.metrics != nil {
				l.metrics.RecordDocument(l.device, "sample")
				l.metrics.RecordSequence(l.seq.From())
			}
			l.subs.sampleReceived.dispatch(outcome.Streams)
		case document.KindError:
			l.subs.errorEvent.dispatch(ProtocolErrorEvent{Op: "sample", Doc: outcome.Error})
		default:
			l.subs.xmlError.dispatch(XmlErrorEvent{Op: "sample", Payload: payload})
		}
	}

	start := time.Now()
	err := drivers.RunStream(ctx, l.client, l.seq.From(), l.cfg.MaxSampleCount, l.cfg.IntervalMs, onChunk)
	l.timeOperation("sample", start)
	route(l.subs, l.metrics, err)

	l.pendingTarget = targetCurrentFetch
	return stateBackoff
}

func (l *loop) runBackoff(ctx context.Context, target backoffTarget) loopState {
	l.recordState(stateBackoff)

	timer := time.NewTimer(l.cfg.retryInterval())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return stateStopped
	case <-timer.C:
		if target == targetProbing {
			return stateProbing
		}
		return stateCurrentFetch
	}
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// subClamp computes a-b without underflowing uint64 when b > a (spec §4.E's
// note: "when buffer_size < 100 the recovery formula may produce a value
// below first_sequence; the max(first_sequence, ...) clamp absorbs it").
func subClamp(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
