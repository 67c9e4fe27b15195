package nats

import (
	"context"
	"testing"
	"time"

	"github.com/c360/mtconnect-client/document"
	"github.com/c360/mtconnect-client/session"
	"github.com/stretchr/testify/require"
)

func TestConnectionStatusString(t *testing.T) {
	require.Equal(t, "disconnected", StatusDisconnected.String())
	require.Equal(t, "connecting", StatusConnecting.String())
	require.Equal(t, "connected", StatusConnected.String())
	require.Equal(t, "reconnecting", StatusReconnecting.String())
}

func TestClientPublishBeforeConnectReturnsErrNotConnected(t *testing.T) {
	c := NewClient("nats://127.0.0.1:4222")
	require.Equal(t, StatusDisconnected, c.Status())
	err := c.Publish("mtconnect.VMC-123.probe", []byte("{}"))
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestClientRTTBeforeConnectReturnsErrNotConnected(t *testing.T) {
	c := NewClient("nats://127.0.0.1:4222")
	_, err := c.RTT()
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestBridgeSubjectNaming(t *testing.T) {
	subs := session.NewSubscriptions()
	b := NewBridge("nats://127.0.0.1:4222", subs, "VMC-123", nil, nil)
	require.Equal(t, "mtconnect.VMC-123.probe", b.subject("probe"))
	require.Equal(t, "mtconnect.VMC-123.sample", b.subject("sample"))
}

func TestBridgeSubscribeAllRegistersEveryKind(t *testing.T) {
	subs := session.NewSubscriptions()
	b := NewBridge("nats://127.0.0.1:4222", subs, "VMC-123", nil, nil)
	b.subscribeAll()
	require.Len(t, b.handles, 9)
	b.unsubscribeAll()
	require.Empty(t, b.handles)
}

type recordingMetrics struct {
	statuses   []bool
	rtts       []time.Duration
	reconnects int
}

func (m *recordingMetrics) RecordNATSStatus(connected bool) { m.statuses = append(m.statuses, connected) }
func (m *recordingMetrics) RecordNATSRTT(rtt time.Duration) { m.rtts = append(m.rtts, rtt) }
func (m *recordingMetrics) RecordNATSReconnect()             { m.reconnects++ }

func TestClientStatusChangeAndReconnectHooksFire(t *testing.T) {
	m := &recordingMetrics{}
	c := NewClient("nats://127.0.0.1:1")
	c.OnStatusChange(func(s ConnectionStatus) { m.RecordNATSStatus(s == StatusConnected) })
	c.OnReconnect(m.RecordNATSReconnect)

	// Connect fails against an unreachable address, but the status hook must
	// still have observed the Connecting -> Disconnected transition.
	_ = c.Connect(context.Background())
	require.NotEmpty(t, m.statuses)
	require.Equal(t, int32(0), c.Reconnects())
}

func TestBridgePublishSkipsWhenDisconnected(t *testing.T) {
	subs := session.NewSubscriptions()
	b := NewBridge("nats://127.0.0.1:4222", subs, "VMC-123", nil, nil)
	b.subscribeAll()
	defer b.unsubscribeAll()

	// With no live connection, publish must log and return without panicking.
	subs.OnProbeReceived(func(*document.DevicesDocument) {})
	require.NotPanics(t, func() {
		b.publish("probe", &document.DevicesDocument{})
	})
}
