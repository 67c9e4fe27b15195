package wsbroadcast

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/c360/mtconnect-client/document"
	"github.com/c360/mtconnect-client/session"
)

func newTestServer(t *testing.T, b *Bridge) (*httptest.Server, *websocket.Conn) {
	srv := httptest.NewServer(http.HandlerFunc(b.handleWebSocket))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		b.clientsMu.RLock()
		defer b.clientsMu.RUnlock()
		return len(b.clients) == 1
	}, time.Second, 10*time.Millisecond)

	return srv, conn
}

func TestBroadcastDeliversToConnectedClient(t *testing.T) {
	subs := session.NewSubscriptions()
	b := NewBridge("", "/ws", subs, "VMC-123", nil)
	b.subscribeAll()
	defer b.unsubscribeAll()

	_, conn := newTestServer(t, b)

	subs.OnProbeReceived(func(*document.DevicesDocument) {})
	subs.OnStarted(func() {}) // no-op; ensures subscribeAll ran without panicking

	b.broadcast("probe", &document.DevicesDocument{})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(data), `"kind":"probe"`)
}

func TestBroadcastSkipsClosedClient(t *testing.T) {
	subs := session.NewSubscriptions()
	b := NewBridge("", "/ws", subs, "VMC-123", nil)

	_, conn := newTestServer(t, b)
	require.NoError(t, conn.Close())

	require.NotPanics(t, func() {
		b.broadcast("stopped", struct{}{})
		b.broadcast("stopped", struct{}{})
	})
}

func TestSubscribeAllThenUnsubscribeAllClearsHandles(t *testing.T) {
	subs := session.NewSubscriptions()
	b := NewBridge("", "/ws", subs, "VMC-123", nil)

	b.subscribeAll()
	require.Len(t, b.handles, 9)
	b.unsubscribeAll()
	require.Empty(t, b.handles)
}
