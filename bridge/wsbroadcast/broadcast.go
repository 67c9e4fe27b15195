package wsbroadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/mtconnect-client/document"
	"github.com/c360/mtconnect-client/errors"
	"github.com/c360/mtconnect-client/session"
)

// envelope is the wire shape pushed to every connected browser: an event
// kind tag plus its JSON-encoded payload, so a client can demux a single
// socket into the nine event streams without opening nine connections.
type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Bridge serves a WebSocket endpoint that broadcasts every event on a
// session.Subscriptions surface to every connected client. It implements
// component.Lifecycle.
type Bridge struct {
	addr   string
	path   string
	device string
	subs   *session.Subscriptions
	logger *slog.Logger

	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex // per-connection write lock

	handles []func()

	mu      sync.Mutex
	server  *http.Server
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewBridge builds a Bridge that will listen on addr and serve the
// WebSocket upgrade at path ("/ws" is the conventional choice).
func NewBridge(addr, path string, subs *session.Subscriptions, device string, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		addr:   addr,
		path:   path,
		device: device,
		subs:   subs,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Initialize satisfies component.Lifecycle.
func (b *Bridge) Initialize() error { return nil }

// Start listens on addr, subscribes to every event kind, and blocks until
// ctx is cancelled or Stop is called.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return errors.ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.running = true

	mux := http.NewServeMux()
	mux.HandleFunc(b.path, b.handleWebSocket)
	b.server = &http.Server{Addr: b.addr, Handler: mux}
	server := b.server
	b.mu.Unlock()

	b.subscribeAll()
	defer b.unsubscribeAll()

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case <-runCtx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			close(b.done)
			return errors.WrapTransient(err, "bridge/wsbroadcast", "Start", "serve http")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	b.closeAllClients()
	close(b.done)
	return nil
}

// Stop requests cooperative shutdown and waits up to timeout for Start to
// return.
func (b *Bridge) Stop(timeout time.Duration) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	cancel := b.cancel
	done := b.done
	b.mu.Unlock()

	cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return errors.WrapTransient(context.DeadlineExceeded, "bridge/wsbroadcast", "Stop", "wait for server shutdown")
	}
}

func (b *Bridge) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", "component", "bridge/wsbroadcast", "error", err)
		return
	}
	b.clientsMu.Lock()
	b.clients[conn] = &sync.Mutex{}
	b.clientsMu.Unlock()

	go b.readLoop(conn)
}

// readLoop discards inbound frames but is required to detect client
// disconnects and keep the gorilla/websocket read pump running.
func (b *Bridge) readLoop(conn *websocket.Conn) {
	defer b.removeClient(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Bridge) removeClient(conn *websocket.Conn) {
	b.clientsMu.Lock()
	delete(b.clients, conn)
	b.clientsMu.Unlock()
	_ = conn.Close()
}

func (b *Bridge) closeAllClients() {
	b.clientsMu.Lock()
	for conn := range b.clients {
		_ = conn.Close()
	}
	b.clients = make(map[*websocket.Conn]*sync.Mutex)
	b.clientsMu.Unlock()
}

func (b *Bridge) broadcast(kind string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.logger.Warn("event marshal failed", "component", "bridge/wsbroadcast", "kind", kind, "error", err)
		return
	}
	frame, err := json.Marshal(envelope{Kind: kind, Payload: payload})
	if err != nil {
		return
	}

	b.clientsMu.RLock()
	type target struct {
		conn *websocket.Conn
		lock *sync.Mutex
	}
	targets := make([]target, 0, len(b.clients))
	for conn, lock := range b.clients {
		targets = append(targets, target{conn, lock})
	}
	b.clientsMu.RUnlock()

	for _, t := range targets {
		t.lock.Lock()
		_ = t.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		err := t.conn.WriteMessage(websocket.TextMessage, frame)
		t.lock.Unlock()
		if err != nil {
			b.removeClient(t.conn)
		}
	}
}

func (b *Bridge) subscribeAll() {
	s := b.subs
	b.handles = nil

	probeSub := s.OnProbeReceived(func(doc *document.DevicesDocument) { b.broadcast("probe", doc) })
	b.handles = append(b.handles, func() { s.OffProbeReceived(probeSub) })

	currentSub := s.OnCurrentReceived(func(doc *document.StreamsDocument) { b.broadcast("current", doc) })
	b.handles = append(b.handles, func() { s.OffCurrentReceived(currentSub) })

	sampleSub := s.OnSampleReceived(func(doc *document.StreamsDocument) { b.broadcast("sample", doc) })
	b.handles = append(b.handles, func() { s.OffSampleReceived(sampleSub) })

	assetsSub := s.OnAssetsReceived(func(doc *document.AssetsDocument) { b.broadcast("assets", doc) })
	b.handles = append(b.handles, func() { s.OffAssetsReceived(assetsSub) })

	errSub := s.OnError(func(ev session.ProtocolErrorEvent) { b.broadcast("error", ev) })
	b.handles = append(b.handles, func() { s.OffError(errSub) })

	connSub := s.OnConnectionError(func(ev session.ConnectionError) { b.broadcast("connection_error", ev) })
	b.handles = append(b.handles, func() { s.OffConnectionError(connSub) })

	xmlSub := s.OnXmlError(func(ev session.XmlErrorEvent) { b.broadcast("xml_error", ev) })
	b.handles = append(b.handles, func() { s.OffXmlError(xmlSub) })

	startedSub := s.OnStarted(func() { b.broadcast("started", struct{}{}) })
	b.handles = append(b.handles, func() { s.OffStarted(startedSub) })

	stoppedSub := s.OnStopped(func() { b.broadcast("stopped", struct{}{}) })
	b.handles = append(b.handles, func() { s.OffStopped(stoppedSub) })
}

func (b *Bridge) unsubscribeAll() {
	for _, u := range b.handles {
		u()
	}
	b.handles = nil
}
