package session

import (
	"sync"

	"github.com/c360/mtconnect-client/document"
	"github.com/google/uuid"
)

// Subscription is the handle returned by every Subscribe* method; pass it
// to the matching Unsubscribe* method to stop delivery.
type Subscription uuid.UUID

// handlers is a typed, concurrency-safe observer list for one event kind.
// Subscribe/Unsubscribe take a lock; Dispatch takes a read lock and invokes
// a snapshot of the current callbacks synchronously on the caller's
// goroutine, per spec §5.
type handlers[T any] struct {
	mu  sync.RWMutex
	fns map[uuid.UUID]func(T)
}

func newHandlers[T any]() *handlers[T] {
	return &handlers[T]{fns: make(map[uuid.UUID]func(T))}
}

func (h *handlers[T]) add(fn func(T)) Subscription {
	id := uuid.New()
	h.mu.Lock()
	h.fns[id] = fn
	h.mu.Unlock()
	return Subscription(id)
}

func (h *handlers[T]) remove(sub Subscription) {
	h.mu.Lock()
	delete(h.fns, uuid.UUID(sub))
	h.mu.Unlock()
}

func (h *handlers[T]) dispatch(v T) {
	h.mu.RLock()
	snapshot := make([]func(T), 0, len(h.fns))
	for _, fn := range h.fns {
		snapshot = append(snapshot, fn)
	}
	h.mu.RUnlock()
	for _, fn := range snapshot {
		fn(v)
	}
}

type voidHandlers struct {
	mu  sync.RWMutex
	fns map[uuid.UUID]func()
}

func newVoidHandlers() *voidHandlers {
	return &voidHandlers{fns: make(map[uuid.UUID]func())}
}

func (h *voidHandlers) add(fn func()) Subscription {
	id := uuid.New()
	h.mu.Lock()
	h.fns[id] = fn
	h.mu.Unlock()
	return Subscription(id)
}

func (h *voidHandlers) remove(sub Subscription) {
	h.mu.Lock()
	delete(h.fns, uuid.UUID(sub))
	h.mu.Unlock()
}

func (h *voidHandlers) dispatch() {
	h.mu.RLock()
	snapshot := make([]func(), 0, len(h.fns))
	for _, fn := range h.fns {
		snapshot = append(snapshot, fn)
	}
	h.mu.RUnlock()
	for _, fn := range snapshot {
		fn()
	}
}

// Subscriptions is the Subscription Surface (F): one typed observer list
// per downstream event named in spec §6. Subscribers may attach before or
// after Start; delivery begins on the next matching event.
type Subscriptions struct {
	probeReceived   *handlers[*document.DevicesDocument]
	currentReceived *handlers[*document.StreamsDocument]
	sampleReceived  *handlers[*document.StreamsDocument]
	assetsReceived  *handlers[*document.AssetsDocument]
	errorEvent      *handlers[ProtocolErrorEvent]
	connectionError *handlers[ConnectionError]
	xmlError        *handlers[XmlErrorEvent]
	started         *voidHandlers
	stopped         *voidHandlers
}

// NewSubscriptions builds an empty Subscription Surface.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{
		probeReceived:   newHandlers[*document.DevicesDocument](),
		currentReceived: newHandlers[*document.StreamsDocument](),
		sampleReceived:  newHandlers[*document.StreamsDocument](),
		assetsReceived:  newHandlers[*document.AssetsDocument](),
		errorEvent:      newHandlers[ProtocolErrorEvent](),
		connectionError: newHandlers[ConnectionError](),
		xmlError:        newHandlers[XmlErrorEvent](),
		started:         newVoidHandlers(),
		stopped:         newVoidHandlers(),
	}
}

func (s *Subscriptions) OnProbeReceived(fn func(*document.DevicesDocument)) Subscription {
	return s.probeReceived.add(fn)
}
func (s *Subscriptions) OffProbeReceived(sub Subscription) { s.probeReceived.remove(sub) }

func (s *Subscriptions) OnCurrentReceived(fn func(*document.StreamsDocument)) Subscription {
	return s.currentReceived.add(fn)
}
func (s *Subscriptions) OffCurrentReceived(sub Subscription) { s.currentReceived.remove(sub) }

func (s *Subscriptions) OnSampleReceived(fn func(*document.StreamsDocument)) Subscription {
	return s.sampleReceived.add(fn)
}
func (s *Subscriptions) OffSampleReceived(sub Subscription) { s.sampleReceived.remove(sub) }

func (s *Subscriptions) OnAssetsReceived(fn func(*document.AssetsDocument)) Subscription {
	return s.assetsReceived.add(fn)
}
func (s *Subscriptions) OffAssetsReceived(sub Subscription) { s.assetsReceived.remove(sub) }

func (s *Subscriptions) OnError(fn func(ProtocolErrorEvent)) Subscription {
	return s.errorEvent.add(fn)
}
func (s *Subscriptions) OffError(sub Subscription) { s.errorEvent.remove(sub) }

func (s *Subscriptions) OnConnectionError(fn func(ConnectionError)) Subscription {
	return s.connectionError.add(fn)
}
func (s *Subscriptions) OffConnectionError(sub Subscription) { s.connectionError.remove(sub) }

func (s *Subscriptions) OnXmlError(fn func(XmlErrorEvent)) Subscription {
	return s.xmlError.add(fn)
}
func (s *Subscriptions) OffXmlError(sub Subscription) { s.xmlError.remove(sub) }

func (s *Subscriptions) OnStarted(fn func()) Subscription { return s.started.add(fn) }
func (s *Subscriptions) OffStarted(sub Subscription)      { s.started.remove(sub) }

func (s *Subscriptions) OnStopped(fn func()) Subscription { return s.stopped.add(fn) }
func (s *Subscriptions) OffStopped(sub Subscription)      { s.stopped.remove(sub) }
