package signaling

import (
	"context"
	"errors"
	"log/slog"
)

// ErrRelayClosed is returned when an event is submitted after Run returned.
var ErrRelayClosed = errors.New("relay closed")

// Transport delivers encoded frames to connections. Implementations must not
// block on a slow connection; a frame for an unknown peer is dropped.
type Transport interface {
	Unicast(peer PeerID, frame []byte)
	Broadcast(frame []byte)
}

// Presence receives membership changes after each processed event. It is
// called from the relay loop and must not block.
type Presence interface {
	RoomChanged(room RoomID, members []PeerID)
	RoomsListed(rooms []RoomID)
}

// RelayConfig configures a Relay.
type RelayConfig struct {
	// QueueSize bounds the number of pending events. Zero selects 256.
	QueueSize int

	// Presence is optional.
	Presence Presence

	Logger *slog.Logger
}

type eventKind int

const (
	eventConnect eventKind = iota
	eventDisconnect
	eventAction
)

type event struct {
	kind   eventKind
	peer   PeerID
	action Action
}

// Relay serialises every connect, disconnect and action through a single
// loop so no event observes another half-applied.
type Relay struct {
	registry  *Registry
	lifecycle *Lifecycle
	router    *Router
	transport Transport
	presence  Presence
	logger    *slog.Logger

	events chan event
	done   chan struct{}
}

// NewRelay wires a registry, lifecycle manager and router around transport.
func NewRelay(transport Transport, cfg RelayConfig) *Relay {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 256
	}

	registry := NewRegistry()
	lifecycle := NewLifecycle(registry, logger)
	return &Relay{
		registry:  registry,
		lifecycle: lifecycle,
		router:    NewRouter(registry, lifecycle, logger),
		transport: transport,
		presence:  cfg.Presence,
		logger:    logger,
		events:    make(chan event, queue),
		done:      make(chan struct{}),
	}
}

// Registry exposes the membership table for read-only queries.
func (r *Relay) Registry() *Registry {
	return r.registry
}

// Connect registers a new connection.
func (r *Relay) Connect(peer PeerID) error {
	return r.enqueue(event{kind: eventConnect, peer: peer})
}

// Disconnect tears down a connection's rooms and session.
func (r *Relay) Disconnect(peer PeerID) error {
	return r.enqueue(event{kind: eventDisconnect, peer: peer})
}

// Submit queues an action sent by peer.
func (r *Relay) Submit(peer PeerID, action Action) error {
	return r.enqueue(event{kind: eventAction, peer: peer, action: action})
}

func (r *Relay) enqueue(ev event) error {
	select {
	case <-r.done:
		return ErrRelayClosed
	default:
	}

	select {
	case r.events <- ev:
		return nil
	case <-r.done:
		return ErrRelayClosed
	}
}

// Run processes events until ctx is cancelled. Events still queued at that
// point are discarded.
func (r *Relay) Run(ctx context.Context) error {
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.events:
			r.process(ev)
		}
	}
}

func (r *Relay) process(ev event) {
	var touched []RoomID
	var effects []Effect

	switch ev.kind {
	case eventConnect:
		effects = r.lifecycle.Connect(ev.peer)
	case eventDisconnect:
		touched = r.registry.RoomsOf(ev.peer)
		effects = r.lifecycle.Disconnect(ev.peer)
	case eventAction:
		switch a := ev.action.(type) {
		case Join:
			touched = []RoomID{a.Room}
		case Leave:
			touched = r.registry.RoomsOf(ev.peer)
		}
		effects = r.router.Handle(ev.peer, ev.action)
	}

	r.deliver(effects)
	if len(effects) > 0 {
		r.publish(touched)
	}
}

func (r *Relay) deliver(effects []Effect) {
	for _, e := range effects {
		frame, err := e.Encode()
		if err != nil {
			r.logger.Error("failed to encode effect", "event", e.Event, "err", err)
			continue
		}
		if e.Broadcast() {
			r.transport.Broadcast(frame)
		} else {
			r.transport.Unicast(e.To, frame)
		}
	}
}

func (r *Relay) publish(touched []RoomID) {
	if r.presence == nil || len(touched) == 0 {
		return
	}
	for _, room := range touched {
		r.presence.RoomChanged(room, r.registry.PeersInRoom(room))
	}
	r.presence.RoomsListed(r.registry.ListValidRoomIDs())
}
