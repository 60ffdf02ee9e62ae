package signaling

import "log/slog"

// Router turns inbound actions into outbound effects.
type Router struct {
	registry  *Registry
	lifecycle *Lifecycle
	logger    *slog.Logger
}

// NewRouter returns a Router sharing registry with lifecycle.
func NewRouter(registry *Registry, lifecycle *Lifecycle, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{registry: registry, lifecycle: lifecycle, logger: logger}
}

// Handle applies action sent by from and returns the effects to deliver, in
// order. A nil result means nothing goes on the wire.
func (r *Router) Handle(from PeerID, action Action) []Effect {
	switch a := action.(type) {
	case Join:
		return r.join(from, a.Room)
	case Leave:
		return r.lifecycle.LeaveRooms(from)
	case RelaySDP:
		return []Effect{unicast(a.Target, EventSessionDescription, SessionDescription{
			PeerID:             from,
			SessionDescription: a.SessionDescription,
		})}
	case RelayICE:
		return []Effect{unicast(a.Target, EventICECandidate, ICECandidate{
			PeerID:       from,
			ICECandidate: a.ICECandidate,
		})}
	case Message:
		return []Effect{broadcast(EventMessage, a.Body)}
	}
	r.logger.Debug("dropping unsupported action", "peer", from, "action", action)
	return nil
}

// join pairs the newcomer with every existing member. The newcomer always
// makes the offer.
func (r *Router) join(peer PeerID, room RoomID) []Effect {
	if r.registry.IsMember(peer, room) {
		r.logger.Warn("peer already joined room", "peer", peer, "room", room)
		return nil
	}

	members := r.registry.PeersInRoom(room)
	effects := make([]Effect, 0, 2*len(members)+1)
	for _, other := range members {
		effects = append(effects,
			unicast(other, EventAddPeer, AddPeer{PeerID: peer, CreateOffer: false}),
			unicast(peer, EventAddPeer, AddPeer{PeerID: other, CreateOffer: true}),
		)
	}
	r.registry.Join(peer, room)
	r.logger.Debug("peer joined room", "peer", peer, "room", room, "members", len(members)+1)

	return append(effects, r.lifecycle.shareRooms())
}
