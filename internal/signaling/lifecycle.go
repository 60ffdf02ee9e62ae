package signaling

import "log/slog"

// Lifecycle handles connect, disconnect and full room departure.
type Lifecycle struct {
	registry *Registry
	logger   *slog.Logger
}

// NewLifecycle returns a Lifecycle operating on registry.
func NewLifecycle(registry *Registry, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{registry: registry, logger: logger}
}

// Connect opens a session for peer and re-advertises the room list so the
// new connection learns about existing rooms.
func (l *Lifecycle) Connect(peer PeerID) []Effect {
	l.registry.Connect(peer)
	l.logger.Info("peer connected", "peer", peer)
	return []Effect{l.shareRooms()}
}

// LeaveRooms removes peer from every room it has joined. Every pair formed
// with a remaining member is torn down in both directions before the
// updated room list is broadcast.
func (l *Lifecycle) LeaveRooms(peer PeerID) []Effect {
	var effects []Effect
	for _, room := range l.registry.RoomsOf(peer) {
		for _, other := range l.registry.PeersInRoom(room) {
			if other == peer {
				continue
			}
			effects = append(effects,
				unicast(other, EventRemovePeer, RemovePeer{PeerID: peer}),
				unicast(peer, EventRemovePeer, RemovePeer{PeerID: other}),
			)
		}
		l.registry.Leave(peer, room)
		l.logger.Debug("peer left room", "peer", peer, "room", room)
	}
	return append(effects, l.shareRooms())
}

// Disconnect runs LeaveRooms and then discards the session. No effect is
// produced for peer afterwards.
func (l *Lifecycle) Disconnect(peer PeerID) []Effect {
	effects := l.LeaveRooms(peer)
	l.registry.Disconnect(peer)
	l.logger.Info("peer disconnected", "peer", peer)
	return effects
}

func (l *Lifecycle) shareRooms() Effect {
	return broadcast(EventShareRooms, ShareRooms{Rooms: l.registry.ListValidRoomIDs()})
}
