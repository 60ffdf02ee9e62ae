package signaling

import (
	"slices"
	"sync"
)

// Registry is the authoritative room membership table together with the
// per-connection session table. A peer is a member of a room if and only if
// the room is recorded in that peer's session.
//
// Every method takes the registry lock, so callers always see a complete view.
// Rooms exist only while they have members.
type Registry struct {
	mu sync.RWMutex

	// rooms maps a room to its members in join order.
	rooms map[RoomID][]PeerID

	// sessions maps a connected peer to the rooms it has joined, in join order.
	sessions map[PeerID][]RoomID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[RoomID][]PeerID),
		sessions: make(map[PeerID][]RoomID),
	}
}

// Connect opens a session for peer. It is a no-op if the session exists.
func (r *Registry) Connect(peer PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[peer]; !ok {
		r.sessions[peer] = nil
	}
}

// Disconnect removes peer from every room and discards its session. It
// returns the rooms the peer was removed from.
func (r *Registry) Disconnect(peer PeerID) []RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	left := r.leaveAllLocked(peer)
	delete(r.sessions, peer)
	return left
}

// Join adds peer to room, creating the room if needed. It reports whether the
// membership changed; joining a room twice is a no-op.
func (r *Registry) Join(peer PeerID, room RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.Contains(r.rooms[room], peer) {
		return false
	}
	r.rooms[room] = append(r.rooms[room], peer)
	r.sessions[peer] = append(r.sessions[peer], room)
	return true
}

// Leave removes peer from room. The room is deleted once it is empty. It
// reports whether the membership changed.
func (r *Registry) Leave(peer PeerID, room RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.leaveLocked(peer, room)
}

// LeaveAll removes peer from every room it belongs to and returns those rooms
// in join order. The session itself stays open.
func (r *Registry) LeaveAll(peer PeerID) []RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.leaveAllLocked(peer)
}

func (r *Registry) leaveAllLocked(peer PeerID) []RoomID {
	joined := slices.Clone(r.sessions[peer])
	for _, room := range joined {
		r.leaveLocked(peer, room)
	}
	return joined
}

func (r *Registry) leaveLocked(peer PeerID, room RoomID) bool {
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	i := slices.Index(members, peer)
	if i < 0 {
		return false
	}

	members = slices.Delete(members, i, i+1)
	if len(members) == 0 {
		delete(r.rooms, room)
	} else {
		r.rooms[room] = members
	}

	if joined, ok := r.sessions[peer]; ok {
		if j := slices.Index(joined, room); j >= 0 {
			r.sessions[peer] = slices.Delete(joined, j, j+1)
		}
	}
	return true
}

// PeersInRoom returns the members of room in join order. The result is empty
// when the room does not exist.
func (r *Registry) PeersInRoom(room RoomID) []PeerID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.rooms[room])
}

// RoomsOf returns the rooms peer has joined, in join order.
func (r *Registry) RoomsOf(peer PeerID) []RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.sessions[peer])
}

// IsMember reports whether peer is currently joined to room.
func (r *Registry) IsMember(peer PeerID, room RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Contains(r.rooms[room], peer)
}

// Has reports whether room currently exists.
func (r *Registry) Has(room RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[room]
	return ok
}

// Connected reports whether peer has an open session.
func (r *Registry) Connected(peer PeerID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sessions[peer]
	return ok
}

// ListValidRoomIDs returns every existing room whose identifier passes
// IsValidRoomID, sorted. It never returns nil.
func (r *Registry) ListValidRoomIDs() []RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RoomID, 0, len(r.rooms))
	for room := range r.rooms {
		if IsValidRoomID(string(room)) {
			out = append(out, room)
		}
	}
	slices.Sort(out)
	return out
}

// RoomCount returns the number of existing rooms, listed or not.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

// PeerCount returns the number of open sessions.
func (r *Registry) PeerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
