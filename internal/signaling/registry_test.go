package signaling

import (
	"math/rand"
	"slices"
	"testing"
)

const (
	roomA = RoomID("3b241101-e2bb-4255-8caf-4136c566a962")
	roomB = RoomID("9f1c2d3e-4a5b-4c6d-9e7f-8a9b0c1d2e3f")
	roomX = RoomID("lobby")
)

// checkConsistency verifies that room membership and sessions mirror each
// other exactly and that no empty room is stored.
func checkConsistency(t *testing.T, r *Registry) {
	t.Helper()
	r.mu.RLock()
	defer r.mu.RUnlock()

	for room, members := range r.rooms {
		if len(members) == 0 {
			t.Fatalf("room %q stored with no members", room)
		}
		for _, p := range members {
			if !slices.Contains(r.sessions[p], room) {
				t.Fatalf("peer %q in room %q but session has %v", p, room, r.sessions[p])
			}
		}
	}
	for p, joined := range r.sessions {
		for _, room := range joined {
			if !slices.Contains(r.rooms[room], p) {
				t.Fatalf("session %q lists %q but room has %v", p, room, r.rooms[room])
			}
		}
	}
}

func TestRegistryJoinIdempotent(t *testing.T) {
	r := NewRegistry()
	if !r.Join("p1", roomA) {
		t.Fatalf("first join reported no change")
	}
	if r.Join("p1", roomA) {
		t.Fatalf("second join reported a change")
	}
	if got := r.PeersInRoom(roomA); len(got) != 1 {
		t.Fatalf("members=%v, want 1", got)
	}
	if got := r.RoomsOf("p1"); !slices.Equal(got, []RoomID{roomA}) {
		t.Fatalf("RoomsOf=%v, want [%s]", got, roomA)
	}
	checkConsistency(t, r)
}

func TestRegistryPeersInJoinOrder(t *testing.T) {
	r := NewRegistry()
	for _, p := range []PeerID{"c", "a", "b"} {
		r.Join(p, roomA)
	}
	want := []PeerID{"c", "a", "b"}
	if got := r.PeersInRoom(roomA); !slices.Equal(got, want) {
		t.Fatalf("PeersInRoom=%v, want %v", got, want)
	}
	if got := r.PeersInRoom(roomB); len(got) != 0 {
		t.Fatalf("absent room members=%v, want empty", got)
	}
}

func TestRegistryLeaveDeletesEmptyRoom(t *testing.T) {
	r := NewRegistry()
	r.Join("p1", roomA)
	r.Join("p2", roomA)

	if !r.Leave("p1", roomA) {
		t.Fatalf("leave reported no change")
	}
	if !r.Has(roomA) {
		t.Fatalf("room deleted while p2 still a member")
	}
	r.Leave("p2", roomA)

	r.mu.RLock()
	_, ok := r.rooms[roomA]
	r.mu.RUnlock()
	if ok {
		t.Fatalf("empty room key still present")
	}
	if r.Leave("p2", roomA) {
		t.Fatalf("leaving an absent room reported a change")
	}
	checkConsistency(t, r)
}

func TestRegistryLeaveAll(t *testing.T) {
	r := NewRegistry()
	r.Connect("p")
	r.Join("p", roomA)
	r.Join("p", roomX)
	r.Join("q", roomX)

	left := r.LeaveAll("p")
	if !slices.Equal(left, []RoomID{roomA, roomX}) {
		t.Fatalf("LeaveAll=%v, want [%s %s]", left, roomA, roomX)
	}
	if r.Has(roomA) {
		t.Fatalf("room held only by p still exists")
	}
	if got := r.PeersInRoom(roomX); !slices.Equal(got, []PeerID{"q"}) {
		t.Fatalf("roomX members=%v, want [q]", got)
	}
	if slices.Contains(r.ListValidRoomIDs(), roomA) {
		t.Fatalf("room list still contains %s", roomA)
	}
	if !r.Connected("p") {
		t.Fatalf("LeaveAll closed the session")
	}
	checkConsistency(t, r)
}

func TestRegistryDisconnectDropsSession(t *testing.T) {
	r := NewRegistry()
	r.Connect("p")
	r.Join("p", roomA)

	left := r.Disconnect("p")
	if !slices.Equal(left, []RoomID{roomA}) {
		t.Fatalf("Disconnect=%v, want [%s]", left, roomA)
	}
	if r.Connected("p") || r.PeerCount() != 0 {
		t.Fatalf("session survived disconnect")
	}
	if r.RoomCount() != 0 {
		t.Fatalf("RoomCount=%d, want 0", r.RoomCount())
	}
}

func TestRegistryListValidRoomIDsFiltersAndSorts(t *testing.T) {
	r := NewRegistry()
	r.Join("p1", roomB)
	r.Join("p2", roomX)
	r.Join("p3", roomA)

	got := r.ListValidRoomIDs()
	want := []RoomID{roomA, roomB}
	if !slices.Equal(got, want) {
		t.Fatalf("ListValidRoomIDs=%v, want %v", got, want)
	}
	if !r.Has(roomX) {
		t.Fatalf("unlisted room should still exist")
	}
	if got := NewRegistry().ListValidRoomIDs(); got == nil {
		t.Fatalf("empty list is nil")
	}
}

func TestRegistryRandomSequencesStayConsistent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	peers := []PeerID{"a", "b", "c", "d"}
	rooms := []RoomID{roomA, roomB, roomX}

	r := NewRegistry()
	for _, p := range peers {
		r.Connect(p)
	}
	for i := 0; i < 2000; i++ {
		p := peers[rng.Intn(len(peers))]
		room := rooms[rng.Intn(len(rooms))]
		switch rng.Intn(5) {
		case 0, 1:
			r.Join(p, room)
		case 2:
			r.Leave(p, room)
		case 3:
			r.LeaveAll(p)
			for _, room := range rooms {
				if r.IsMember(p, room) {
					t.Fatalf("step %d: %q still in %q after LeaveAll", i, p, room)
				}
			}
		case 4:
			r.Disconnect(p)
			r.Connect(p)
		}
		checkConsistency(t, r)
	}
}
