package signaling

import "github.com/google/uuid"

// PeerID identifies one live connection for the lifetime of that connection.
type PeerID string

// RoomID names a room. Clients pick it; the relay never generates one on join.
type RoomID string

// canonicalUUIDLength is the length of the hyphenated 8-4-4-4-12 form.
const canonicalUUIDLength = 36

// NewPeerID mints a fresh random peer identifier.
func NewPeerID() PeerID {
	return PeerID(uuid.New().String())
}

// NewRoomID mints a room identifier that IsValidRoomID accepts.
func NewRoomID() RoomID {
	return RoomID(uuid.New().String())
}

// IsValidRoomID reports whether s is a canonical, hyphenated, version 4 UUID.
// Only valid rooms are advertised in the room list; joining is never gated on it.
func IsValidRoomID(s string) bool {
	if len(s) != canonicalUUIDLength {
		return false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return id.Version() == 4 && id.Variant() == uuid.RFC4122
}
