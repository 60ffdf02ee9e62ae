package models

import "github.com/mossy-p/room-relay/internal/signaling"

// RoomList is the advertised room list, the same one pushed as share-rooms.
type RoomList struct {
	Rooms []signaling.RoomID `json:"rooms"`
}

// RoomInfo describes one live room
type RoomInfo struct {
	ID        signaling.RoomID `json:"id"`
	PeerCount int              `json:"peerCount"`
	Listed    bool             `json:"listed"` // false for rooms whose ID is not a v4 UUID
}

// CreateRoomResponse is the response for minting a room ID
type CreateRoomResponse struct {
	RoomID signaling.RoomID `json:"roomId"`
}

// Stats summarises relay occupancy for the health endpoint
type Stats struct {
	Status string `json:"status"`
	Peers  int    `json:"peers"`
	Rooms  int    `json:"rooms"`
}
