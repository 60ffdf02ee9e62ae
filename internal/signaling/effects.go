package signaling

import (
	"encoding/json"
	"fmt"
)

// Effect is one outbound message. An empty To means every connection.
type Effect struct {
	To      PeerID
	Event   string
	Payload any
}

// Broadcast reports whether the effect targets every connection.
func (e Effect) Broadcast() bool {
	return e.To == ""
}

// Encode renders the effect as a wire frame.
func (e Effect) Encode() ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Event, err)
	}
	return json.Marshal(Envelope{Type: e.Event, Payload: payload})
}

// AddPeer tells the receiver to set up a connection with PeerID.
type AddPeer struct {
	PeerID      PeerID `json:"peerID"`
	CreateOffer bool   `json:"createOffer"`
}

// RemovePeer tells the receiver to tear down its connection with PeerID.
type RemovePeer struct {
	PeerID PeerID `json:"peerID"`
}

// SessionDescription carries a relayed description from PeerID.
type SessionDescription struct {
	PeerID             PeerID          `json:"peerID"`
	SessionDescription json.RawMessage `json:"sessionDescription"`
}

// ICECandidate carries a relayed candidate from PeerID.
type ICECandidate struct {
	PeerID       PeerID          `json:"peerID"`
	ICECandidate json.RawMessage `json:"iceCandidate"`
}

// ShareRooms is the advertised room list.
type ShareRooms struct {
	Rooms []RoomID `json:"rooms"`
}

func unicast(to PeerID, event string, payload any) Effect {
	return Effect{To: to, Event: event, Payload: payload}
}

func broadcast(event string, payload any) Effect {
	return Effect{Event: event, Payload: payload}
}
