package signaling

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Event names carried in the envelope "type" field.
const (
	EventJoin     = "join"
	EventLeave    = "leave"
	EventRelaySDP = "relay-sdp"
	EventRelayICE = "relay-ice"
	EventMessage  = "message"

	EventAddPeer            = "add-peer"
	EventRemovePeer         = "remove-peer"
	EventSessionDescription = "session-description"
	EventICECandidate       = "ice-candidate"
	EventShareRooms         = "share-rooms"
)

var (
	// ErrMalformedAction is returned for frames with missing or mistyped fields.
	ErrMalformedAction = errors.New("malformed action")

	// ErrUnknownAction is returned for frames with an unrecognised type.
	ErrUnknownAction = errors.New("unknown action")
)

// Envelope is the frame layout used in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Action is an inbound peer request. The concrete types are Join, Leave,
// RelaySDP, RelayICE and Message.
type Action interface {
	event() string
}

// Join asks to join Room.
type Join struct {
	Room RoomID
}

// Leave asks to leave every joined room without closing the connection.
type Leave struct{}

// RelaySDP forwards a session description to Target.
type RelaySDP struct {
	Target             PeerID
	SessionDescription json.RawMessage
}

// RelayICE forwards a connectivity candidate to Target.
type RelayICE struct {
	Target       PeerID
	ICECandidate json.RawMessage
}

// Message is a free-form chat payload re-broadcast to every connection.
type Message struct {
	Body json.RawMessage
}

func (Join) event() string     { return EventJoin }
func (Leave) event() string    { return EventLeave }
func (RelaySDP) event() string { return EventRelaySDP }
func (RelayICE) event() string { return EventRelayICE }
func (Message) event() string  { return EventMessage }

type joinPayload struct {
	Room string `json:"room"`
}

type relaySDPPayload struct {
	PeerID             string          `json:"peerID"`
	SessionDescription json.RawMessage `json:"sessionDescription"`
}

type relayICEPayload struct {
	PeerID       string          `json:"peerID"`
	ICECandidate json.RawMessage `json:"iceCandidate"`
}

// DecodeAction parses one inbound frame.
func DecodeAction(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}

	switch env.Type {
	case EventJoin:
		var p joinPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.Room == "" {
			return nil, fmt.Errorf("%w: join without room", ErrMalformedAction)
		}
		return Join{Room: RoomID(p.Room)}, nil

	case EventLeave:
		return Leave{}, nil

	case EventRelaySDP:
		var p relaySDPPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.PeerID == "" || isAbsent(p.SessionDescription) {
			return nil, fmt.Errorf("%w: relay-sdp needs peerID and sessionDescription", ErrMalformedAction)
		}
		return RelaySDP{Target: PeerID(p.PeerID), SessionDescription: p.SessionDescription}, nil

	case EventRelayICE:
		var p relayICEPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.PeerID == "" || isAbsent(p.ICECandidate) {
			return nil, fmt.Errorf("%w: relay-ice needs peerID and iceCandidate", ErrMalformedAction)
		}
		return RelayICE{Target: PeerID(p.PeerID), ICECandidate: p.ICECandidate}, nil

	case EventMessage:
		if isAbsent(env.Payload) {
			return nil, fmt.Errorf("%w: empty message", ErrMalformedAction)
		}
		return Message{Body: env.Payload}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedAction)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
}

func decodePayload(raw json.RawMessage, v any) error {
	if isAbsent(raw) {
		return fmt.Errorf("%w: missing payload", ErrMalformedAction)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	return nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
