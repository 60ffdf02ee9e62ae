package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mossy-p/room-relay/internal/middleware"
	"github.com/mossy-p/room-relay/internal/signaling"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

// Client represents a WebSocket client connection
type Client struct {
	ID   signaling.PeerID
	Conn *websocket.Conn
	Send chan []byte
}

// Connections is the table of live clients. It delivers relay effects and
// satisfies signaling.Transport.
type Connections struct {
	mu      sync.RWMutex
	clients map[signaling.PeerID]*Client
}

// NewConnections returns an empty connection table.
func NewConnections() *Connections {
	return &Connections{clients: make(map[signaling.PeerID]*Client)}
}

func (cs *Connections) add(client *Client) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.clients[client.ID] = client
}

// remove drops the client and closes its send queue. Once it returns no
// further frame is queued for the client.
func (cs *Connections) remove(client *Client) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.clients[client.ID] == client {
		delete(cs.clients, client.ID)
		close(client.Send)
	}
}

// Len returns the number of live clients.
func (cs *Connections) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.clients)
}

// Unicast queues frame for one peer. Unknown peers are ignored.
func (cs *Connections) Unicast(peer signaling.PeerID, frame []byte) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	client, exists := cs.clients[peer]
	if !exists {
		slog.Debug("dropping frame for unknown peer", "peer", peer)
		return
	}
	client.queue(frame)
}

// Broadcast queues frame for every live client.
func (cs *Connections) Broadcast(frame []byte) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	for _, client := range cs.clients {
		client.queue(frame)
	}
}

func (c *Client) queue(frame []byte) {
	select {
	case c.Send <- frame:
	default:
		slog.Warn("failed to send message, buffer full", "peer", c.ID)
	}
}

// SignalingOptions tunes per-connection limits.
type SignalingOptions struct {
	MaxMessageBytes int64
	SendBuffer      int
}

// HandleSignaling upgrades the request and attaches the connection to relay
func HandleSignaling(relay *signaling.Relay, conns *Connections, opts SignalingOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Upgrade HTTP connection to WebSocket
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("failed to upgrade connection", "err", err)
			return
		}

		client := &Client{
			ID:   signaling.NewPeerID(),
			Conn: conn,
			Send: make(chan []byte, opts.SendBuffer),
		}

		// Register before connecting so the client sees the first room list.
		conns.add(client)
		go client.writePump()

		if err := relay.Connect(client.ID); err != nil {
			slog.Error("relay rejected connection", "peer", client.ID, "err", err)
			conns.remove(client)
			return
		}

		slog.Info("peer attached", "peer", client.ID, "user", c.GetString(middleware.UserIDKey), "remote", c.ClientIP())
		go client.readPump(relay, conns, opts.MaxMessageBytes)
	}
}

func (c *Client) readPump(relay *signaling.Relay, conns *Connections, maxMessageBytes int64) {
	defer func() {
		conns.remove(c)
		if err := relay.Disconnect(c.ID); err != nil && !errors.Is(err, signaling.ErrRelayClosed) {
			slog.Error("failed to disconnect peer", "peer", c.ID, "err", err)
		}
		c.Conn.Close()
	}()

	if maxMessageBytes > 0 {
		c.Conn.SetReadLimit(maxMessageBytes)
	}
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket error", "peer", c.ID, "err", err)
			}
			return
		}

		action, err := signaling.DecodeAction(message)
		if err != nil {
			slog.Debug("dropping inbound message", "peer", c.ID, "err", err)
			continue
		}

		if err := relay.Submit(c.ID, action); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("failed to write message", "peer", c.ID, "err", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
