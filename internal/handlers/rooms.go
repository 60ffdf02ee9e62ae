package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/room-relay/internal/middleware"
	"github.com/mossy-p/room-relay/internal/models"
	"github.com/mossy-p/room-relay/internal/signaling"
)

// ListRooms returns the advertised room list (public)
func ListRooms(registry *signaling.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.RoomList{Rooms: registry.ListValidRoomIDs()})
	}
}

// GetRoom returns occupancy for one live room (public). Unlisted rooms are
// reported too, since anyone holding the name can already join them.
func GetRoom(registry *signaling.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := signaling.RoomID(c.Param("roomId"))

		peers := registry.PeersInRoom(roomID)
		if len(peers) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}

		c.JSON(http.StatusOK, models.RoomInfo{
			ID:        roomID,
			PeerCount: len(peers),
			Listed:    signaling.IsValidRoomID(string(roomID)),
		})
	}
}

// CreateRoom mints a room ID that will be advertised once someone joins it
// (requires authentication). Nothing is stored until the first join.
func CreateRoom(c *gin.Context) {
	roomID := signaling.NewRoomID()
	slog.Info("room id issued", "room", roomID, "user", c.GetString(middleware.UserIDKey))

	c.JSON(http.StatusCreated, models.CreateRoomResponse{RoomID: roomID})
}

// Health reports liveness and current occupancy
func Health(registry *signaling.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Stats{
			Status: "ok",
			Peers:  registry.PeerCount(),
			Rooms:  registry.RoomCount(),
		})
	}
}
