package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mossy-p/room-relay/config"
	"github.com/mossy-p/room-relay/internal/middleware"
	"github.com/mossy-p/room-relay/internal/signaling"
)

// NewRouter builds the HTTP surface around relay.
func NewRouter(cfg *config.Config, relay *signaling.Relay, conns *Connections) *gin.Engine {
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if !cfg.Production() {
		router.Use(gin.Logger())
	}

	// Global CORS middleware (runs before routing)
	router.Use(OriginFilter(cfg.AllowedOrigins))

	registry := relay.Registry()
	router.GET("/health", Health(registry))

	apiGroup := router.Group("/api")
	{
		// Login endpoint (public)
		apiGroup.POST("/auth/login", Login(cfg.JWTSecret))

		// Advertised rooms (public)
		apiGroup.GET("/rooms", ListRooms(registry))
		apiGroup.GET("/rooms/:roomId", GetRoom(registry))

		// Mint a room ID (requires JWT)
		apiGroup.POST("/rooms", middleware.JWTAuth(cfg.JWTSecret), CreateRoom)
	}

	opts := SignalingOptions{
		MaxMessageBytes: cfg.Signaling.MaxMessageBytes,
		SendBuffer:      cfg.Signaling.SendBuffer,
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}

	wsGroup := router.Group("/ws")
	if cfg.RequireAuth {
		wsGroup.Use(middleware.JWTAuth(cfg.JWTSecret))
	}
	wsGroup.GET("/signal", HandleSignaling(relay, conns, opts))

	return router
}
