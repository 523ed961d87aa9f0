package routes

import (
	"talkio_backend/internal/logger"
	"talkio_backend/ws"

	"github.com/gin-gonic/gin"
)

// SetupWebSocketRoutes mounts the hub on /ws. Clients authenticate in-band
// with the first event, so no HTTP auth middleware sits in front of it.
func SetupWebSocketRoutes(r *gin.Engine, hub *ws.Hub) {
	r.GET("/ws", hub.ServeWS)
	logger.Info("WebSocket route /ws registered")
}
