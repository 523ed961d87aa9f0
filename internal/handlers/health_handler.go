package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ConnectionCounter reports live websocket users.
type ConnectionCounter interface {
	Count() int
}

type HealthHandler struct {
	connections ConnectionCounter
}

func NewHealthHandler(connections ConnectionCounter) *HealthHandler {
	return &HealthHandler{connections: connections}
}

type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Connections: h.connections.Count()})
}
