package handlers

import (
	"net/http"

	"talkio_backend/internal/services"
	"talkio_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// MessageHandler serves message history. Sending, editing and deleting go
// through the websocket.
type MessageHandler struct {
	*BaseHandler
	queryService *services.MessageQueryService
}

func NewMessageHandler(base *BaseHandler, queryService *services.MessageQueryService) *MessageHandler {
	return &MessageHandler{
		BaseHandler:  base,
		queryService: queryService,
	}
}

func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	messages := rg.Group("/messages", requireAuth)
	{
		messages.GET("/unread/count", h.UnreadCount)
		messages.GET("/:friendId", h.History)
		messages.POST("/:id/read", h.MarkRead)
	}
}

func (h *MessageHandler) History(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	friendID, err := ParseParamUint(c, "friendId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	history, err := h.queryService.History(c.Request.Context(), userID, friendID, ParseQueryInt(c, "limit", 0))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	messageID, err := ParseParamUint(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if err := h.queryService.MarkRead(c.Request.Context(), userID, messageID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Message marked as read"})
}

func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	count, err := h.queryService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: count})
}
