package handlers

import (
	"net/http"

	"talkio_backend/internal/services"
	"talkio_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type FriendHandler struct {
	*BaseHandler
	friendService *services.FriendService
}

func NewFriendHandler(base *BaseHandler, friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{
		BaseHandler:   base,
		friendService: friendService,
	}
}

func (h *FriendHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	friends := rg.Group("/friends", requireAuth)
	{
		friends.GET("", h.Friends)
		friends.POST("/request", h.SendRequest)
		friends.GET("/requests", h.PendingRequests)
		friends.POST("/requests/:id/accept", h.Accept)
		friends.POST("/requests/:id/decline", h.Decline)
	}
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.FriendRequestRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if _, err := h.friendService.SendRequest(c.Request.Context(), userID, req.UniqueID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "Friend request sent successfully"})
}

func (h *FriendHandler) PendingRequests(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	requests, err := h.friendService.PendingRequests(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

func (h *FriendHandler) Accept(c *gin.Context) {
	h.respond(c, true)
}

func (h *FriendHandler) Decline(c *gin.Context) {
	h.respond(c, false)
}

func (h *FriendHandler) respond(c *gin.Context, accept bool) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	requestID, err := ParseParamUint(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	ctx := c.Request.Context()
	if accept {
		_, err = h.friendService.Accept(ctx, userID, requestID)
	} else {
		_, err = h.friendService.Decline(ctx, userID, requestID)
	}
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	msg := "Friend request declined"
	if accept {
		msg = "Friend request accepted"
	}
	c.JSON(http.StatusOK, MessageResponse{Message: msg})
}

func (h *FriendHandler) Friends(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	friends, err := h.friendService.Friends(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, friends)
}
