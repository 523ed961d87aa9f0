package handlers

import (
	"net/http"

	"talkio_backend/internal/services"
	"talkio_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService  *services.UserService
	blockService *services.BlockService
}

func NewUserHandler(base *BaseHandler, userService *services.UserService, blockService *services.BlockService) *UserHandler {
	return &UserHandler{
		BaseHandler:  base,
		userService:  userService,
		blockService: blockService,
	}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	user := rg.Group("/user", requireAuth)
	{
		user.GET("", h.GetProfile)
		user.PUT("", h.UpdateProfile)
	}

	users := rg.Group("/users", requireAuth)
	{
		users.POST("/block", h.Block)
		users.POST("/unblock", h.Unblock)
		users.GET("/blocked", h.Blocked)
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// --- Blocking ---

func (h *UserHandler) Block(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.BlockRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if _, err := h.blockService.Block(c.Request.Context(), userID, req.BlockedID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "User blocked successfully"})
}

func (h *UserHandler) Unblock(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.BlockRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.blockService.Unblock(c.Request.Context(), userID, req.BlockedID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "User unblocked successfully"})
}

func (h *UserHandler) Blocked(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	users, err := h.blockService.Blocked(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}
