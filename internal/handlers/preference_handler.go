package handlers

import (
	"net/http"

	"talkio_backend/internal/services"
	"talkio_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PreferenceHandler struct {
	*BaseHandler
	preferenceService *services.PreferenceService
}

func NewPreferenceHandler(base *BaseHandler, preferenceService *services.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{
		BaseHandler:       base,
		preferenceService: preferenceService,
	}
}

func (h *PreferenceHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	prefs := rg.Group("/preferences", requireAuth)
	{
		prefs.GET("", h.Get)
		prefs.PUT("", h.Update)
	}
}

func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	pref, err := h.preferenceService.Get(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pref)
}

func (h *PreferenceHandler) Update(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdatePreferenceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	pref, err := h.preferenceService.Update(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pref)
}
