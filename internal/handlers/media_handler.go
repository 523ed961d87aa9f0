package handlers

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"talkio_backend/internal/logger"
	"talkio_backend/internal/services"
	"talkio_backend/internal/services/dto"
	"talkio_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	*BaseHandler
	mediaService *services.MediaService
	serveLocal   bool
}

// NewMediaHandler serves stored files itself only when serveLocal is set;
// remote stores hand out their own URLs.
func NewMediaHandler(base *BaseHandler, mediaService *services.MediaService, serveLocal bool) *MediaHandler {
	return &MediaHandler{
		BaseHandler:  base,
		mediaService: mediaService,
		serveLocal:   serveLocal,
	}
}

func (h *MediaHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	media := rg.Group("/media")
	{
		media.POST("/voice", requireAuth, h.UploadVoice)
		if h.serveLocal {
			media.GET("/*path", h.Serve)
		}
	}
}

func (h *MediaHandler) UploadVoice(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("Multipart field 'file' is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("Failed to read upload"))
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	url, err := h.mediaService.UploadVoice(c.Request.Context(), userID, fh.Filename, contentType, fh.Size, f)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.UploadResponse{URL: url})
}

func (h *MediaHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")

	rc, err := h.mediaService.Open(c.Request.Context(), key)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logger.CtxWithError(c.Request.Context(), "failed to stream media", err, "key", key)
	}
}
