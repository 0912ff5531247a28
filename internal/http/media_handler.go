package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradnet/internal/service"
)

type MediaHandler struct {
	logger *zap.Logger
	media  *service.MediaService
}

func NewMediaHandler(logger *zap.Logger, media *service.MediaService) *MediaHandler {
	return &MediaHandler{logger: logger, media: media}
}

// Presign maneja POST /api/media/presign.
func (h *MediaHandler) Presign(c *gin.Context) {
	user, _ := CurrentUser(c)
	var req struct {
		Kind        string `json:"kind" binding:"required"`
		ContentType string `json:"content_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	upload, err := h.media.CreateUpload(c.Request.Context(), user.ID, req.Kind, req.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrMediaDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media uploads disabled"})
		default:
			h.logger.Error("presign upload failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not prepare upload"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload": upload})
}
