package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradnet/internal/domain"
	"gradnet/internal/service"
)

// ProfileHandler expone el perfil propio y el directorio de miembros.
type ProfileHandler struct {
	logger *zap.Logger
	users  *service.UserService
	media  *service.MediaService
}

func NewProfileHandler(logger *zap.Logger, users *service.UserService, media *service.MediaService) *ProfileHandler {
	return &ProfileHandler{logger: logger, users: users, media: media}
}

type profileResponse struct {
	domain.User
	PictureURL string `json:"picture_url,omitempty"`
	BannerURL  string `json:"banner_url,omitempty"`
}

// GetProfile maneja GET /api/profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	current, _ := CurrentUser(c)
	h.respondUser(c, current.ID)
}

// GetUser maneja GET /api/users/:id.
func (h *ProfileHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	h.respondUser(c, id)
}

func (h *ProfileHandler) respondUser(c *gin.Context, id string) {
	user, err := h.users.GetProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": h.withMedia(c, user)})
}

// UpdateProfile maneja PUT /api/profile; los campos omitidos no cambian.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	current, _ := CurrentUser(c)
	var req struct {
		Name           *string `json:"name"`
		Bio            *string `json:"bio"`
		Department     *string `json:"department"`
		GraduationYear *int    `json:"graduation_year"`
		Phone          *string `json:"phone"`
		SocialLink     *string `json:"social_link"`
		PictureKey     *string `json:"picture_key"`
		BannerKey      *string `json:"banner_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid profile update", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), current.ID, domain.ProfileUpdate{
		Name:           req.Name,
		Bio:            req.Bio,
		Department:     req.Department,
		GraduationYear: req.GraduationYear,
		Phone:          req.Phone,
		SocialLink:     req.SocialLink,
		PictureKey:     req.PictureKey,
		BannerKey:      req.BannerKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			h.logger.Error("update profile failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": h.withMedia(c, user)})
}

// SearchUsers maneja GET /api/users.
func (h *ProfileHandler) SearchUsers(c *gin.Context) {
	page := pageFromQuery(c)
	filter := domain.UserFilter{
		Query:      c.Query("q"),
		Role:       domain.Role(strings.ToLower(strings.TrimSpace(c.Query("role")))),
		Department: c.Query("department"),
	}
	users, total, err := h.users.Search(c.Request.Context(), filter, page)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("search users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search users"})
		return
	}
	c.JSON(http.StatusOK, pageResponse(users, page, total))
}

func (h *ProfileHandler) withMedia(c *gin.Context, user domain.User) profileResponse {
	resp := profileResponse{User: user}
	if !h.media.Enabled() {
		return resp
	}
	var err error
	if resp.PictureURL, err = h.media.DownloadURL(c.Request.Context(), user.PictureKey); err != nil {
		h.logger.Warn("presign picture failed", zap.Error(err))
	}
	if resp.BannerURL, err = h.media.DownloadURL(c.Request.Context(), user.BannerKey); err != nil {
		h.logger.Warn("presign banner failed", zap.Error(err))
	}
	return resp
}
