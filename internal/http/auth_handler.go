package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradnet/internal/service"
)

// AuthHandler expone el login por USN y codigo de un solo uso.
type AuthHandler struct {
	logger      *zap.Logger
	auth        *service.AuthService
	gate        *SessionGate
	landingPath string
}

func NewAuthHandler(logger *zap.Logger, auth *service.AuthService, gate *SessionGate) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		auth:        auth,
		gate:        gate,
		landingPath: gate.opts.LandingPath,
	}
}

// SubmitAuthInfo maneja POST /submit-auth-info.
func (h *AuthHandler) SubmitAuthInfo(c *gin.Context) {
	var req struct {
		USN string `json:"usn" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid auth info request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_usn"})
		return
	}
	session, _ := CurrentSession(c)

	res, err := h.auth.Initiate(c.Request.Context(), session, req.USN)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_usn"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_not_found"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too_many_requests"})
		case errors.Is(err, service.ErrDelivery):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email_delivery_unavailable"})
		default:
			h.logger.Error("initiate login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start login"})
		}
		return
	}

	if err := h.gate.Commit(c, res.Session); err != nil {
		h.logger.Error("set session cookie failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start login"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"email":        res.Email,
		"masked_email": res.MaskedEmail,
		"delivered":    res.Delivered,
	})
}

// VerifyOTP maneja POST /otp-auth.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		OTP string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_otp"})
		return
	}
	session, _ := CurrentSession(c)

	user, next, err := h.auth.Verify(c.Request.Context(), session, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidState):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state", "redirect": h.gate.opts.LoginPath})
		case errors.Is(err, service.ErrInvalidCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_otp"})
		case errors.Is(err, service.ErrNoValidOTP):
			c.JSON(http.StatusBadRequest, gin.H{"error": "otp_expired"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_not_found"})
		default:
			h.logger.Error("verify otp failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify otp"})
		}
		return
	}

	if err := h.gate.Commit(c, next); err != nil {
		h.logger.Error("set session cookie failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete login"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "redirect": h.landingPath})
}

// Logout maneja POST /logout. La cookie se borra aunque falle el store.
func (h *AuthHandler) Logout(c *gin.Context) {
	session, _ := CurrentSession(c)
	if err := h.auth.Logout(c.Request.Context(), session); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
	}
	h.gate.Clear(c)
	c.JSON(http.StatusOK, gin.H{"redirect": "/"})
}

// Session maneja GET /auth/session.
func (h *AuthHandler) Session(c *gin.Context) {
	session, _ := CurrentSession(c)
	c.JSON(http.StatusOK, h.auth.Current(c.Request.Context(), session))
}
