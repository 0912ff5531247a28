package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gradnet/internal/domain"
	"gradnet/internal/repository"
)

const maxMessageLength = 4000

// MessageHandler maneja los mensajes directos entre miembros.
type MessageHandler struct {
	logger   *zap.Logger
	messages repository.MessageRepository
	users    repository.UserRepository
}

func NewMessageHandler(logger *zap.Logger, messages repository.MessageRepository, users repository.UserRepository) *MessageHandler {
	return &MessageHandler{logger: logger, messages: messages, users: users}
}

// ListConversations maneja GET /api/messages.
func (h *MessageHandler) ListConversations(c *gin.Context) {
	user, _ := CurrentUser(c)
	conversations, err := h.messages.ListConversations(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("list conversations failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load inbox"})
		return
	}
	if conversations == nil {
		conversations = []domain.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{"items": conversations})
}

// GetConversation maneja GET /api/messages/:peerID y marca como leido lo recibido.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	user, _ := CurrentUser(c)
	peerID, ok := parseID(c.Param("peerID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	page := pageFromQuery(c)

	messages, total, err := h.messages.ListConversation(c.Request.Context(), user.ID, peerID, page)
	if err != nil {
		h.logger.Error("list conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load conversation"})
		return
	}
	if err := h.messages.MarkRead(c.Request.Context(), user.ID, peerID, time.Now().UTC()); err != nil {
		h.logger.Warn("mark read failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, pageResponse(messages, page, total))
}

// SendMessage maneja POST /api/messages.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	user, _ := CurrentUser(c)
	var req struct {
		RecipientID string `json:"recipient_id" binding:"required"`
		Body        string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" || len(body) > maxMessageLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message body must be 1-4000 characters"})
		return
	}
	recipientID, ok := parseID(req.RecipientID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient_id"})
		return
	}
	if recipientID == user.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return
	}

	_, found, err := h.users.GetByID(c.Request.Context(), recipientID)
	if err != nil {
		h.logger.Error("lookup recipient failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipient not found"})
		return
	}

	msg := domain.DirectMessage{
		ID:          uuid.NewString(),
		SenderID:    user.ID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.messages.Create(c.Request.Context(), msg); err != nil {
		h.logger.Error("create message failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
