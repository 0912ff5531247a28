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

// ForumHandler mantiene dependencias para el foro.
type ForumHandler struct {
	logger *zap.Logger
	forum  repository.ForumRepository
}

func NewForumHandler(logger *zap.Logger, forum repository.ForumRepository) *ForumHandler {
	return &ForumHandler{logger: logger, forum: forum}
}

// ListTopics maneja GET /api/forum/topics.
func (h *ForumHandler) ListTopics(c *gin.Context) {
	page := pageFromQuery(c)
	topics, total, err := h.forum.ListTopics(c.Request.Context(),
		strings.TrimSpace(c.Query("q")),
		strings.TrimSpace(c.Query("category")),
		page,
	)
	if err != nil {
		h.logger.Error("list topics failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load topics"})
		return
	}
	c.JSON(http.StatusOK, pageResponse(topics, page, total))
}

// CreateTopic maneja POST /api/forum/topics.
func (h *ForumHandler) CreateTopic(c *gin.Context) {
	user, _ := CurrentUser(c)
	var req struct {
		Title    string `json:"title" binding:"required,max=200"`
		Body     string `json:"body" binding:"required,max=5000"`
		Category string `json:"category" binding:"max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create topic request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	topic := domain.ForumTopic{
		ID:         uuid.NewString(),
		AuthorID:   user.ID,
		AuthorName: user.Name,
		Title:      strings.TrimSpace(req.Title),
		Body:       strings.TrimSpace(req.Body),
		Category:   strings.ToLower(strings.TrimSpace(req.Category)),
		CreatedAt:  time.Now().UTC(),
	}
	if topic.Title == "" || topic.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and body are required"})
		return
	}
	if err := h.forum.CreateTopic(c.Request.Context(), topic); err != nil {
		h.logger.Error("create topic failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create topic"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"topic": topic})
}

// GetTopic maneja GET /api/forum/topics/:id con sus respuestas paginadas.
func (h *ForumHandler) GetTopic(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "topic not found"})
		return
	}
	topic, found, err := h.forum.GetTopic(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get topic failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load topic"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "topic not found"})
		return
	}
	page := pageFromQuery(c)
	replies, total, err := h.forum.ListReplies(c.Request.Context(), id, page)
	if err != nil {
		h.logger.Error("list replies failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load topic"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"topic": topic, "replies": pageResponse(replies, page, total)})
}

// CreateReply maneja POST /api/forum/topics/:id/replies.
func (h *ForumHandler) CreateReply(c *gin.Context) {
	user, _ := CurrentUser(c)
	topicID, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "topic not found"})
		return
	}
	var req struct {
		Body string `json:"body" binding:"required,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if _, found, err := h.forum.GetTopic(c.Request.Context(), topicID); err != nil {
		h.logger.Error("get topic failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reply"})
		return
	} else if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "topic not found"})
		return
	}

	reply := domain.ForumReply{
		ID:         uuid.NewString(),
		TopicID:    topicID,
		AuthorID:   user.ID,
		AuthorName: user.Name,
		Body:       strings.TrimSpace(req.Body),
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.forum.CreateReply(c.Request.Context(), reply); err != nil {
		h.logger.Error("create reply failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reply"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reply": reply})
}
