package http

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gradnet/internal/domain"
	"gradnet/internal/repository"
)

const maxPostLength = 2000

// FeedHandler mantiene dependencias para el muro de publicaciones.
type FeedHandler struct {
	logger *zap.Logger
	posts  repository.PostRepository
}

func NewFeedHandler(logger *zap.Logger, posts repository.PostRepository) *FeedHandler {
	return &FeedHandler{logger: logger, posts: posts}
}

// ListFeed maneja GET /api/feed.
func (h *FeedHandler) ListFeed(c *gin.Context) {
	page := pageFromQuery(c)
	author := strings.TrimSpace(c.Query("author"))
	if author != "" {
		var ok bool
		if author, ok = parseID(author); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author"})
			return
		}
	}
	posts, total, err := h.posts.ListRecent(c.Request.Context(), author, page)
	if err != nil {
		h.logger.Error("list feed failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load feed"})
		return
	}
	c.JSON(http.StatusOK, pageResponse(posts, page, total))
}

// CreatePost maneja POST /api/posts.
func (h *FeedHandler) CreatePost(c *gin.Context) {
	user, _ := CurrentUser(c)
	var req struct {
		Content  string `json:"content" binding:"required"`
		ImageKey string `json:"image_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create post request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" || utf8.RuneCountInString(content) > maxPostLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must be 1-2000 characters"})
		return
	}
	if req.ImageKey != "" && !strings.HasPrefix(req.ImageKey, "users/"+user.ID+"/post/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image does not belong to user"})
		return
	}

	post := domain.Post{
		ID:         uuid.NewString(),
		AuthorID:   user.ID,
		AuthorName: user.Name,
		Content:    content,
		ImageKey:   req.ImageKey,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.posts.Create(c.Request.Context(), post); err != nil {
		h.logger.Error("create post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create post"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// DeletePost maneja DELETE /api/posts/:id; solo el autor puede borrar.
func (h *FeedHandler) DeletePost(c *gin.Context) {
	user, _ := CurrentUser(c)
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	post, found, err := h.posts.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete post"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if post.AuthorID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the author"})
		return
	}
	deleted, err := h.posts.Delete(c.Request.Context(), id, user.ID)
	if err != nil {
		h.logger.Error("delete post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete post"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
