package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gradnet/internal/metrics"
)

// Handlers agrupa lo que NewRouter necesita para montar las rutas.
type Handlers struct {
	Gate     *SessionGate
	Auth     *AuthHandler
	Feed     *FeedHandler
	Forum    *ForumHandler
	Profile  *ProfileHandler
	Messages *MessageHandler
	Media    *MediaHandler
	// Health revisa dependencias para /healthz; nil responde siempre ok.
	Health func(ctx context.Context) error
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(logger *zap.Logger, h Handlers) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, metricas y recovery.
	r.Use(zapLoggerMiddleware(logger), metricsMiddleware(), gin.Recovery())

	r.GET("/healthz", healthHandler(h.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	app := r.Group("/", jsonContentTypeMiddleware(), h.Gate.LoadSession())
	app.GET("/auth/session", h.Auth.Session)

	guest := app.Group("/", h.Gate.RequireAnonymous())
	guest.POST("/submit-auth-info", h.Auth.SubmitAuthInfo)
	guest.POST("/otp-auth", h.Auth.VerifyOTP)

	authed := app.Group("/", h.Gate.RequireAuthenticated())
	authed.POST("/logout", h.Auth.Logout)

	api := authed.Group("/api")
	api.GET("/feed", h.Feed.ListFeed)
	api.POST("/posts", h.Feed.CreatePost)
	api.DELETE("/posts/:id", h.Feed.DeletePost)

	api.GET("/forum/topics", h.Forum.ListTopics)
	api.POST("/forum/topics", h.Forum.CreateTopic)
	api.GET("/forum/topics/:id", h.Forum.GetTopic)
	api.POST("/forum/topics/:id/replies", h.Forum.CreateReply)

	api.GET("/profile", h.Profile.GetProfile)
	api.PUT("/profile", h.Profile.UpdateProfile)
	api.GET("/users", h.Profile.SearchUsers)
	api.GET("/users/:id", h.Profile.GetUser)

	api.GET("/messages", h.Messages.ListConversations)
	api.POST("/messages", h.Messages.SendMessage)
	api.GET("/messages/:peerID", h.Messages.GetConversation)

	api.POST("/media/presign", h.Media.Presign)

	return r
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// metricsMiddleware registra la latencia etiquetada por ruta registrada.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
