package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradnet/internal/domain"
	"gradnet/internal/service"
)

const sessionKey = "gradnet_session"

// CookieOptions controla la cookie de sesion y las redirecciones del gate.
type CookieOptions struct {
	Name        string
	Secure      bool
	LandingPath string
	LoginPath   string
}

// SessionGate resuelve la sesion de cada peticion y protege rutas por estado.
type SessionGate struct {
	logger *zap.Logger
	auth   *service.AuthService
	tokens *service.SessionTokenService
	opts   CookieOptions
}

func NewSessionGate(logger *zap.Logger, auth *service.AuthService, tokens *service.SessionTokenService, opts CookieOptions) *SessionGate {
	if opts.Name == "" {
		opts.Name = "gradnet_session"
	}
	if opts.LandingPath == "" {
		opts.LandingPath = "/feed"
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	return &SessionGate{logger: logger, auth: auth, tokens: tokens, opts: opts}
}

// LoadSession lee la cookie firmada y deja la sesion en el contexto. Una
// cookie ausente, invalida o vencida produce una sesion anonima nueva.
func (g *SessionGate) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sessionID string
		if raw, err := c.Cookie(g.opts.Name); err == nil && raw != "" {
			sid, err := g.tokens.Parse(raw)
			if err != nil {
				g.logger.Debug("discarding session cookie", zap.Error(err))
				g.Clear(c)
			} else {
				sessionID = sid
			}
		}

		session, err := g.auth.ResolveSession(c.Request.Context(), sessionID)
		if err != nil {
			g.logger.Error("load session failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireAuthenticated corta con 401 si la sesion no esta autenticada.
func (g *SessionGate) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := CurrentSession(c)
		if !ok || !session.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "unauthenticated",
				"redirect": g.opts.LoginPath,
			})
			return
		}
		c.Next()
	}
}

// RequireAnonymous redirige a la portada a quien ya inicio sesion.
func (g *SessionGate) RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session, ok := CurrentSession(c); ok && session.IsAuthenticated() {
			c.Header("Location", g.opts.LandingPath)
			c.AbortWithStatusJSON(http.StatusSeeOther, gin.H{"redirect": g.opts.LandingPath})
			return
		}
		c.Next()
	}
}

// Commit firma el id de sesion en la cookie y actualiza el contexto.
func (g *SessionGate) Commit(c *gin.Context, session domain.Session) error {
	token, err := g.tokens.Sign(session.ID, session.ExpiresAt)
	if err != nil {
		return err
	}
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(g.opts.Name, token, maxAge, "/", "", g.opts.Secure, true)
	c.Set(sessionKey, session)
	return nil
}

// Clear borra la cookie de sesion del cliente.
func (g *SessionGate) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(g.opts.Name, "", -1, "/", "", g.opts.Secure, true)
}

// CurrentSession obtiene la sesion cargada por LoadSession.
func CurrentSession(c *gin.Context) (domain.Session, bool) {
	val, ok := c.Get(sessionKey)
	if !ok {
		return domain.Session{}, false
	}
	session, ok := val.(domain.Session)
	return session, ok
}

// CurrentUser devuelve el usuario de una sesion autenticada.
func CurrentUser(c *gin.Context) (domain.UserSnapshot, bool) {
	session, ok := CurrentSession(c)
	if !ok || !session.IsAuthenticated() {
		return domain.UserSnapshot{}, false
	}
	return *session.User, true
}
