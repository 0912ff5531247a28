package domain

import (
	"errors"
	"strings"
	"time"
)

// SessionState es el estado del flujo de autenticacion de un cliente.
type SessionState string

const (
	SessionAnonymous     SessionState = "anonymous"
	SessionPendingOTP    SessionState = "pending_otp"
	SessionAuthenticated SessionState = "authenticated"
)

var ErrSessionInvalid = errors.New("session state invalid")

// Session guarda el progreso de login de un cliente. Solo los constructores
// y metodos de transicion producen combinaciones validas.
type Session struct {
	ID           string        `json:"id"`
	State        SessionState  `json:"state"`
	PendingEmail string        `json:"pending_email,omitempty"`
	OTPSent      bool          `json:"otp_sent,omitempty"`
	User         *UserSnapshot `json:"user,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

func NewAnonymousSession(id string, now time.Time, ttl time.Duration) Session {
	return Session{
		ID:        id,
		State:     SessionAnonymous,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// PendingOTP mueve la sesion a la espera del codigo enviado a email.
func (s Session) PendingOTP(email string, sent bool) Session {
	next := s.reset()
	next.State = SessionPendingOTP
	next.PendingEmail = email
	next.OTPSent = sent
	return next
}

// Authenticated eleva la sesion y limpia los datos del paso OTP.
func (s Session) Authenticated(user UserSnapshot) Session {
	next := s.reset()
	next.State = SessionAuthenticated
	next.User = &user
	return next
}

// Anonymous descarta cualquier progreso conservando id y vencimiento.
func (s Session) Anonymous() Session {
	return s.reset()
}

func (s Session) reset() Session {
	return Session{
		ID:        s.ID,
		State:     SessionAnonymous,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func (s Session) IsAuthenticated() bool {
	return s.State == SessionAuthenticated && s.User != nil
}

// AwaitingOTP indica si la sesion puede verificar un codigo.
func (s Session) AwaitingOTP() bool {
	return s.State == SessionPendingOTP && strings.TrimSpace(s.PendingEmail) != ""
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Validate rechaza combinaciones ilegales de estado y campos.
func (s Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrSessionInvalid
	}
	switch s.State {
	case SessionAnonymous:
		if s.PendingEmail != "" || s.User != nil || s.OTPSent {
			return ErrSessionInvalid
		}
	case SessionPendingOTP:
		if strings.TrimSpace(s.PendingEmail) == "" || s.User != nil {
			return ErrSessionInvalid
		}
	case SessionAuthenticated:
		if s.User == nil || s.User.ID == "" || s.PendingEmail != "" {
			return ErrSessionInvalid
		}
	default:
		return ErrSessionInvalid
	}
	return nil
}
