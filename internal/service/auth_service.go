package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gradnet/internal/domain"
	"gradnet/internal/email"
	"gradnet/internal/metrics"
	"gradnet/internal/repository"
)

const (
	defaultOTPTTL     = 10 * time.Minute
	defaultSessionTTL = 24 * time.Hour

	otpCodeMin    = 100000
	otpCodeSpan   = 900000
	otpCodeDigits = 6
)

// AuthOptions agrupa los parametros ajustables del flujo de login.
type AuthOptions struct {
	OTPTTL     time.Duration
	SessionTTL time.Duration
	// FailOnDeliveryError hace que Initiate falle si el correo no sale;
	// en false solo se registra y el resultado lo indica con Delivered.
	FailOnDeliveryError bool
}

// AuthService coordina emision y verificacion de OTP y las transiciones de sesion.
type AuthService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	otps     repository.OTPRepository
	tx       repository.TxManager
	sender   email.Sender
	sessions SessionStore
	limiter  OTPRateLimiter
	opts     AuthOptions
	now      func() time.Time
	newID    func() string
}

func NewAuthService(
	logger *zap.Logger,
	users repository.UserRepository,
	otps repository.OTPRepository,
	tx repository.TxManager,
	sender email.Sender,
	sessions SessionStore,
	limiter OTPRateLimiter,
	opts AuthOptions,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = defaultOTPTTL
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}
	return &AuthService{
		logger:   logger,
		users:    users,
		otps:     otps,
		tx:       tx,
		sender:   sender,
		sessions: sessions,
		limiter:  limiter,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// InitiateResult describe una emision de OTP.
type InitiateResult struct {
	Email       string
	MaskedEmail string
	Delivered   bool
	Session     domain.Session
}

// ResolveSession carga la sesion id o devuelve una anonima nueva si no existe o vencio.
func (s *AuthService) ResolveSession(ctx context.Context, id string) (domain.Session, error) {
	now := s.now()
	if strings.TrimSpace(id) != "" {
		session, found, err := s.sessions.Get(ctx, id)
		if err != nil {
			return domain.Session{}, fmt.Errorf("%w: load session: %w", ErrSession, err)
		}
		if found && !session.Expired(now) {
			return session, nil
		}
	}
	return domain.NewAnonymousSession(s.newID(), now, s.opts.SessionTTL), nil
}

// Initiate emite un OTP para el usuario con el USN dado y deja la sesion esperando el codigo.
func (s *AuthService) Initiate(ctx context.Context, session domain.Session, usn string) (InitiateResult, error) {
	usn = domain.NormalizeUSN(usn)
	if usn == "" {
		return InitiateResult{}, validationErr("usn is required")
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, usn) {
		return InitiateResult{}, ErrRateLimited
	}

	user, found, err := s.users.GetByUSN(ctx, usn)
	if err != nil {
		return InitiateResult{}, storageErr("find user by usn", err)
	}
	if !found {
		return InitiateResult{}, ErrUserNotFound
	}

	if purged, err := s.otps.PurgeStale(ctx, s.now()); err != nil {
		s.logger.Warn("purge stale otps failed", zap.Error(err))
	} else if purged > 0 {
		s.logger.Debug("purged stale otps", zap.Int64("count", purged))
	}

	code, err := generateOTPCode()
	if err != nil {
		return InitiateResult{}, err
	}
	otp, err := s.otps.CreateForEmail(ctx, user.Email, code, domain.OTPPurposeLogin, s.opts.OTPTTL)
	if err != nil {
		return InitiateResult{}, storageErr("create otp", err)
	}
	metrics.OTPIssuedTotal.Inc()

	masked := domain.MaskEmail(user.Email)
	delivered := true
	if err := s.deliver(ctx, user, code, otp.ExpiresAt); err != nil {
		delivered = false
		metrics.EmailDeliveryFailuresTotal.Inc()
		if s.opts.FailOnDeliveryError {
			s.logger.Error("otp delivery failed", zap.Error(err), zap.String("email", masked))
			if delErr := s.otps.DeleteByEmail(ctx, user.Email); delErr != nil {
				s.logger.Warn("discard undelivered otp failed", zap.Error(delErr), zap.String("email", masked))
			}
			return InitiateResult{}, fmt.Errorf("%w: %w", ErrDelivery, err)
		}
		s.logger.Warn("otp delivery failed, code kept", zap.Error(err), zap.String("email", masked))
	}

	next := session.PendingOTP(user.Email, delivered)
	if err := s.sessions.Save(ctx, next); err != nil {
		// sin sesion pendiente el codigo enviado no se puede canjear
		if delErr := s.otps.DeleteByEmail(ctx, user.Email); delErr != nil {
			s.logger.Warn("discard orphaned otp failed", zap.Error(delErr), zap.String("email", masked))
		}
		return InitiateResult{}, fmt.Errorf("%w: save session: %w", ErrSession, err)
	}

	s.logger.Info("otp issued", zap.String("usn", usn), zap.String("email", masked), zap.Bool("delivered", delivered))
	return InitiateResult{
		Email:       user.Email,
		MaskedEmail: masked,
		Delivered:   delivered,
		Session:     next,
	}, nil
}

func (s *AuthService) deliver(ctx context.Context, user domain.User, code string, expiresAt time.Time) error {
	if s.sender == nil {
		return errors.New("email sender not configured")
	}
	return s.sender.Send(ctx, email.NewOTPMessage(user.Email, user.Name, code, expiresAt))
}

// Verify consume el OTP pendiente de la sesion y la eleva a autenticada con un id nuevo.
// Ante cualquier error la sesion devuelta es la original y el OTP queda como estaba.
func (s *AuthService) Verify(ctx context.Context, session domain.Session, code string) (domain.UserSnapshot, domain.Session, error) {
	if !session.AwaitingOTP() {
		metrics.OTPVerifyTotal.WithLabelValues("invalid_state").Inc()
		return domain.UserSnapshot{}, session, ErrInvalidState
	}
	code = strings.TrimSpace(code)
	if !isValidOTPCode(code) {
		metrics.OTPVerifyTotal.WithLabelValues("invalid_code").Inc()
		return domain.UserSnapshot{}, session, ErrInvalidCode
	}

	emailAddr := session.PendingEmail
	var (
		snapshot domain.UserSnapshot
		next     domain.Session
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		now := s.now()
		otp, found, err := s.otps.FindValid(ctx, emailAddr, now)
		if err != nil {
			return storageErr("find valid otp", err)
		}
		if !found {
			return ErrNoValidOTP
		}
		if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
			return ErrInvalidCode
		}
		consumed, err := s.otps.MarkUsedIfValid(ctx, otp.ID, now)
		if err != nil {
			return storageErr("mark otp used", err)
		}
		if !consumed {
			return ErrNoValidOTP
		}

		user, found, err := s.users.GetByEmail(ctx, emailAddr)
		if err != nil {
			return storageErr("find user by email", err)
		}
		if !found {
			return ErrUserNotFound
		}
		if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
			return storageErr("touch last login", err)
		}

		snapshot = user.Snapshot()
		next = session.Authenticated(snapshot)
		next.ID = s.newID()
		next.CreatedAt = now
		next.ExpiresAt = now.Add(s.opts.SessionTTL)
		if err := s.sessions.Save(ctx, next); err != nil {
			return fmt.Errorf("%w: save session: %w", ErrSession, err)
		}
		return nil
	})
	if err != nil {
		metrics.OTPVerifyTotal.WithLabelValues(verifyResult(err)).Inc()
		return domain.UserSnapshot{}, session, err
	}

	if err := s.sessions.Destroy(ctx, session.ID); err != nil {
		s.logger.Warn("destroy pre-login session failed", zap.Error(err))
	}
	metrics.OTPVerifyTotal.WithLabelValues("success").Inc()
	s.logger.Info("login verified", zap.String("user_id", snapshot.ID))
	return snapshot, next, nil
}

// Logout destruye la sesion sin importar su estado.
func (s *AuthService) Logout(ctx context.Context, session domain.Session) error {
	if err := s.sessions.Destroy(ctx, session.ID); err != nil {
		return fmt.Errorf("%w: destroy session: %w", ErrSession, err)
	}
	return nil
}

// SessionView es lo que el cliente puede ver de su sesion.
type SessionView struct {
	State       domain.SessionState  `json:"state"`
	MaskedEmail string               `json:"masked_email,omitempty"`
	OTPSent     bool                 `json:"otp_sent,omitempty"`
	User        *domain.UserSnapshot `json:"user,omitempty"`
}

// Current resume la sesion sin exponer el correo completo pendiente.
func (s *AuthService) Current(_ context.Context, session domain.Session) SessionView {
	view := SessionView{State: domain.SessionAnonymous}
	switch {
	case session.IsAuthenticated():
		view.State = domain.SessionAuthenticated
		user := *session.User
		view.User = &user
	case session.AwaitingOTP():
		view.State = domain.SessionPendingOTP
		view.MaskedEmail = domain.MaskEmail(session.PendingEmail)
		view.OTPSent = session.OTPSent
	}
	return view
}

func verifyResult(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, ErrNoValidOTP):
		return "no_valid_otp"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	default:
		return "error"
	}
}

// generateOTPCode devuelve un entero uniforme en [100000, 999999].
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpCodeSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+otpCodeMin), nil
}

func isValidOTPCode(code string) bool {
	if len(code) != otpCodeDigits {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
