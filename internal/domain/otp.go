package domain

import "time"

const OTPPurposeLogin = "login"

// OTP es un codigo de un solo uso emitido para un correo.
type OTP struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"is_used"`
	CreatedAt time.Time `json:"created_at"`
}

func (o OTP) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// IsValid indica si el codigo aun puede consumirse.
func (o OTP) IsValid(now time.Time) bool {
	return !o.Used && !o.IsExpired(now)
}
