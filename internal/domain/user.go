package domain

import (
	"strings"
	"time"
)

// Role enumera los perfiles de la comunidad.
type Role string

const (
	RoleCurrentStudent Role = "current_student"
	RoleAlumni         Role = "alumni"
	RoleFaculty        Role = "faculty"
	RoleAdmin          Role = "admin"
)

// Valid indica si el rol pertenece al conjunto conocido.
func (r Role) Valid() bool {
	switch r {
	case RoleCurrentStudent, RoleAlumni, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID             string     `json:"id"`
	USN            string     `json:"usn"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Role           Role       `json:"role"`
	Bio            string     `json:"bio,omitempty"`
	Department     string     `json:"department,omitempty"`
	GraduationYear *int       `json:"graduation_year,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	SocialLink     string     `json:"social_link,omitempty"`
	PictureKey     string     `json:"picture_key,omitempty"`
	BannerKey      string     `json:"banner_key,omitempty"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Snapshot devuelve la vista minima que se guarda en la sesion.
func (u User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// UserSnapshot es la copia del usuario cacheada en una sesion autenticada.
type UserSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// ProfileUpdate contiene los campos editables del perfil; nil significa sin cambios.
type ProfileUpdate struct {
	Name           *string
	Bio            *string
	Department     *string
	GraduationYear *int
	Phone          *string
	SocialLink     *string
	PictureKey     *string
	BannerKey      *string
}

// UserFilter filtra la busqueda del directorio.
type UserFilter struct {
	Query      string
	Role       Role
	Department string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeUSN(usn string) string {
	return strings.ToUpper(strings.TrimSpace(usn))
}

// MaskEmail oculta la parte local del correo para mostrarlo en pantalla.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return email
	}
	local, domainPart := email[:at], email[at:]
	if len(local) == 1 {
		return local + "***" + domainPart
	}
	return local[:1] + "***" + local[len(local)-1:] + domainPart
}
