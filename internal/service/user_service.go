package service

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gradnet/internal/domain"
	"gradnet/internal/repository"
)

const (
	maxBioLength    = 500
	maxNameLength   = 120
	minGraduationYr = 1950
)

// UserService coordina reglas de negocio para usuarios.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
	now    func() time.Time
}

func NewUserService(logger *zap.Logger, users repository.UserRepository) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		logger: logger,
		users:  users,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type CreateUserInput struct {
	USN            string
	Name           string
	Email          string
	Role           domain.Role
	Department     string
	GraduationYear *int
	Password       string
}

// CreateUser da de alta un miembro; la contrasena es opcional y se guarda con bcrypt.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (domain.User, error) {
	usn := domain.NormalizeUSN(input.USN)
	emailAddr := domain.NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if usn == "" {
		return domain.User{}, validationErr("usn is required")
	}
	if name == "" {
		return domain.User{}, validationErr("name is required")
	}
	if _, err := mail.ParseAddress(emailAddr); err != nil || emailAddr == "" {
		return domain.User{}, validationErr("invalid email %q", input.Email)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleCurrentStudent
	}
	if !role.Valid() {
		return domain.User{}, validationErr("invalid role %q", role)
	}
	if err := s.checkGraduationYear(input.GraduationYear); err != nil {
		return domain.User{}, err
	}

	var passwordHash string
	if password := strings.TrimSpace(input.Password); password != "" {
		hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return domain.User{}, err
		}
		passwordHash = string(hashBytes)
	}

	now := s.now()
	user := domain.User{
		ID:             uuid.NewString(),
		USN:            usn,
		Name:           name,
		Email:          emailAddr,
		PasswordHash:   passwordHash,
		Role:           role,
		Department:     strings.TrimSpace(input.Department),
		GraduationYear: input.GraduationYear,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, storageErr("create user", err)
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("usn", usn))
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, id string) (domain.User, error) {
	user, found, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, storageErr("get user", err)
	}
	if !found {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile aplica solo los campos presentes; las claves de imagen deben
// pertenecer al prefijo del propio usuario.
func (s *UserService) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.User, error) {
	if err := s.validateProfile(id, &update); err != nil {
		return domain.User{}, err
	}
	user, found, err := s.users.UpdateProfile(ctx, id, update, s.now())
	if err != nil {
		return domain.User{}, storageErr("update profile", err)
	}
	if !found {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

// Search lista el directorio de miembros.
func (s *UserService) Search(ctx context.Context, filter domain.UserFilter, page domain.Page) ([]domain.User, int, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Department = strings.TrimSpace(filter.Department)
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, 0, validationErr("invalid role %q", filter.Role)
	}
	users, total, err := s.users.Search(ctx, filter, page)
	if err != nil {
		return nil, 0, storageErr("search users", err)
	}
	return users, total, nil
}

func (s *UserService) validateProfile(id string, update *domain.ProfileUpdate) error {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" || utf8.RuneCountInString(name) > maxNameLength {
			return validationErr("name must be 1-%d characters", maxNameLength)
		}
		update.Name = &name
	}
	if update.Bio != nil && utf8.RuneCountInString(*update.Bio) > maxBioLength {
		return validationErr("bio must be at most %d characters", maxBioLength)
	}
	if update.SocialLink != nil && *update.SocialLink != "" {
		u, err := url.Parse(*update.SocialLink)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return validationErr("social link must be an http(s) url")
		}
	}
	if err := s.checkGraduationYear(update.GraduationYear); err != nil {
		return err
	}
	prefix := "users/" + id + "/"
	for _, key := range []*string{update.PictureKey, update.BannerKey} {
		if key != nil && *key != "" && !strings.HasPrefix(*key, prefix) {
			return validationErr("media key does not belong to user")
		}
	}
	return nil
}

func (s *UserService) checkGraduationYear(year *int) error {
	if year == nil {
		return nil
	}
	if *year < minGraduationYr || *year > s.now().Year()+6 {
		return validationErr("graduation year %d out of range", *year)
	}
	return nil
}
