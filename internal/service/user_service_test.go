package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"gradnet/internal/domain"
	"gradnet/internal/repository"
)

type mockUserRepo struct {
	usersByID map[string]domain.User
	err       error
	touched   map[string]time.Time
}

func newMockUserRepo(users ...domain.User) *mockUserRepo {
	m := &mockUserRepo{
		usersByID: make(map[string]domain.User),
		touched:   make(map[string]time.Time),
	}
	for _, u := range users {
		m.usersByID[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.usersByID {
		if existing.USN == user.USN || existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, bool, error) {
	if m.err != nil {
		return domain.User{}, false, m.err
	}
	user, ok := m.usersByID[id]
	return user, ok, nil
}

func (m *mockUserRepo) GetByUSN(_ context.Context, usn string) (domain.User, bool, error) {
	return m.find(func(u domain.User) bool { return u.USN == usn })
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, bool, error) {
	return m.find(func(u domain.User) bool { return u.Email == email })
}

func (m *mockUserRepo) find(match func(domain.User) bool) (domain.User, bool, error) {
	if m.err != nil {
		return domain.User{}, false, m.err
	}
	for _, u := range m.usersByID {
		if match(u) {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (m *mockUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.touched[id] = at
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate, at time.Time) (domain.User, bool, error) {
	if m.err != nil {
		return domain.User{}, false, m.err
	}
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, false, nil
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.SocialLink != nil {
		user.SocialLink = *update.SocialLink
	}
	if update.PictureKey != nil {
		user.PictureKey = *update.PictureKey
	}
	if update.GraduationYear != nil {
		user.GraduationYear = update.GraduationYear
	}
	user.UpdatedAt = at
	m.usersByID[id] = user
	return user, true, nil
}

func (m *mockUserRepo) Search(_ context.Context, filter domain.UserFilter, page domain.Page) ([]domain.User, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []domain.User
	for _, u := range m.usersByID {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Query)) {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func strPtr(s string) *string { return &s }

func TestUserService_CreateUser(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo)

	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		USN:      " 1rv20cs001 ",
		Name:     "Ana",
		Email:    "Ana@Campus.EDU",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.USN != "1RV20CS001" || user.Email != "ana@campus.edu" {
		t.Fatalf("expected normalized usn/email, got %q %q", user.USN, user.Email)
	}
	if user.Role != domain.RoleCurrentStudent {
		t.Fatalf("expected default role, got %q", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret" {
		t.Fatalf("expected bcrypt hash")
	}

	_, err = svc.CreateUser(context.Background(), CreateUserInput{USN: "1RV20CS001", Name: "Other", Email: "other@campus.edu"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserService_CreateUserValidation(t *testing.T) {
	svc := NewUserService(zap.NewNop(), newMockUserRepo())
	cases := []CreateUserInput{
		{Name: "Ana", Email: "ana@campus.edu"},
		{USN: "1RV20CS001", Email: "ana@campus.edu"},
		{USN: "1RV20CS001", Name: "Ana", Email: "not-an-email"},
		{USN: "1RV20CS001", Name: "Ana", Email: "ana@campus.edu", Role: "dean"},
	}
	for i, input := range cases {
		if _, err := svc.CreateUser(context.Background(), input); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	repo := newMockUserRepo(domain.User{ID: "u1", USN: "1RV20CS001", Name: "Ana", Email: "ana@campus.edu"})
	svc := NewUserService(zap.NewNop(), repo)

	user, err := svc.UpdateProfile(context.Background(), "u1", domain.ProfileUpdate{
		Name:       strPtr("  Ana Maria "),
		SocialLink: strPtr("https://linkedin.com/in/ana"),
		PictureKey: strPtr("users/u1/picture/2026/01/a.png"),
	})
	if err != nil {
		t.Fatalf("expected update, got %v", err)
	}
	if user.Name != "Ana Maria" || user.PictureKey == "" {
		t.Fatalf("unexpected user %+v", user)
	}

	bad := []domain.ProfileUpdate{
		{Name: strPtr("   ")},
		{Bio: strPtr(strings.Repeat("x", maxBioLength+1))},
		{SocialLink: strPtr("javascript:alert(1)")},
		{PictureKey: strPtr("users/u2/picture/x.png")},
	}
	for i, update := range bad {
		if _, err := svc.UpdateProfile(context.Background(), "u1", update); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}

	if _, err := svc.UpdateProfile(context.Background(), "missing", domain.ProfileUpdate{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_SearchAndStorageErrors(t *testing.T) {
	repo := newMockUserRepo(
		domain.User{ID: "u1", Name: "Ana", Role: domain.RoleAlumni},
		domain.User{ID: "u2", Name: "Bruno", Role: domain.RoleFaculty},
	)
	svc := NewUserService(zap.NewNop(), repo)

	users, total, err := svc.Search(context.Background(), domain.UserFilter{Role: domain.RoleAlumni}, domain.NewPage(1, 10))
	if err != nil || total != 1 || users[0].ID != "u1" {
		t.Fatalf("unexpected search result %+v total=%d err=%v", users, total, err)
	}
	if _, _, err := svc.Search(context.Background(), domain.UserFilter{Role: "dean"}, domain.NewPage(1, 10)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for role, got %v", err)
	}

	repo.err = errors.New("db down")
	if _, err := svc.GetProfile(context.Background(), "u1"); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}
