package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"gradnet/internal/domain"
	"gradnet/internal/email"
)

type mockUserRepo struct {
	users map[string]domain.User
}

func newMockUserRepo(users ...domain.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, bool, error) {
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *mockUserRepo) GetByUSN(_ context.Context, usn string) (domain.User, bool, error) {
	for _, u := range m.users {
		if u.USN == usn {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, emailAddr string) (domain.User, bool, error) {
	for _, u := range m.users {
		if u.Email == emailAddr {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (m *mockUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	u := m.users[id]
	u.LastLogin = &at
	m.users[id] = u
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate, _ time.Time) (domain.User, bool, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, false, nil
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	m.users[id] = u
	return u, true, nil
}

func (m *mockUserRepo) Search(_ context.Context, _ domain.UserFilter, _ domain.Page) ([]domain.User, int, error) {
	var out []domain.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

type mockOTPRepo struct {
	mu      sync.Mutex
	records []domain.OTP
	seq     int
}

func (m *mockOTPRepo) CreateForEmail(_ context.Context, emailAddr, code, purpose string, ttl time.Duration) (domain.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(emailAddr)
	m.seq++
	now := time.Now().UTC()
	otp := domain.OTP{ID: strconv.Itoa(m.seq), Email: emailAddr, Code: code, Purpose: purpose, ExpiresAt: now.Add(ttl), CreatedAt: now}
	m.records = append(m.records, otp)
	return otp, nil
}

func (m *mockOTPRepo) FindValid(_ context.Context, emailAddr string, now time.Time) (domain.OTP, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.Email == emailAddr && r.IsValid(now) {
			return r, true, nil
		}
	}
	return domain.OTP{}, false, nil
}

func (m *mockOTPRepo) MarkUsed(ctx context.Context, id string) error {
	_, err := m.MarkUsedIfValid(ctx, id, time.Now().UTC())
	return err
}

func (m *mockOTPRepo) MarkUsedIfValid(_ context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id && m.records[i].IsValid(now) {
			m.records[i].Used = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockOTPRepo) DeleteByEmail(_ context.Context, emailAddr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(emailAddr)
	return nil
}

func (m *mockOTPRepo) deleteLocked(emailAddr string) {
	kept := m.records[:0]
	for _, r := range m.records {
		if r.Email != emailAddr {
			kept = append(kept, r)
		}
	}
	m.records = kept
}

func (m *mockOTPRepo) PurgeStale(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockEmailSender struct {
	last email.Message
	err  error
}

func (m *mockEmailSender) Send(_ context.Context, msg email.Message) error {
	if m.err != nil {
		return m.err
	}
	m.last = msg
	return nil
}

type mockPostRepo struct {
	posts map[string]domain.Post
}

func (m *mockPostRepo) Create(_ context.Context, post domain.Post) error {
	m.posts[post.ID] = post
	return nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id string) (domain.Post, bool, error) {
	p, ok := m.posts[id]
	return p, ok, nil
}

func (m *mockPostRepo) ListRecent(_ context.Context, authorID string, page domain.Page) ([]domain.Post, int, error) {
	var out []domain.Post
	for _, p := range m.posts {
		if authorID == "" || p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockPostRepo) Delete(_ context.Context, id, authorID string) (bool, error) {
	p, ok := m.posts[id]
	if !ok || p.AuthorID != authorID {
		return false, nil
	}
	delete(m.posts, id)
	return true, nil
}

func performRequest(r http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
