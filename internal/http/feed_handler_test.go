package http

import (
	"net/http"
	"strings"
	"testing"
)

func TestFeed_CreateAndDeletePermissions(t *testing.T) {
	app := newTestApp(t, true)
	authed := app.login(t)

	rec := performRequest(app.router, http.MethodPost, "/api/posts", map[string]string{"content": "  Reunion on Friday  "}, authed)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	post := decodeBody(t, rec.Body.Bytes())["post"].(map[string]any)
	if post["content"] != "Reunion on Friday" || post["author_id"] != testUserA {
		t.Fatalf("unexpected post %+v", post)
	}

	rec = performRequest(app.router, http.MethodDelete, "/api/posts/"+testPostB, nil, authed)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 deleting someone else's post, got %d", rec.Code)
	}

	rec = performRequest(app.router, http.MethodDelete, "/api/posts/"+post["id"].(string), nil, authed)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = performRequest(app.router, http.MethodDelete, "/api/posts/0a0a0a0a-0000-4000-8000-000000000000", nil, authed)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestFeed_ValidationAndPagination(t *testing.T) {
	app := newTestApp(t, true)
	authed := app.login(t)

	rec := performRequest(app.router, http.MethodPost, "/api/posts", map[string]string{"content": "   "}, authed)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank content, got %d", rec.Code)
	}

	rec = performRequest(app.router, http.MethodPost, "/api/posts", map[string]string{
		"content":   "photo",
		"image_key": "users/"+testUserB+"/post/2026/01/x.png",
	}, authed)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for foreign image key, got %d", rec.Code)
	}

	rec = performRequest(app.router, http.MethodGet, "/api/feed?page=0&limit=500", nil, authed)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec.Body.Bytes())
	if body["page"] != float64(1) || body["limit"] != float64(50) || body["total"] != float64(1) {
		t.Fatalf("unexpected page envelope %+v", body)
	}
}

func TestMediaPresign_Disabled(t *testing.T) {
	app := newTestApp(t, true)
	authed := app.login(t)

	rec := performRequest(app.router, http.MethodPost, "/api/media/presign", map[string]string{
		"kind":         "picture",
		"content_type": "image/png",
	}, authed)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when media storage is not configured, got %d", rec.Code)
	}
}

func TestMessages_SendValidation(t *testing.T) {
	app := newTestApp(t, true)
	authed := app.login(t)

	rec := performRequest(app.router, http.MethodPost, "/api/messages", map[string]string{"recipient_id": testUserA, "body": "hi"}, authed)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 messaging self, got %d", rec.Code)
	}
	rec = performRequest(app.router, http.MethodPost, "/api/messages", map[string]string{"recipient_id": "0a0a0a0a-0000-4000-8000-000000000000", "body": "hi"}, authed)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown recipient, got %d", rec.Code)
	}
}

func TestProfile_UpdateAndSearch(t *testing.T) {
	app := newTestApp(t, true)
	authed := app.login(t)

	rec := performRequest(app.router, http.MethodPut, "/api/profile", map[string]string{"bio": "Class of 2020"}, authed)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	user := decodeBody(t, rec.Body.Bytes())["user"].(map[string]any)
	if user["bio"] != "Class of 2020" {
		t.Fatalf("expected bio updated, got %+v", user)
	}

	rec = performRequest(app.router, http.MethodPut, "/api/profile", map[string]string{"social_link": "ftp://x"}, authed)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad link, got %d", rec.Code)
	}

	rec = performRequest(app.router, http.MethodGet, "/api/users?role=dean", nil, authed)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
	rec = performRequest(app.router, http.MethodGet, "/api/users/"+testUserB, nil, authed)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = performRequest(app.router, http.MethodGet, "/api/users/0a0a0a0a-0000-4000-8000-000000000000", nil, authed)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlers_MalformedIDs(t *testing.T) {
	app := newTestApp(t, true)
	authed := app.login(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"delete post", http.MethodDelete, "/api/posts/abc", nil, http.StatusNotFound},
		{"get user", http.MethodGet, "/api/users/abc", nil, http.StatusNotFound},
		{"get topic", http.MethodGet, "/api/forum/topics/abc", nil, http.StatusNotFound},
		{"reply to topic", http.MethodPost, "/api/forum/topics/abc/replies", map[string]string{"body": "hi"}, http.StatusNotFound},
		{"conversation", http.MethodGet, "/api/messages/abc", nil, http.StatusNotFound},
		{"send message", http.MethodPost, "/api/messages", map[string]string{"recipient_id": "x", "body": "hi"}, http.StatusBadRequest},
		{"feed author filter", http.MethodGet, "/api/feed?author=abc", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := performRequest(app.router, tc.method, tc.path, tc.body, authed)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMessages_SendNormalizesRecipient(t *testing.T) {
	app := newTestApp(t, true)
	authed := app.login(t)

	rec := performRequest(app.router, http.MethodPost, "/api/messages", map[string]string{
		"recipient_id": strings.ToUpper(testUserA),
		"body":         "hi",
	}, authed)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 messaging self in upper case, got %d", rec.Code)
	}
}
