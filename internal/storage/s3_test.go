package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestNewS3MediaStore_RequiresBucket(t *testing.T) {
	if _, err := NewS3MediaStore(context.Background(), S3Options{Endpoint: "http://localhost:9000"}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestS3MediaStore_PresignUpload(t *testing.T) {
	store, err := NewS3MediaStore(context.Background(), S3Options{
		Endpoint:  "http://localhost:9000",
		Region:    "us-east-1",
		Bucket:    "gradnet",
		AccessKey: "minio",
		SecretKey: "minio123",
		TTL:       5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	raw, expiresAt, err := store.PresignUpload(context.Background(), "users/u1/picture/a.png", "image/png")
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Host != "localhost:9000" || !strings.HasPrefix(u.Path, "/gradnet/users/u1/picture/") {
		t.Fatalf("expected path-style url, got %s", raw)
	}
	if u.Query().Get("X-Amz-Expires") != "300" {
		t.Fatalf("expected 300s expiry, got %q", u.Query().Get("X-Amz-Expires"))
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry")
	}
}
