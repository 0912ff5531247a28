package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MediaStore firma URLs de subida y descarga contra el almacenamiento de objetos.
type MediaStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

var mediaKinds = map[string]bool{
	"picture": true,
	"banner":  true,
	"post":    true,
}

var mediaExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// Upload es una subida autorizada: el cliente hace PUT a URL y luego guarda Key.
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MediaService struct {
	logger *zap.Logger
	store  MediaStore
	now    func() time.Time
}

// NewMediaService acepta store nil; en ese caso todas las operaciones devuelven ErrMediaDisabled.
func NewMediaService(logger *zap.Logger, store MediaStore) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaService{
		logger: logger,
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *MediaService) Enabled() bool {
	return s != nil && s.store != nil
}

func (s *MediaService) CreateUpload(ctx context.Context, userID, kind, contentType string) (Upload, error) {
	if !s.Enabled() {
		return Upload{}, ErrMediaDisabled
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	if !mediaKinds[kind] {
		return Upload{}, validationErr("unsupported media kind %q", kind)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := mediaExtensions[contentType]
	if !ok {
		return Upload{}, validationErr("unsupported content type %q", contentType)
	}
	if strings.TrimSpace(userID) == "" {
		return Upload{}, validationErr("user id is required")
	}

	now := s.now()
	key := fmt.Sprintf("users/%s/%s/%04d/%02d/%s.%s", userID, kind, now.Year(), int(now.Month()), uuid.NewString(), ext)
	url, expiresAt, err := s.store.PresignUpload(ctx, key, contentType)
	if err != nil {
		s.logger.Error("presign upload failed", zap.Error(err), zap.String("key", key))
		return Upload{}, storageErr("presign upload", err)
	}
	return Upload{Key: key, URL: url, ExpiresAt: expiresAt}, nil
}

// DownloadURL firma una URL de lectura; una clave vacia devuelve cadena vacia.
func (s *MediaService) DownloadURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	if !s.Enabled() {
		return "", ErrMediaDisabled
	}
	url, err := s.store.PresignDownload(ctx, key)
	if err != nil {
		return "", storageErr("presign download", err)
	}
	return url, nil
}
