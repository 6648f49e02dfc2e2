package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrForeignURL      = errors.New("image url is outside the public upload bucket")
	ErrImageTooLarge   = errors.New("image exceeds size limit")
	ErrNotConfigured   = errors.New("media storage is not configured")
)

const (
	defaultUploadTTL    = 60 * time.Second
	defaultMaxImageSize = 5 << 20
)

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	GetObject(ctx context.Context, key string, maxBytes int64) ([]byte, string, error)
}

type Config struct {
	PublicURL     string
	UploadTTL     time.Duration
	MaxImageBytes int64
}

type Service struct {
	storage   ObjectStorage
	publicURL string
	uploadTTL time.Duration
	maxBytes  int64
	now       func() time.Time
	newKey    func() string
}

type Upload struct {
	ObjectKey string
	UploadURL string
	PublicURL string
	ExpiresAt time.Time
}

func NewService(storage ObjectStorage, cfg Config) *Service {
	ttl := cfg.UploadTTL
	if ttl <= 0 {
		ttl = defaultUploadTTL
	}
	maxBytes := cfg.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageSize
	}
	return &Service{
		storage:   storage,
		publicURL: strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/"),
		uploadTTL: ttl,
		maxBytes:  maxBytes,
		now:       time.Now,
		newKey:    func() string { return uuid.NewString() },
	}
}

// PrepareUpload issues a short-lived presigned PUT for a new image object and
// the public URL the object will be served from once uploaded.
func (s *Service) PrepareUpload(ctx context.Context, contentType string) (Upload, error) {
	if s.storage == nil || s.publicURL == "" {
		return Upload{}, ErrNotConfigured
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return Upload{}, fmt.Errorf("%q: %w", contentType, ErrUnsupportedType)
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Upload{}, fmt.Errorf("ensure bucket: %w", err)
	}

	key := s.newKey() + "." + ext
	signed, err := s.storage.PresignPut(ctx, key, contentType, s.uploadTTL)
	if err != nil {
		return Upload{}, fmt.Errorf("presign upload: %w", err)
	}

	return Upload{
		ObjectKey: key,
		UploadURL: signed,
		PublicURL: s.publicURL + "/" + key,
		ExpiresAt: s.now().UTC().Add(s.uploadTTL),
	}, nil
}

// FetchImage loads an uploaded image by its public URL. Only URLs under the
// configured public prefix are accepted; the bytes come from the bucket itself.
func (s *Service) FetchImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	if s.storage == nil || s.publicURL == "" {
		return nil, "", ErrNotConfigured
	}
	key, err := s.ObjectKeyFromURL(rawURL)
	if err != nil {
		return nil, "", err
	}

	data, contentType, err := s.storage.GetObject(ctx, key, s.maxBytes)
	if err != nil {
		return nil, "", err
	}
	if _, ok := allowedImageTypes[strings.ToLower(contentType)]; !ok {
		return nil, "", fmt.Errorf("%q: %w", contentType, ErrUnsupportedType)
	}
	return data, contentType, nil
}

func (s *Service) ObjectKeyFromURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse image url: %v: %w", err, ErrForeignURL)
	}
	u.RawQuery = ""
	u.Fragment = ""

	prefix := s.publicURL + "/"
	clean := u.String()
	if !strings.HasPrefix(clean, prefix) {
		return "", ErrForeignURL
	}
	key := strings.TrimPrefix(clean, prefix)
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "..") {
		return "", ErrForeignURL
	}
	return key, nil
}
