package tryon

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/raushankrgupta/fitscroll/utils"
)

// ImageStore persists generated images and resolves their locators to URLs
type ImageStore interface {
	Save(ctx context.Context, data []byte, mimeType string) (string, error)
	URL(ctx context.Context, locator string) (string, error)
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

func extensionFor(mimeType string) string {
	if ext, ok := extensions[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return ".png"
}

// DirStore keeps generated images on local disk; the locator is the file path.
// URL maps a locator under BaseURL, where the directory is served statically.
type DirStore struct {
	Dir     string
	BaseURL string
}

func (s *DirStore) Save(_ context.Context, data []byte, mimeType string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", s.Dir, err)
	}
	p := filepath.Join(s.Dir, "generated_tryon_"+uuid.NewString()+extensionFor(mimeType))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write generated image: %w", err)
	}
	return p, nil
}

func (s *DirStore) URL(_ context.Context, locator string) (string, error) {
	if s.BaseURL == "" {
		return locator, nil
	}
	return strings.TrimSuffix(s.BaseURL, "/") + "/" + filepath.Base(locator), nil
}

// S3Store uploads generated images to a bucket; the locator is the object key
type S3Store struct {
	S3     *utils.S3
	Prefix string
}

func (s *S3Store) Save(ctx context.Context, data []byte, mimeType string) (string, error) {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "generated_images"
	}
	key := path.Join(prefix, "generated_tryon_"+uuid.NewString()+extensionFor(mimeType))
	return s.S3.UploadFile(ctx, bytes.NewReader(data), key, mimeType)
}

func (s *S3Store) URL(ctx context.Context, locator string) (string, error) {
	if strings.HasPrefix(locator, "http") {
		return locator, nil
	}
	return s.S3.GetPresignedURL(ctx, locator)
}
