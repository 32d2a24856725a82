package tryon

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/patrickmn/go-cache"
)

const (
	maxImageBytes   = 20 << 20
	defaultCacheTTL = 10 * time.Minute
	userAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// extension -> MIME type for local files
var localMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	// sent as plain JPEG so the model accepts it
	".heic": "image/jpeg",
	".heif": "image/jpeg",
}

// MIMETypeForPath maps a file extension to a MIME type, defaulting to JPEG
func MIMETypeForPath(path string) string {
	if m, ok := localMIMETypes[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	return "image/jpeg"
}

// ImageLoader reads the input images of a generation. Local files are cached
// because every candidate of a run reuses the same base photo.
type ImageLoader struct {
	HTTPClient *http.Client
	cache      *cache.Cache
}

// NewImageLoader creates a loader; ttl <= 0 uses the default cache lifetime
func NewImageLoader(httpClient *http.Client, ttl time.Duration) *ImageLoader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ImageLoader{
		HTTPClient: httpClient,
		cache:      cache.New(ttl, 2*ttl),
	}
}

// Load reads an http(s) URL remotely and anything else from disk
func (l *ImageLoader) Load(ctx context.Context, pathOrURL string) (InlineImage, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return l.LoadRemote(ctx, pathOrURL)
	}
	return l.LoadLocal(pathOrURL)
}

// LoadLocal reads a local image; the MIME type comes from the extension
func (l *ImageLoader) LoadLocal(path string) (InlineImage, error) {
	if cached, ok := l.cache.Get(path); ok {
		return cached.(InlineImage), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return InlineImage{}, fmt.Errorf("%w: read %s: %w", ErrImageLoad, path, err)
	}
	if len(data) == 0 {
		return InlineImage{}, fmt.Errorf("%w: %s is empty", ErrImageLoad, path)
	}
	img := InlineImage{Data: data, MIMEType: MIMETypeForPath(path)}
	l.cache.SetDefault(path, img)
	return img, nil
}

// LoadRemote downloads an image; the MIME type comes from the response's Content-Type.
// A page that serves HTML is resolved once through its og:image tag.
func (l *ImageLoader) LoadRemote(ctx context.Context, rawURL string) (InlineImage, error) {
	return l.loadRemote(ctx, rawURL, true)
}

func (l *ImageLoader) loadRemote(ctx context.Context, rawURL string, followPage bool) (InlineImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return InlineImage{}, fmt.Errorf("%w: %w", ErrImageLoad, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return InlineImage{}, fmt.Errorf("%w: fetch %s: %w", ErrImageLoad, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return InlineImage{}, fmt.Errorf("%w: fetch %s: status %d", ErrImageLoad, rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return InlineImage{}, fmt.Errorf("%w: read %s: %w", ErrImageLoad, rawURL, err)
	}

	mimeType := mediaType(resp.Header.Get("Content-Type"))
	if mimeType == "" {
		mimeType = mediaType(http.DetectContentType(data))
	}

	if mimeType == "text/html" && followPage {
		imageURL, err := pageImage(data, resp.Request.URL)
		if err != nil {
			return InlineImage{}, fmt.Errorf("%w: %s: %w", ErrImageLoad, rawURL, err)
		}
		return l.loadRemote(ctx, imageURL, false)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return InlineImage{}, fmt.Errorf("%w: %s served %q", ErrImageLoad, rawURL, mimeType)
	}
	if len(data) == 0 {
		return InlineImage{}, fmt.Errorf("%w: %s returned no data", ErrImageLoad, rawURL)
	}
	return InlineImage{Data: data, MIMEType: mimeType}, nil
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	return mt
}

// pageImage finds the preview image of an HTML page
func pageImage(html []byte, base *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	var found string
	for _, sel := range []string{
		`meta[property="og:image"]`,
		`meta[property="og:image:url"]`,
		`meta[name="twitter:image"]`,
	} {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			found = v
			break
		}
	}
	if found == "" {
		return "", fmt.Errorf("page has no preview image")
	}

	ref, err := url.Parse(found)
	if err != nil {
		return "", fmt.Errorf("invalid preview image url %q: %w", found, err)
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	return ref.String(), nil
}
