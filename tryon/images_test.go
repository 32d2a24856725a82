package tryon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestMIMETypeForPath(t *testing.T) {
	tests := map[string]string{
		"selfie.jpg":  "image/jpeg",
		"selfie.JPEG": "image/jpeg",
		"selfie.png":  "image/png",
		"selfie.webp": "image/webp",
		"selfie.gif":  "image/gif",
		"selfie.HEIC": "image/jpeg",
		"selfie.heif": "image/jpeg",
		"selfie":      "image/jpeg",
		"selfie.bmp":  "image/jpeg",
	}
	for path, want := range tests {
		assert.Equal(t, want, MIMETypeForPath(path), path)
	}
}

func TestLoadLocal_MissingFile(t *testing.T) {
	l := NewImageLoader(nil, 0)
	_, err := l.LoadLocal(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.ErrorIs(t, err, ErrImageLoad)
}

func TestLoadLocal_ReadsAndCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selfie.heic")
	require.NoError(t, os.WriteFile(path, []byte("heic-data"), 0o644))

	l := NewImageLoader(nil, 0)
	img, err := l.LoadLocal(path)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIMEType)
	assert.Equal(t, []byte("heic-data"), img.Data)

	require.NoError(t, os.Remove(path))
	again, err := l.LoadLocal(path)
	require.NoError(t, err)
	assert.Equal(t, img, again)
}

func TestLoadRemote_UsesDeclaredContentType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/webp; q=0.9")
		_, _ = w.Write([]byte("webp-data"))
	}))
	defer ts.Close()

	img, err := NewImageLoader(ts.Client(), 0).LoadRemote(context.Background(), ts.URL+"/a.webp")
	require.NoError(t, err)
	assert.Equal(t, "image/webp", img.MIMEType)
	assert.Equal(t, []byte("webp-data"), img.Data)
}

func TestLoadRemote_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	_, err := NewImageLoader(ts.Client(), 0).LoadRemote(context.Background(), ts.URL+"/missing.jpg")
	assert.ErrorIs(t, err, ErrImageLoad)
}

func TestLoadRemote_RejectsNonImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"image-not-found"}`))
	}))
	defer ts.Close()

	_, err := NewImageLoader(ts.Client(), 0).LoadRemote(context.Background(), ts.URL)
	assert.ErrorIs(t, err, ErrImageLoad)
}

func TestLoadRemote_ResolvesPagePreviewImage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pin/123", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="/media/look.png"></head><body>pin</body></html>`))
	})
	mux.HandleFunc("/media/look.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	img, err := NewImageLoader(ts.Client(), 0).LoadRemote(context.Background(), ts.URL+"/pin/123")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, pngBytes, img.Data)
}

func TestLoadRemote_PageWithoutPreview(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>nothing here</body></html>`))
	}))
	defer ts.Close()

	_, err := NewImageLoader(ts.Client(), 0).LoadRemote(context.Background(), ts.URL)
	assert.ErrorIs(t, err, ErrImageLoad)
}

func TestLoadRemote_FollowsOnlyOnePage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="/again"></head></html>`))
	}))
	defer ts.Close()

	_, err := NewImageLoader(ts.Client(), 0).LoadRemote(context.Background(), ts.URL)
	assert.ErrorIs(t, err, ErrImageLoad)
}

func TestLoad_Dispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o644))

	img, err := NewImageLoader(nil, 0).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
}
