package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToLogMessage(t *testing.T) {
	var b strings.Builder
	AddToLogMessage(&b, "[Feed API]")
	AddToLogMessage(&b, "done")
	assert.Equal(t, "[Feed API];\ndone;\n", b.String())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"y2k", "old money"}, SplitList(" y2k, ,old money ,"))
	assert.Equal(t, []string{}, SplitList(""))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", time.Hour)
	require.NoError(t, err)

	userID, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = ValidateToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	_, err := GenerateToken("", "user-1", time.Hour)
	assert.Error(t, err)
}

func TestResolveImageURLs(t *testing.T) {
	resolve := func(_ context.Context, key string) (string, error) {
		if key == "broken" {
			return "", errors.New("no")
		}
		return "https://cdn/" + key, nil
	}
	got := ResolveImageURLs(context.Background(), []string{"https://x/a.jpg", "generated_images/b.png", "broken"}, resolve)
	assert.Equal(t, []string{"https://x/a.jpg", "https://cdn/generated_images/b.png", "broken"}, got)

	assert.Equal(t, []string{"a"}, ResolveImageURLs(context.Background(), []string{"a"}, nil))
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	var b strings.Builder
	RespondError(rec, &b, "nope", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"nope"}`, rec.Body.String())
	assert.Contains(t, b.String(), "nope")
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	h := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/feed", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
