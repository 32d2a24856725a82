package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{" INFO ", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"Error", slog.LevelError, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_JSONCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "info", "json")
	require.NoError(t, err)

	ctx := ContextWith(context.Background(), "user", "u-1")
	ctx = ContextWith(ctx, "run", "r-9")
	log.With("component", "feed").Info(ctx, "feed generated", "generated", 2, "total", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "feed generated", rec["msg"])
	assert.Equal(t, "feed", rec["component"])
	assert.Equal(t, "u-1", rec["user"])
	assert.Equal(t, "r-9", rec["run"])
	assert.EqualValues(t, 2, rec["generated"])
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn", "text")
	require.NoError(t, err)

	ctx := context.Background()
	log.Debug(ctx, "bridge search done")
	log.Info(ctx, "feed generated")
	log.Warn(ctx, "using reference image", "index", 1)

	out := buf.String()
	assert.NotContains(t, out, "bridge search done")
	assert.NotContains(t, out, "feed generated")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "index=1")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestContextWith_DoesNotLeakIntoParent(t *testing.T) {
	parent := ContextWith(context.Background(), "user", "u-1")
	_ = ContextWith(parent, "run", "r-1")
	assert.Equal(t, []any{"user", "u-1"}, fieldsFrom(parent))
}

func TestDiscard(t *testing.T) {
	log := Discard().With("a", 1)
	log.Error(ContextWith(context.Background(), "k", "v"), "dropped")
	assert.Equal(t, Discard(), log)
}
