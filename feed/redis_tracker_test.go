package feed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitscroll/models"
)

func newRedisTracker(t *testing.T, ttl time.Duration) (*RedisTracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	tr, err := NewRedisTrackerFromURL(context.Background(), "redis://"+mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr, mr
}

func TestRedisTracker_PublishLatest(t *testing.T) {
	ctx := context.Background()
	tr, mr := newRedisTracker(t, 10*time.Minute)

	_, err := tr.Latest(ctx, "u1")
	assert.ErrorIs(t, err, ErrNoProgress)

	require.NoError(t, tr.Publish(ctx, "u1", models.PipelineProgress{
		Stage: models.StageComposing, Fraction: 0.55, Completed: 1, Total: 2, Preview: "generated_images/a.png",
	}))
	require.NoError(t, tr.Publish(ctx, "u1", models.PipelineProgress{
		Stage: models.StageDone, Fraction: 1, Completed: 2, Total: 2,
	}))

	got, err := tr.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StageDone, got.Stage)
	assert.Equal(t, 2, got.Completed)

	assert.True(t, mr.Exists("feed:progress:u1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("feed:progress:u1"))

	_, err = tr.Latest(ctx, "u2")
	assert.ErrorIs(t, err, ErrNoProgress)
}

func TestRedisTracker_Expires(t *testing.T) {
	ctx := context.Background()
	tr, mr := newRedisTracker(t, time.Minute)

	require.NoError(t, tr.Publish(ctx, "u1", models.PipelineProgress{Stage: models.StageDiscovering}))
	mr.FastForward(2 * time.Minute)

	_, err := tr.Latest(ctx, "u1")
	assert.ErrorIs(t, err, ErrNoProgress)
}

func TestRedisTracker_DefaultTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tr := NewRedisTracker(rdb, 0)
	t.Cleanup(func() { _ = tr.Close() })

	require.NoError(t, tr.Publish(context.Background(), "u1", models.PipelineProgress{Stage: models.StageValidating}))
	assert.Equal(t, time.Hour, mr.TTL("feed:progress:u1"))
}

func TestRedisTracker_CorruptValue(t *testing.T) {
	tr, mr := newRedisTracker(t, time.Minute)
	require.NoError(t, mr.Set("feed:progress:u1", "{not json"))

	_, err := tr.Latest(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoProgress)
	assert.Contains(t, err.Error(), "decode progress")
}

func TestRedisTracker_ServerError(t *testing.T) {
	tr, mr := newRedisTracker(t, time.Minute)
	mr.SetError("ERR backend unavailable")

	_, err := tr.Latest(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read progress")
}

func TestNewRedisTrackerFromURL_Errors(t *testing.T) {
	_, err := NewRedisTrackerFromURL(context.Background(), "not-a-url", time.Minute)
	assert.ErrorContains(t, err, "parse redis url")

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisTrackerFromURL(context.Background(), "redis://"+addr, time.Minute)
	assert.ErrorContains(t, err, "ping redis")
}

func TestObserve_PublishesToRedis(t *testing.T) {
	tr, _ := newRedisTracker(t, time.Minute)
	var seen []models.Stage
	report := Observe(context.Background(), tr, "u1", func(p models.PipelineProgress) { seen = append(seen, p.Stage) })

	report(models.PipelineProgress{Stage: models.StageComposing, Completed: 1, Total: 3})

	got, err := tr.Latest(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StageComposing, got.Stage)
	assert.Equal(t, []models.Stage{models.StageComposing}, seen)
}
