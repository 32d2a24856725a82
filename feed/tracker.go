package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/raushankrgupta/fitscroll/models"
)

// ErrNoProgress is returned when no run has been observed for a user
var ErrNoProgress = errors.New("no progress recorded")

// Tracker keeps the latest progress of each user's run so other requests can poll it
type Tracker interface {
	Publish(ctx context.Context, userID string, p models.PipelineProgress) error
	Latest(ctx context.Context, userID string) (models.PipelineProgress, error)
}

// Observe returns a ProgressFunc that publishes to t, then calls next if set.
// Publish errors are dropped; progress is advisory.
func Observe(ctx context.Context, t Tracker, userID string, next ProgressFunc) ProgressFunc {
	return func(p models.PipelineProgress) {
		if t != nil {
			_ = t.Publish(ctx, userID, p)
		}
		if next != nil {
			next(p)
		}
	}
}

type MemoryTracker struct {
	mu     sync.RWMutex
	latest map[string]models.PipelineProgress
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{latest: make(map[string]models.PipelineProgress)}
}

func (m *MemoryTracker) Publish(_ context.Context, userID string, p models.PipelineProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[userID] = p
	return nil
}

func (m *MemoryTracker) Latest(_ context.Context, userID string) (models.PipelineProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.latest[userID]
	if !ok {
		return models.PipelineProgress{}, ErrNoProgress
	}
	return p, nil
}

// RedisTracker stores progress as JSON under "feed:progress:<user>" with a TTL
type RedisTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisTracker(rdb *redis.Client, ttl time.Duration) *RedisTracker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisTracker{rdb: rdb, ttl: ttl}
}

// NewRedisTrackerFromURL parses a redis:// URL and verifies the connection
func NewRedisTrackerFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisTracker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisTracker(rdb, ttl), nil
}

func progressKey(userID string) string {
	return "feed:progress:" + userID
}

func (r *RedisTracker) Publish(ctx context.Context, userID string, p models.PipelineProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, progressKey(userID), data, r.ttl).Err()
}

func (r *RedisTracker) Latest(ctx context.Context, userID string) (models.PipelineProgress, error) {
	var p models.PipelineProgress
	data, err := r.rdb.Get(ctx, progressKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return p, ErrNoProgress
	}
	if err != nil {
		return p, fmt.Errorf("read progress: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decode progress: %w", err)
	}
	return p, nil
}

func (r *RedisTracker) Close() error {
	return r.rdb.Close()
}
