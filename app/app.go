// Package app builds the service graph from a Config. The server and the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/raushankrgupta/fitscroll/api"
	"github.com/raushankrgupta/fitscroll/bridge"
	"github.com/raushankrgupta/fitscroll/config"
	"github.com/raushankrgupta/fitscroll/feed"
	"github.com/raushankrgupta/fitscroll/logging"
	"github.com/raushankrgupta/fitscroll/store"
	"github.com/raushankrgupta/fitscroll/tryon"
	"github.com/raushankrgupta/fitscroll/utils"
)

const (
	baseImageCacheTTL = 30 * time.Minute
	progressTTL       = time.Hour
)

// App is the wired set of services
type App struct {
	Store    store.Store
	Tracker  feed.Tracker
	Bridge   *bridge.Client
	TryOn    *tryon.Client
	Pipeline *feed.Pipeline
	Images   tryon.ImageStore

	closers []func() error
}

// New connects storage, progress tracking, the bridge and Gemini as configured.
// Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	if err := a.initStore(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if err := a.initTracker(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if err := a.initImages(ctx, cfg); err != nil {
		return nil, err
	}

	a.Bridge = bridge.NewClient(cfg.BridgeURL, cfg.BridgeTimeout, cfg.BridgeRefreshTimeout, logger)

	geminiClient, model, err := tryon.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, geminiClient.Close)

	loader := tryon.NewImageLoader(&http.Client{Timeout: 30 * time.Second}, baseImageCacheTTL)
	a.TryOn = tryon.NewClient(model, a.Images, loader, tryon.Options{
		MaxRetries:    cfg.GenerateMaxRetries,
		RetryDelay:    cfg.GenerateRetryDelay,
		Timeout:       cfg.GenerateTimeout,
		RatePerMinute: cfg.GenerateRatePerMinute,
		PromptSuffix:  tryon.OutputInstructions(cfg.ResponseModalities, cfg.AspectRatio),
	}, logger)

	a.Pipeline = feed.NewPipeline(a.Bridge, a.TryOn, feed.Config{
		FetchLimit:      cfg.FetchLimit,
		DefaultKeywords: cfg.DefaultKeywords,
	}, logger)

	ok = true
	return a, nil
}

func (a *App) initStore(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	switch cfg.StorageBackend {
	case "mongo":
		client, err := utils.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })

		ms := store.NewMongoStore(client, cfg.DBName)
		if err := ms.EnsureIndexes(ctx); err != nil {
			logger.Warn(ctx, "could not create indexes", "error", err)
		}
		a.Store = ms
	default:
		fs, err := store.NewFileStore(cfg.StoreDir)
		if err != nil {
			return err
		}
		a.Store = fs
	}
	return nil
}

func (a *App) initTracker(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	if cfg.RedisURL == "" {
		a.Tracker = feed.NewMemoryTracker()
		return nil
	}
	rt, err := feed.NewRedisTrackerFromURL(ctx, cfg.RedisURL, progressTTL)
	if err != nil {
		return fmt.Errorf("progress tracker: %w", err)
	}
	logger.Info(ctx, "progress tracked in redis")
	a.closers = append(a.closers, rt.Close)
	a.Tracker = rt
	return nil
}

func (a *App) initImages(ctx context.Context, cfg *config.Config) error {
	if cfg.AWSBucketName == "" {
		a.Images = &tryon.DirStore{Dir: cfg.GeneratedDir, BaseURL: api.GeneratedImagesPath}
		return nil
	}
	s3, err := utils.NewS3(ctx, cfg.AWSRegion, cfg.AWSBucketName)
	if err != nil {
		return err
	}
	a.Images = &tryon.S3Store{S3: s3, Prefix: cfg.GeneratedDir}
	return nil
}

// Close releases connections in reverse order of creation
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
