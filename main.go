package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raushankrgupta/fitscroll/api"
	"github.com/raushankrgupta/fitscroll/app"
	"github.com/raushankrgupta/fitscroll/config"
	"github.com/raushankrgupta/fitscroll/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer services.Close()

	server := &api.Server{
		Store:        services.Store,
		Pipeline:     services.Pipeline,
		Bridge:       services.Bridge,
		Tracker:      services.Tracker,
		Images:       services.Images,
		JWTSecret:    cfg.JWTSecret,
		UploadDir:    cfg.UploadDir,
		GeneratedDir: cfg.GeneratedDir,
		Logger:       logger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Server starting on port %s...\n", cfg.Port)
	fmt.Printf("Usage: curl -X POST -H \"Authorization: Bearer <token>\" \"http://localhost:%s/feed/generate\"\n", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}
}
