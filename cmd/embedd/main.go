// cmd/embedd/main.go
// Package main implements the entry point for the embed service.
// It initializes all components and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/proofwall/proofwall-embed-go/internal/config"
	"github.com/proofwall/proofwall-embed-go/internal/embed"
	"github.com/proofwall/proofwall-embed-go/internal/event"
	"github.com/proofwall/proofwall-embed-go/internal/media"
	"github.com/proofwall/proofwall-embed-go/internal/schema"
	"github.com/proofwall/proofwall-embed-go/internal/server"
	"github.com/proofwall/proofwall-embed-go/internal/snippet"
	"github.com/proofwall/proofwall-embed-go/internal/storage"
	"github.com/proofwall/proofwall-embed-go/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.IsDev() {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer(telemetry.Options{
		Version:     version,
		Environment: cfg.Env,
		Writer:      os.Stderr,
	})
	if err != nil {
		logger.Error("failed to initialize OpenTelemetry tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTracer(ctx)
	}()

	// PostgreSQL when a DSN is configured, in-memory otherwise
	var store storage.Store
	if cfg.DatabaseDSN != "" {
		store, err = storage.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			logger.Error("failed to initialize postgres storage", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("EMBED_DB_DSN not set, using in-memory storage")
		store = storage.NewMemory()
	}
	defer store.Close()

	store = storage.NewCaching(store, cfg.ConfigCacheSize, cfg.ConfigCacheTTL)

	pub := event.NewPublisher(cfg.NATSURL)
	defer pub.Close()

	var mediaClient *media.S3Client
	if cfg.S3Bucket != "" {
		mediaClient, err = media.NewS3Client(context.Background(), media.Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			URLTTL:    cfg.MediaURLTTL,
		})
		if err != nil {
			logger.Error("failed to initialize S3 client", "error", err)
			os.Exit(1)
		}
	}

	validator, err := schema.NewValidator()
	if err != nil {
		logger.Error("failed to initialize schema validator", "error", err)
		os.Exit(1)
	}

	svcOpts := embed.Options{
		Provider:     store,
		Publisher:    pub,
		Logger:       logger,
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
	}
	if mediaClient != nil {
		svcOpts.Resolver = mediaClient
	}
	emitter := snippet.NewEmitter(cfg.DistributionURL)

	mux, err := server.NewMux(server.Options{
		Store:              store,
		Publisher:          pub,
		Service:            embed.NewService(svcOpts),
		Validator:          validator,
		Media:              mediaClient,
		Snippets:           &emitter,
		Logger:             logger,
		JWTIssuer:          cfg.JWTIssuer,
		JWTAudience:        cfg.JWTAudience,
		Env:                cfg.Env,
		MaxMediaSize:       cfg.MaxMediaSize,
		AllowedMimeTypes:   cfg.AllowedMimeTypes,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Error("failed to initialize HTTP handlers", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", addr, "env", cfg.Env, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server exited")
}
