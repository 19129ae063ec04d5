package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/config"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/events"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/exporter"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/handlers"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/library"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/observability"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/resolver"
	"github.com/happyleetw/obsidian-photos-bridge-app/internal/store"
)

const serviceName = "photos-bridge-server"

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	observability.GetLogger().SetLevel(observability.ParseLevel(cfg.LogLevel))

	ctx := context.Background()
	telemetry, err := observability.Initialize(ctx, observability.NewConfig(serviceName, handlers.Version))
	if err != nil {
		observability.Errorf("Failed to initialize telemetry: %v", err)
		os.Exit(1)
	}

	cache, err := store.NewMetadataCache(cfg.Library.CacheDatabase)
	if err != nil {
		observability.Errorf("Failed to open metadata cache: %v", err)
		os.Exit(1)
	}
	defer cache.Close()

	mediaStore, err := store.NewFileStore(cfg.Library.Path, cache)
	if err != nil {
		observability.Errorf("Failed to open media library: %v", err)
		os.Exit(1)
	}

	index := library.New(mediaStore, cfg.Staleness())
	res := resolver.New(mediaStore, cfg.ResolveTimeout(),
		store.ThumbSize{Width: cfg.Thumbnail.Width, Height: cfg.Thumbnail.Height},
		cfg.Thumbnail.JPEGQuality)
	ex := exporter.New(mediaStore)

	hub := events.NewHub()
	go hub.Run()

	bridgeMetrics, err := observability.NewBridgeMetrics()
	if err != nil {
		observability.Errorf("Failed to create metrics: %v", err)
		os.Exit(1)
	}
	index.OnReload(func(count int, loadedAt time.Time) {
		bridgeMetrics.RecordReload(context.Background(), count)
		hub.BroadcastReload(count, loadedAt)
	})

	if err := index.Reload(ctx); err != nil {
		observability.Warnf("Initial library load failed, serving empty until retry: %v", err)
	}

	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		observability.Errorf("Failed to create HTTP metrics: %v", err)
		os.Exit(1)
	}

	router := handlers.NewRouter(
		handlers.NewPhotoHandler(index),
		handlers.NewAssetHandler(index, res, bridgeMetrics),
		handlers.NewExportHandler(index, ex, bridgeMetrics),
		handlers.NewHealthHandler(),
		handlers.NewEventsHandler(hub),
		observability.TracingMiddleware(serviceName),
		observability.MetricsMiddleware(httpMetrics),
	)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	// The plugin speaks one request per connection; matching that here
	// keeps connection lifetimes predictable.
	srv.SetKeepAlivesEnabled(false)

	go func() {
		observability.Infof("Photos bridge server starting on %s", cfg.ServerAddress)
		observability.Infof("Media library path: %s", cfg.Library.Path)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Errorf("Server error: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		observability.Errorf("Server forced to shutdown: %v", err)
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		observability.Errorf("Telemetry shutdown error: %v", err)
	}

	observability.Info("Server stopped")
}
