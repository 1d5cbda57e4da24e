package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jiljuapp/jilju/internal/adapters/googlemaps"
	"github.com/jiljuapp/jilju/internal/adapters/http"
	natsadapter "github.com/jiljuapp/jilju/internal/adapters/nats"
	"github.com/jiljuapp/jilju/internal/adapters/postgres"
	"github.com/jiljuapp/jilju/internal/adapters/valkey"
	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/ports"
	"github.com/jiljuapp/jilju/internal/core/usecases"
	"github.com/jiljuapp/jilju/internal/pkg/config"
	"github.com/jiljuapp/jilju/internal/pkg/logging"
	"github.com/jiljuapp/jilju/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("jilju-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolMetrics(ctx, 15*time.Second)

	// Cache
	var cacheSvc ports.CacheService
	var kvStore ports.KeyValueStore
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
		kvStore = cache.KV()
	}

	// NATS
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	// Raw NATS connection for the chat WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Google Maps. The session falls back to the configured default location
	// when the key is missing, so a blank key is not fatal.
	var provider ports.GeolocationProvider
	var geocoder ports.ReverseGeocoder
	if cfg.Geocode.GoogleAPIKey != "" {
		gp, err := googlemaps.NewGeolocationProvider(cfg.Geocode.GoogleAPIKey)
		if err != nil {
			slog.Warn("geolocation provider init failed", "error", err)
		} else {
			provider = gp
		}
		gc, err := googlemaps.NewGeocoder(cfg.Geocode.GoogleAPIKey)
		if err != nil {
			slog.Warn("geocoder init failed", "error", err)
		} else {
			geocoder = gc
		}
	} else {
		slog.Warn("no google api key configured, location falls back to default")
	}

	// Repos
	benefitRepo := postgres.NewBenefitRepo(db)
	couponRepo := postgres.NewCouponRepo(db)
	merchantRepo := postgres.NewMerchantRepo(db)
	bookmarkRepo := postgres.NewBookmarkRepo(db)
	applicationRepo := postgres.NewApplicationRepo(db)
	chatRepo := postgres.NewChatRepo(db)

	// Use cases
	benefitSvc := usecases.NewBenefitService(benefitRepo, cacheSvc)
	couponSvc := usecases.NewCouponService(couponRepo, benefitRepo, publisher, nil, cfg.Coupon.DefaultTTLDuration(), nil)
	merchantSvc := usecases.NewMerchantService(merchantRepo, couponRepo, nil)
	bookmarkSvc := usecases.NewBookmarkService(bookmarkRepo, benefitRepo)
	applicationSvc := usecases.NewApplicationService(applicationRepo, merchantRepo, nil)
	chatSvc := usecases.NewChatService(chatRepo, publisher, nil)
	locationSvc := usecases.NewLocationService(ctx, provider, geocoder, kvStore, usecases.LocationParams{
		DefaultLocation: domain.GeoPoint{Lat: cfg.Location.DefaultLat, Lon: cfg.Location.DefaultLon},
		DefaultAddress:  cfg.Location.DefaultAddress,
		RequestTimeout:  cfg.Location.RequestTimeoutDuration(),
		WatchInterval:   cfg.Location.WatchIntervalDuration(),
	}, slog.Default(), nil)

	deps := &http.Dependencies{
		Benefits:     benefitSvc,
		Coupons:      couponSvc,
		Merchants:    merchantSvc,
		Bookmarks:    bookmarkSvc,
		Applications: applicationSvc,
		Chat:         chatSvc,
		Location:     locationSvc,
		NATS:         natsConn,
		DB:           db,
		Cache:        cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Jilju API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.jilju.app",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	locationSvc.CancelWatch()

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
