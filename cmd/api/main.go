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

	"github.com/oceanpulse/argochat/internal/adapters/gemini"
	"github.com/oceanpulse/argochat/internal/adapters/http"
	"github.com/oceanpulse/argochat/internal/adapters/memstore"
	natsadapter "github.com/oceanpulse/argochat/internal/adapters/nats"
	"github.com/oceanpulse/argochat/internal/adapters/postgres"
	"github.com/oceanpulse/argochat/internal/adapters/valkey"
	"github.com/oceanpulse/argochat/internal/core/domain"
	"github.com/oceanpulse/argochat/internal/core/ports"
	"github.com/oceanpulse/argochat/internal/core/usecases"
	"github.com/oceanpulse/argochat/internal/pkg/config"
	"github.com/oceanpulse/argochat/internal/pkg/logging"
	"github.com/oceanpulse/argochat/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("argochat-api")
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
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
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

	// Session/chat store: Valkey, falling back to in-process memory so
	// the demo runs without infrastructure
	var store ports.KVStore
	var cache ports.CacheService
	vk, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, state will not survive restarts", "error", err)
		mem := memstore.New()
		store = mem
		cache = mem.AsCache()
	} else {
		defer vk.Close()
		store = vk
		cache = vk.AsCache()
	}

	// NATS
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Completion client
	completer := gemini.New(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Timeout: time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second,
	})

	// Repos
	floatRepo := postgres.NewFloatRepo(db)

	// Use cases. Chat comes first so auth can clear it on logout.
	floatSvc := usecases.NewFloatService(floatRepo, cache)
	chatSvc := usecases.NewChatService(ctx, store, completer)
	authSvc := usecases.NewAuthService(ctx, store, chatSvc)
	settingsSvc := usecases.NewSettingsService(store)
	uploadSvc := usecases.NewUploadService(store)

	// Invalidate the floats cache when the ingestor publishes updates
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribeFloatPositions(ctx, func(ctx context.Context, _ *domain.Float) error {
			return cache.Delete(ctx, "floats:all")
		})
		if err != nil {
			slog.Warn("float position subscription failed", "error", err)
		}
	}

	deps := &http.Dependencies{
		Auth:     authSvc,
		Chat:     chatSvc,
		Floats:   floatSvc,
		Settings: settingsSvc,
		Uploads:  uploadSvc,
		NATS:     natsConn,
		DB:       db,
		Store:    store,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "ArgoChat API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.oceanpulse.io",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
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

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
