package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/oceanpulse/argochat/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Sunset headers for the pre-rename catalog path
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/argo/floats",
			SunsetDate:  time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/floats",
		},
	}))

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")

	// Session lifecycle
	v1.Post("/auth/login", timeout.NewWithContext(LoginHandler(deps), 15*time.Second))
	v1.Post("/auth/register", timeout.NewWithContext(RegisterHandler(deps), 15*time.Second))
	v1.Post("/auth/guest", timeout.NewWithContext(GuestHandler(deps), 15*time.Second))
	v1.Post("/auth/logout", timeout.NewWithContext(LogoutHandler(deps), 15*time.Second))
	v1.Get("/auth/session", SessionHandler(deps))

	// Float catalog (public, read-only)
	v1.Get("/floats", timeout.NewWithContext(ListFloatsHandler(deps), 15*time.Second))
	v1.Get("/floats/markers", timeout.NewWithContext(FloatMarkersHandler(deps), 15*time.Second))
	v1.Get("/floats/nearby", timeout.NewWithContext(NearbyFloatsHandler(deps), 15*time.Second))
	v1.Get("/floats/:id", timeout.NewWithContext(GetFloatHandler(deps), 15*time.Second))
	v1.Get("/catalog/stats", timeout.NewWithContext(CatalogStatsHandler(deps), 15*time.Second))

	// Legacy alias, kept for older SPA builds until the sunset date
	v1.Get("/argo/floats", timeout.NewWithContext(ListFloatsHandler(deps), 15*time.Second))

	// Chat — requires an active session
	chat := v1.Group("/chat", RequireSession(deps))
	chat.Post("/", timeout.NewWithContext(ChatHandler(deps), 15*time.Second))
	chat.Get("/messages", MessagesHandler(deps))
	chat.Get("/quota", QuotaHandler(deps))
	chat.Post("/threads", NewThreadHandler(deps))
	chat.Get("/threads", ListThreadsHandler(deps))
	chat.Post("/threads/:id/select", SelectThreadHandler(deps))
	chat.Delete("/history", ClearHistoryHandler(deps))

	// Settings & uploads — requires an active session
	settings := v1.Group("/settings", RequireSession(deps))
	settings.Get("/", GetSettingsHandler(deps))
	settings.Put("/", UpdateSettingsHandler(deps))

	uploads := v1.Group("/uploads", RequireSession(deps))
	uploads.Get("/", ListUploadsHandler(deps))
	uploads.Post("/", AddUploadHandler(deps))
	uploads.Delete("/:id", DeleteUploadHandler(deps))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if deps.NATS == nil {
			return errServiceUnavailable(c, "realtime feed unavailable")
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
