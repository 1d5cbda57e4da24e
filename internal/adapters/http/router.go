package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/jiljuapp/jilju/internal/pkg/metrics"
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

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")

	// Benefit catalog
	v1.Get("/benefits/nearby", timeout.NewWithContext(NearbyBenefitsHandler(deps), 15*time.Second))
	v1.Get("/benefits/search", timeout.NewWithContext(SearchBenefitsHandler(deps), 15*time.Second))
	v1.Get("/benefits/:id", timeout.NewWithContext(GetBenefitHandler(deps), 15*time.Second))

	// Regions
	v1.Get("/regions", ListRegionsHandler())
	v1.Get("/regions/resolve", ResolveRegionHandler())
	v1.Get("/regions/:region/benefits", timeout.NewWithContext(RegionBenefitsHandler(deps), 15*time.Second))

	// Coupons
	v1.Post("/coupons", timeout.NewWithContext(IssueCouponHandler(deps), 15*time.Second))
	v1.Post("/coupons/redeem-pin", timeout.NewWithContext(RedeemByPINHandler(deps), 15*time.Second))
	v1.Get("/coupons/:token", timeout.NewWithContext(GetCouponHandler(deps), 15*time.Second))
	v1.Post("/coupons/:token/redeem", timeout.NewWithContext(RedeemCouponHandler(deps), 15*time.Second))

	// Merchants
	v1.Get("/merchants", timeout.NewWithContext(ListMerchantsHandler(deps), 15*time.Second))
	v1.Get("/merchants/:slug", timeout.NewWithContext(GetMerchantHandler(deps), 15*time.Second))
	v1.Get("/merchants/:slug/benefits", timeout.NewWithContext(MerchantBenefitsHandler(deps), 15*time.Second))
	v1.Get("/merchants/:slug/stats", timeout.NewWithContext(MerchantStatsHandler(deps), 15*time.Second))

	// Users
	v1.Get("/users/:id/coupons", timeout.NewWithContext(UserCouponsHandler(deps), 15*time.Second))
	v1.Get("/users/:id/bookmarks", timeout.NewWithContext(UserBookmarksHandler(deps), 15*time.Second))

	// Bookmarks
	v1.Post("/bookmarks", timeout.NewWithContext(AddBookmarkHandler(deps), 15*time.Second))
	v1.Delete("/bookmarks", timeout.NewWithContext(RemoveBookmarkHandler(deps), 15*time.Second))

	// Merchant applications (operator review board)
	v1.Post("/applications", timeout.NewWithContext(SubmitApplicationHandler(deps), 15*time.Second))
	v1.Get("/applications", timeout.NewWithContext(ListApplicationsHandler(deps), 15*time.Second))
	v1.Post("/applications/:id/transition", timeout.NewWithContext(TransitionApplicationHandler(deps), 15*time.Second))

	// Location session
	v1.Get("/location", CurrentLocationHandler(deps))
	v1.Post("/location/resolve", timeout.NewWithContext(ResolveLocationHandler(deps), 15*time.Second))
	v1.Post("/location/watch", StartWatchHandler(deps))
	v1.Delete("/location/watch", StopWatchHandler(deps))

	// Support chat history
	v1.Get("/chat/:room/history", timeout.NewWithContext(ChatHistoryHandler(deps), 15*time.Second))

	// Catalog stats
	v1.Get("/catalog/stats", timeout.NewWithContext(CatalogStatsHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket chat relay
	app.Use("/ws/chat", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(ChatWebSocketHandler(deps.NATS)))
}
