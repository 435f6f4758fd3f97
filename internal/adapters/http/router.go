package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/placemap/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// RouterOptions tunes the middleware chain.
type RouterOptions struct {
	// RateLimit is the number of requests per minute per IP; 0 disables limiting.
	RateLimit int
}

// DefaultRouterOptions are used by the API server.
var DefaultRouterOptions = RouterOptions{RateLimit: 120}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, opts RouterOptions) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	app.Use(AccessLogMiddleware())

	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
			},
		}))
	}

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))

	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}
	requireAuth := RequireAuth(deps)

	app.Post("/auth/register", withTimeout(RegisterHandler(deps)))
	app.Post("/auth/login", withTimeout(LoginHandler(deps)))

	places := app.Group("/places")
	places.Post("/", withTimeout(CreatePlaceHandler(deps)))
	places.Get("/nearby/search", withTimeout(NearbyPlacesHandler(deps)))
	places.Get("/route/distance", withTimeout(DistanceHandler(deps)))
	places.Get("/:id", withTimeout(GetPlaceHandler(deps)))
	places.Delete("/:id", requireAuth, withTimeout(DeletePlaceHandler(deps)))

	// Static segments before /:id.
	users := app.Group("/users")
	users.Get("/nearby", withTimeout(NearbyUsersHandler(deps)))
	users.Get("/search", withTimeout(SearchUsersHandler(deps)))
	users.Get("/me", requireAuth, withTimeout(MeHandler(deps)))
	users.Patch("/me", requireAuth, withTimeout(UpdateMeHandler(deps)))
	users.Put("/me/location", requireAuth, withTimeout(UpdateLocationHandler(deps)))
	users.Delete("/me", requireAuth, withTimeout(DeleteMeHandler(deps)))
	users.Post("/me/avatar", requireAuth, withTimeout(UploadAvatarHandler(deps)))
	users.Get("/:id", withTimeout(GetUserHandler(deps)))
	users.Post("/:id/stats", requireAuth, withTimeout(IncrementStatHandler(deps)))

	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}
