package bootstrap

import (
	"strings"
	"time"

	"deal_server/adapter/in/http"
	"deal_server/config"
	"deal_server/infra/middleware"
	"deal_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// NewAPI builds the HTTP server with the full dependency graph behind it.
// The returned cleanup closes every connection the graph opened.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logger.Init(logger.Config{
		Level:   logger.ParseLevel(cfg.LogLevel),
		Service: "deal-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		StrictRouting:         false,
		CaseSensitive:         false,

		ReadBufferSize:  16384,
		WriteBufferSize: 16384,

		// go-json in place of encoding/json for response serialization
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		// Submissions and preference updates are small documents.
		BodyLimit: 1 * 1024 * 1024,

		ServerHeader:       "",
		DisableDefaultDate: true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// The API is keyed by the X-Device-ID header, not cookies, so wildcard
	// origins without credentials are safe.
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,X-Request-ID,X-Device-ID",
		ExposeHeaders: "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset",
		MaxAge:        86400,
	}))

	// Health check (outside the API group)
	healthHandler := http.NewHealthHandlerWithDeps(deps.DB, deps.Redis)
	healthHandler.Register(app)

	if cfg.IsDevelopment() {
		RegisterDevRoutes(app, deps)
		logger.Info("Development routes enabled")
	}

	api := app.Group("/api/v1")

	rateLimiter := middleware.NewRateLimiter(300, time.Minute)
	api.Use(rateLimiter.Handler())

	// Tighter window on the manual ingest trigger
	api.Use("/admin", middleware.SensitiveEndpointLimiter(10, time.Minute))

	dealHandler := http.NewDealHandler(deps.FeedService, deps.SubmissionService)
	dealHandler.Register(api)

	storeHandler := http.NewStoreHandler(deps.StoreService)
	storeHandler.Register(api)

	preferencesHandler := http.NewPreferencesHandler(deps.PreferencesService)
	preferencesHandler.Register(api)

	sourceHandler := http.NewSourceHandler(deps.IngestionService, deps.Sources)
	sourceHandler.Register(api)

	// 404 fallback
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "route not found")
	})

	return app, cleanup, nil
}
