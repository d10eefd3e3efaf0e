package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/cache"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/config"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/handler"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/middleware"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/mutation"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/readmodel"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/repository/postgres"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/service"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title EventBudget API
// @version 1.0
// @description Event budget planning API: events, categories, expenses and payment schedules.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Auth0 access token, formatted as "Bearer {token}"
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := postgres.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Connected to database")

	healthChecks := map[string]handler.HealthCheck{"postgres": pool.Ping}

	// Shared read model cache
	var store cache.Store = cache.NewMemoryStore()
	if cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		store = cache.NewRedisStore(client, "eventbudget:", cfg.Cache.TTL)
		healthChecks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		log.Info().Msg("Using redis cache")
	} else {
		log.Info().Msg("Using in-memory cache")
	}

	// Initialize repositories
	eventRepo := postgres.NewEventRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	expenseRepo := postgres.NewExpenseRepository(pool)

	// Initialize services
	eventService := service.NewEventService(eventRepo, categoryRepo, expenseRepo)
	categoryService := service.NewCategoryService(categoryRepo, eventService)
	expenseService := service.NewExpenseService(expenseRepo, categoryRepo, eventService)
	paymentService := service.NewPaymentService(expenseRepo, eventService)

	// Real-time invalidation fan-out
	hub := websocket.NewHub()

	layer := mutation.NewLayer(store, service.NewActions(eventService, categoryService, paymentService), log.Logger)
	layer.SetEventPublisher(hub)

	reader := readmodel.NewReader(store, eventService, categoryService, expenseService, cache.RetryPolicy{
		MaxAttempts: cfg.Cache.RetryAttempts,
		Backoff:     cfg.Cache.RetryBackoff,
		Classify:    postgres.ClassifyError,
	})

	totalsWorker := service.NewTotalsWorker(eventService, eventRepo, layer, log.Logger, service.TotalsWorkerConfig{
		Interval: cfg.TotalsSyncInterval,
	})
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	totalsWorker.Start(workerCtx)

	// Initialize auth
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create websocket token validator")
	}
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.Mutation.RateLimit, cfg.Mutation.RateBurst)
	defer rateLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Events:     handler.NewEventHandler(eventService, reader, layer),
		Categories: handler.NewCategoryHandler(reader, layer),
		Expenses:   handler.NewExpenseHandler(expenseService, reader, layer),
		Payments:   handler.NewPaymentHandler(layer),
		Mutations:  handler.NewMutationHandler(layer.Tracker()),
		Health:     handler.NewHealthHandler(hub, healthChecks),
		WebSocket:  handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins),

		OpenAPIServers: handler.OpenAPI3Servers(cfg.Port, cfg.PublicURL),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	totalsWorker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("user_id", middleware.GetUserID(c)).
				Msg("request")

			return nil
		}
	}
}
