package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rohanmhetar/nivaasa-backend/internal/cache"
	"github.com/rohanmhetar/nivaasa-backend/internal/config"
	"github.com/rohanmhetar/nivaasa-backend/internal/database"
	"github.com/rohanmhetar/nivaasa-backend/internal/handlers"
	"github.com/rohanmhetar/nivaasa-backend/internal/logging"
	"github.com/rohanmhetar/nivaasa-backend/internal/middleware"
	"github.com/rohanmhetar/nivaasa-backend/internal/routes"
	"github.com/rohanmhetar/nivaasa-backend/internal/services"
	"github.com/rohanmhetar/nivaasa-backend/internal/storage"
	"github.com/rohanmhetar/nivaasa-backend/internal/uploads"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.FirebaseProjectID == "" {
		slog.Error("FIREBASE_PROJECT_ID environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	logging.Setup(pgLogHandler)

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cleanupDone)

	// Object storage: S3 when a bucket is configured, local memory otherwise.
	var store storage.ObjectStore
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			slog.Error("s3 storage init failed", "bucket", cfg.S3Bucket, "error", err)
			os.Exit(1)
		}
		store = s3Store
		slog.Info("using s3 object storage", "bucket", cfg.S3Bucket, "region", cfg.S3Region)
	} else {
		store = storage.NewMemoryStore()
		slog.Warn("S3_BUCKET not set, storing uploads in memory")
	}
	uploader := uploads.New(store)

	// Listing cache is optional; cache.New returns nil when no Redis address
	// is configured and every method on the nil cache is a no-op.
	listingCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL)
	if listingCache != nil {
		slog.Info("listing cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	}

	// Services
	verifier := services.NewGoogleJWKSClient(cfg.FirebaseProjectID)
	userService := services.NewUserService(db)
	authService := services.NewAuthService(db, cfg, userService, verifier)
	propertyService := services.NewPropertyService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	propertyHandler := handlers.NewPropertyHandler(propertyService, uploader, listingCache)
	healthHandler := handlers.NewHealthHandler(db)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    12 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, authService, authHandler, userHandler, propertyHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
