package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"photovault/internal/analyzer"
	"photovault/internal/config"
	"photovault/internal/database"
	"photovault/internal/database/migration"
	handlers "photovault/internal/http/handler"
	"photovault/internal/http/middleware"
	"photovault/internal/otel"
	"photovault/internal/repository/postgres"
	"photovault/internal/service"
	"photovault/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()
	loc := time.UTC

	// Tracing degrades to a noop provider when no collector is reachable
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// External content analyzer; ANALYZER_PROVIDER=none yields the disabled one
	an, err := analyzer.New(cfg.Analyzer)
	if err != nil {
		log.Fatalf("failed to initialize analyzer: %v", err)
	}

	// Initialize repositories and services
	photoRepo := postgres.NewPhotoPostgres(db)
	tagRepo := postgres.NewTagPostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	photoSvc := service.NewPhotoService(objStore, photoRepo, tagRepo, an, cfg.Upload, cfg.Analyzer.Timeout)
	authSvc := service.NewAuthService(userRepo, cfg.Auth)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Multipart encoding adds overhead on top of the raw file size
		BodyLimit: int(cfg.Upload.MaxBytes) + 1<<20,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, cfg.Auth.JWTSecret, authSvc, photoSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
