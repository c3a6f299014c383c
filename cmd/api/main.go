package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"openlabel/internal/config"
	"openlabel/internal/database"
	"openlabel/internal/database/migration"
	"openlabel/internal/export"
	handlers "openlabel/internal/http/handler"
	"openlabel/internal/http/middleware"
	"openlabel/internal/otel"
	"openlabel/internal/repository/postgres"
	"openlabel/internal/service"
	"openlabel/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, time.UTC)
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

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize repositories and services
	userRepo := postgres.NewUserPostgres(db)
	projectRepo := postgres.NewProjectPostgres(db)
	fileRepo := postgres.NewFilePostgres(db)
	annotationRepo := postgres.NewAnnotationPostgres(db)

	userSvc := service.NewUserService(userRepo)
	projectSvc := service.NewProjectService(projectRepo, fileRepo, userRepo, objStore, logger)
	fileSvc := service.NewFileService(fileRepo, annotationRepo, projectRepo, userRepo, objStore, logger)
	annotationSvc := service.NewAnnotationService(annotationRepo, fileRepo)

	registry := prometheus.NewRegistry()

	exporter, err := export.New(projectRepo, fileRepo, annotationRepo, objStore, logger, cfg.Export.ScratchDir, registry)
	if err != nil {
		log.Fatalf("failed to initialize exporter: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, userSvc, projectSvc, fileSvc, annotationSvc, exporter, cfg.Export.DefaultValidationRatio)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
