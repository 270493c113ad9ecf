package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"safeswipe/docs"
	"safeswipe/internal/config"
	"safeswipe/internal/database"
	"safeswipe/internal/database/migration"
	"safeswipe/internal/detector"
	handlers "safeswipe/internal/http/handler"
	"safeswipe/internal/http/middleware"
	"safeswipe/internal/otel"
	"safeswipe/internal/repository/postgres"
	"safeswipe/internal/service"
	"safeswipe/internal/storage"
)

// @title SafeSwipe API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Initialize tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Remote classifier. A failed probe is logged but not fatal: hosted
	// models spin down when idle and come back on first request.
	det := detector.NewHFClient(cfg.Detector)
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := det.CheckHealth(probeCtx); err != nil {
		log.Printf("model %s not reachable yet: %v", det.ModelID(), err)
	}
	cancel()

	// Initialize repositories and services
	scanRepo := postgres.NewScanPostgres(db)
	scanSvc := service.NewScanService(objStore, scanRepo, det, service.Options{
		MaxFiles:        cfg.Analysis.MaxFiles,
		NearDupDistance: cfg.Analysis.NearDupDistance,
		Concurrency:     cfg.Analysis.Concurrency,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.Analysis.MaxUploadMB * 1024 * 1024,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMw, err := middleware.NewPrometheusMiddleware(prometheus.NewRegistry())
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", promMw.Exporter())

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, scanSvc)

	// Swagger UI with dynamic host and scheme
	docs.SwaggerInfo.Host = cfg.AppHost
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
