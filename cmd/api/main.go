package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/shelfwatch/backend/internal/cache"
	"github.com/shelfwatch/backend/internal/config"
	"github.com/shelfwatch/backend/internal/fetcher"
	"github.com/shelfwatch/backend/internal/handler"
	"github.com/shelfwatch/backend/internal/repository"
	"github.com/shelfwatch/backend/internal/scheduler"
	"github.com/shelfwatch/backend/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup structured logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// The cache is fail-open; a missing Redis only costs freshness.
		logger.Warn("Redis unreachable, cache will degrade to misses",
			slog.String("error", err.Error()))
	}
	defer func() { _ = redisClient.Close() }()

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	// Initialize pipeline collaborators
	snapshotCache := cache.NewRedisCache(redisClient, cfg.SnapshotCacheTTL, logger)
	amazonFetcher := fetcher.NewAmazonFetcher(cfg.FetchTimeout, logger)

	// Initialize services
	trackingService := service.NewTrackingService(
		productRepo, snapshotRepo, alertRepo,
		amazonFetcher, snapshotCache, service.NoopNotifier{},
	)
	batchService := service.NewBatchService(productRepo, trackingService, cfg.BatchConcurrency)
	productService := service.NewProductService(productRepo)
	alertService := service.NewAlertService(alertRepo)
	metricsService := service.NewMetricsService(productRepo, snapshotRepo)

	// Initialize handlers
	productHandler := handler.NewProductHandler(productService, trackingService, batchService)
	alertHandler := handler.NewAlertHandler(alertService)
	metricsHandler := handler.NewMetricsHandler(metricsService, productService)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(handler.AuthMiddleware)

		// Products
		r.Get("/api/products", productHandler.List)
		r.Post("/api/products", productHandler.Track)
		r.Post("/api/products/refresh", productHandler.BatchRefresh)
		r.Get("/api/products/{id}", productHandler.Get)
		r.Put("/api/products/{id}", productHandler.Update)
		r.Delete("/api/products/{id}", productHandler.Delete)
		r.Get("/api/products/{id}/current", productHandler.Current)
		r.Post("/api/products/{id}/refresh", productHandler.Refresh)

		// Alerts
		r.Get("/api/alerts", alertHandler.List)
		r.Get("/api/alerts/unread-count", alertHandler.UnreadCount)
		r.Post("/api/alerts/read-all", alertHandler.MarkAllRead)
		r.Post("/api/alerts/{id}/read", alertHandler.MarkRead)
		r.Post("/api/alerts/{id}/dismiss", alertHandler.Dismiss)

		// Metrics
		r.Get("/api/metrics/comparison", metricsHandler.Comparison)
		r.Get("/api/metrics/{id}/summary", metricsHandler.Summary)
	})

	// Initialize and start the refresh/purge scheduler
	var refreshScheduler *scheduler.Scheduler
	if cfg.RefreshEnabled {
		schedCfg := scheduler.Config{
			Schedule:      cfg.RefreshSchedule,
			Timeout:       cfg.RefreshTimeout,
			Enabled:       cfg.RefreshEnabled,
			RetentionDays: cfg.SnapshotRetentionDays,
		}
		refreshScheduler = scheduler.New(schedCfg, batchService, snapshotRepo, logger)
		if err := refreshScheduler.Start(); err != nil {
			logger.Error("Failed to start refresh scheduler", slog.String("error", err.Error()))
		}
	}

	// Create server
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		// Stop scheduler first
		if refreshScheduler != nil {
			ctx := refreshScheduler.Stop()
			<-ctx.Done()
			logger.Info("Scheduler stopped")
		}

		// Shutdown HTTP server
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Server failed: %v", err)
	}
}
