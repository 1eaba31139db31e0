package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/chart"
	"github.com/dafibh/ledger/ledger-backend/internal/config"
	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/handler"
	"github.com/dafibh/ledger/ledger-backend/internal/middleware"
	"github.com/dafibh/ledger/ledger-backend/internal/repository/cache"
	"github.com/dafibh/ledger/ledger-backend/internal/repository/postgres"
	"github.com/dafibh/ledger/ledger-backend/internal/repository/storage"
	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

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

	ctx := context.Background()

	// Connect to database
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Connected to database")

	if err := postgres.RunMigrations(pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)

	// Report image cache (optional)
	var reportCache domain.ReportImageCache = cache.NoopReportCache{}
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer client.Close()
		reportCache = cache.NewRedisReportCache(client, cfg.ReportCacheTTL)
		log.Info().Dur("ttl", cfg.ReportCacheTTL).Msg("Report image cache enabled")
	}

	// Backup storage (optional)
	var backupStorage domain.BackupStorage
	if cfg.S3.Enabled() {
		s3Repo, err := storage.NewS3BackupRepository(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 backup storage")
		}
		backupStorage = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Backups enabled")
	}

	// Initialize services
	userService := service.NewUserService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo, reportCache)
	transactionService := service.NewTransactionService(transactionRepo, reportCache)
	reportService := service.NewReportService(transactionRepo)
	chartService := service.NewChartService(reportService, chart.NewRenderer(), reportCache)
	backupService := service.NewBackupService(postgres.NewBackupRepository(pool), backupStorage, cfg.BackupPrefix)

	// Scheduled backups
	var backupWorker *service.BackupWorker
	var backupStatus handler.BackupStatus
	if cfg.BackupInterval > 0 {
		workerCfg := service.DefaultBackupWorkerConfig()
		workerCfg.Interval = cfg.BackupInterval
		backupWorker = service.NewBackupWorker(backupService, log.Logger, workerCfg)
		backupWorker.Start(ctx)
		backupStatus = backupWorker
	}

	authMiddleware := middleware.NewAPIKeyAuthMiddleware(cfg.APIKeys)
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		MaxAge:       86400,
	}))

	// Security headers middleware
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	e.Use(echomiddleware.BodyLimit("64K"))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handler.Handlers{
		Health:      handler.NewHealthHandler(pool, backupStatus),
		User:        handler.NewUserHandler(userService),
		Category:    handler.NewCategoryHandler(categoryService),
		Transaction: handler.NewTransactionHandler(transactionService),
		Report:      handler.NewReportHandler(reportService),
		Chart:       handler.NewChartHandler(chartService),
		Backup:      handler.NewBackupHandler(backupService),
	})

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

	if backupWorker != nil {
		backupWorker.Stop()
	}
	rateLimiter.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
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
				Str("client", middleware.GetClientID(c)).
				Msg("request")

			return nil
		}
	}
}
