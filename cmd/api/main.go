package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/insight-api/docs"
	"github.com/straye-as/insight-api/internal/auth"
	"github.com/straye-as/insight-api/internal/config"
	"github.com/straye-as/insight-api/internal/database"
	"github.com/straye-as/insight-api/internal/http/handler"
	"github.com/straye-as/insight-api/internal/http/middleware"
	"github.com/straye-as/insight-api/internal/http/router"
	"github.com/straye-as/insight-api/internal/jobs"
	"github.com/straye-as/insight-api/internal/logger"
	"github.com/straye-as/insight-api/internal/report"
	"github.com/straye-as/insight-api/internal/repository"
	"github.com/straye-as/insight-api/internal/service"
	"github.com/straye-as/insight-api/internal/storage"
	"github.com/straye-as/insight-api/internal/warehouse"
	"go.uber.org/zap"
)

// @title Straye Insight API
// @version 1.0
// @description CRM reporting and analytics API: ad-hoc report generation, saved reports, dashboards and exports

// @contact.name API Support
// @contact.email support@straye.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "insight-staging.straye.no"
	case "production":
		docs.SwaggerInfo.Host = "insight.straye.no"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets resolved
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	exportStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Warehouse connection is optional; the API runs without it
	whClient, err := warehouse.NewClient(&cfg.Warehouse, log)
	if err != nil {
		log.Warn("Warehouse connection failed, continuing without it", zap.Error(err))
	}

	// Repositories
	reportStore := repository.NewReportStore(db)
	reportRepo := repository.NewReportRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Aggregation engine
	engine := report.NewEngine(reportStore, report.DefaultRegistry(), log)

	// Services
	reportService := service.NewReportService(engine, reportRepo, exportStorage, log)
	dashboardService := service.NewDashboardService(dashboardRepo, reportRepo, log)
	folderService := service.NewFolderService(folderRepo, log)
	notificationService := service.NewNotificationService(notificationRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	reportHandler := handler.NewReportHandler(reportService, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, log)
	folderHandler := handler.NewFolderHandler(folderService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		whClient,
		authMiddleware,
		rateLimiter,
		reportHandler,
		dashboardHandler,
		folderHandler,
		notificationHandler,
	)

	// Background jobs: snapshot refresh and warehouse mirror
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		snapshotJob := jobs.NewSnapshotJob(reportService, notificationService, log, 30*time.Minute)
		if err := scheduler.AddJob(jobs.SnapshotJobName, cfg.Jobs.SnapshotRefreshSchedule, snapshotJob.Run); err != nil {
			log.Error("Failed to register snapshot job", zap.Error(err))
		}

		if whClient.IsEnabled() {
			syncJob := jobs.NewWarehouseSyncJob(reportService, whClient, log, 10*time.Minute)
			if err := scheduler.AddJob(jobs.WarehouseSyncJobName, cfg.Jobs.WarehouseSyncSchedule, syncJob.Run); err != nil {
				log.Error("Failed to register warehouse sync job", zap.Error(err))
			}
		}

		scheduler.Start()
		log.Info("Scheduler started", zap.Strings("jobs", scheduler.GetJobNames()))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := whClient.Close(); err != nil {
			log.Warn("Error closing warehouse connection", zap.Error(err))
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
