package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/insight-api/internal/auth"
	"github.com/straye-as/insight-api/internal/config"
	"github.com/straye-as/insight-api/internal/database"
	"github.com/straye-as/insight-api/internal/http/handler"
	"github.com/straye-as/insight-api/internal/http/middleware"
	"github.com/straye-as/insight-api/internal/warehouse"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/straye-as/insight-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	db                  *gorm.DB
	warehouseClient     *warehouse.Client
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	reportHandler       *handler.ReportHandler
	dashboardHandler    *handler.DashboardHandler
	folderHandler       *handler.FolderHandler
	notificationHandler *handler.NotificationHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	warehouseClient *warehouse.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	reportHandler *handler.ReportHandler,
	dashboardHandler *handler.DashboardHandler,
	folderHandler *handler.FolderHandler,
	notificationHandler *handler.NotificationHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		db:                  db,
		warehouseClient:     warehouseClient,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		reportHandler:       reportHandler,
		dashboardHandler:    dashboardHandler,
		folderHandler:       folderHandler,
		notificationHandler: notificationHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness probe
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health with pool stats
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Readiness probe checking all dependencies
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		// The warehouse is optional; degraded status does not flip readiness
		whStatus := rt.warehouseClient.HealthCheck(r.Context())
		checks["warehouse"] = whStatus

		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		code := http.StatusOK
		if !allHealthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Reports
			r.Route("/reports", func(r chi.Router) {
				r.Post("/generate", rt.reportHandler.Generate)
				r.Get("/fields/{entity}", rt.reportHandler.Fields)
				r.Get("/", rt.reportHandler.List)
				r.Post("/", rt.reportHandler.Create)
				r.Get("/{id}", rt.reportHandler.GetByID)
				r.Put("/{id}", rt.reportHandler.Update)
				r.Delete("/{id}", rt.reportHandler.Delete)
				r.Get("/{id}/results", rt.reportHandler.Results)
				r.Get("/{id}/export", rt.reportHandler.Export)
			})

			// Dashboards
			r.Route("/dashboards", func(r chi.Router) {
				r.Get("/", rt.dashboardHandler.List)
				r.Post("/", rt.dashboardHandler.Create)
				r.Get("/{id}", rt.dashboardHandler.GetByID)
				r.Put("/{id}", rt.dashboardHandler.Update)
				r.Delete("/{id}", rt.dashboardHandler.Delete)
				r.Put("/{id}/placements", rt.dashboardHandler.ReplacePlacements)
			})

			// Folders
			r.Route("/folders", func(r chi.Router) {
				r.Get("/", rt.folderHandler.List)
				r.Post("/", rt.folderHandler.Create)
				r.Put("/{id}", rt.folderHandler.Update)
				r.Delete("/{id}", rt.folderHandler.Delete)
			})

			// Notifications
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", rt.notificationHandler.List)
				r.Get("/unread-count", rt.notificationHandler.UnreadCount)
				r.Post("/read-all", rt.notificationHandler.MarkAllRead)
				r.Post("/{id}/read", rt.notificationHandler.MarkRead)
			})
		})
	})

	return r
}
