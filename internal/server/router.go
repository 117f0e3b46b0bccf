package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/activity-tracker-backend/internal/http/handlers"
	"github.com/yungbote/activity-tracker-backend/internal/http/middleware"
	"github.com/yungbote/activity-tracker-backend/internal/observability"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log              *logger.Logger
	Metrics          *observability.Metrics
	CORSOrigins      []string
	CSRFEnabled      bool
	ActivityHandler  *handlers.ActivityHandler
	DashboardHandler *handlers.DashboardHandler
	GoalHandler      *handlers.GoalHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	SearchHandler    *handlers.SearchHandler
	ExportHandler    *handlers.ExportHandler
	ReportHandler    *handlers.ReportHandler
	HealthHandler    *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		AllowCredentials: true,
	}))

	router.Use(middleware.RequestContext())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.Metrics(cfg.Metrics))
	router.Use(middleware.OriginGuard(cfg.CSRFEnabled, cfg.CORSOrigins))

	router.GET("/health", cfg.HealthHandler.HealthCheck)
	if cfg.Metrics != nil {
		router.GET("/metrics", func(c *gin.Context) {
			cfg.Metrics.WriteHTTP(c.Writer, c.Request)
		})
	}

	// Dashboard
	router.GET("/", cfg.DashboardHandler.Dashboard)
	router.GET("/activities", cfg.DashboardHandler.Activities)
	router.GET("/search", cfg.SearchHandler.Search)
	router.GET("/completed", cfg.ActivityHandler.Completed)

	// Activities
	router.GET("/add", cfg.ActivityHandler.NewActivityForm)
	router.POST("/add", cfg.ActivityHandler.Create)
	router.GET("/edit/:id", cfg.ActivityHandler.GetActivity)
	router.POST("/edit/:id", cfg.ActivityHandler.Edit)
	router.GET("/delete/:id", cfg.ActivityHandler.Delete)
	router.GET("/activity/:id", cfg.ActivityHandler.Detail)
	router.POST("/activity/:id/status", cfg.ActivityHandler.ChangeStatus)
	router.POST("/activity/:id/update", cfg.ActivityHandler.AppendUpdate)
	router.POST("/activities/bulk/priority", cfg.ActivityHandler.BulkPriority)

	// Goals
	router.POST("/goal/add", cfg.GoalHandler.Add)
	router.POST("/goal/edit/:id", cfg.GoalHandler.Edit)
	router.GET("/goal/toggle/:id", cfg.GoalHandler.Toggle)
	router.GET("/goal/delete/:id", cfg.GoalHandler.Delete)

	// Analytics
	router.GET("/analytics", cfg.AnalyticsHandler.Analytics)
	router.GET("/timeline", cfg.AnalyticsHandler.Timeline)

	// Exports
	router.GET("/export/csv", cfg.ExportHandler.CSV)
	router.GET("/export/all", cfg.ExportHandler.All)

	// Reports
	router.GET("/report", cfg.ReportHandler.Report)
	router.POST("/report", cfg.ReportHandler.Report)
	router.POST("/report/pdf", cfg.ReportHandler.PDF)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "route not found"}})
	})

	return router
}
