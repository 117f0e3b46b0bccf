package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron"

	"github.com/yungbote/activity-tracker-backend/internal/config"
	"github.com/yungbote/activity-tracker-backend/internal/data/db"
	activityrepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/activity"
	goalrepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/goal"
	updaterepo "github.com/yungbote/activity-tracker-backend/internal/data/repos/update"
	"github.com/yungbote/activity-tracker-backend/internal/http/handlers"
	"github.com/yungbote/activity-tracker-backend/internal/observability"
	"github.com/yungbote/activity-tracker-backend/internal/platform/instancelock"
	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
	"github.com/yungbote/activity-tracker-backend/internal/platform/secretkey"
	"github.com/yungbote/activity-tracker-backend/internal/server"
	"github.com/yungbote/activity-tracker-backend/internal/services"
)

func main() {
	// Config
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		fmt.Printf("Failed to prepare data dirs: %v\n", err)
		os.Exit(1)
	}

	// Logger
	log, err := logger.New(cfg.LogMode, cfg.LogFile)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Starting activity tracker", "profile", cfg.Profile, "version", cfg.Version)

	// Single instance guard
	lock, err := instancelock.Acquire(cfg.LockFile)
	if err != nil {
		if errors.Is(err, instancelock.ErrHeld) {
			log.Error("Another instance is already running", "lock_file", cfg.LockFile)
		} else {
			log.Error("Could not acquire instance lock", "error", err)
		}
		os.Exit(1)
	}
	defer lock.Release()

	// Secret key
	if _, err := secretkey.LoadOrCreate(cfg.SecretKeyFile); err != nil {
		log.Error("Could not load secret key", "error", err)
		os.Exit(1)
	}

	// SQLite
	sqliteService, err := db.NewSQLiteService(cfg.DBPath, log)
	if err != nil {
		log.Error("SQLite init failed", "error", err)
		os.Exit(1)
	}
	defer sqliteService.Close()
	if err := sqliteService.AutoMigrateAll(); err != nil {
		log.Error("SQLite migration failed", "error", err)
		os.Exit(1)
	}
	theDB := sqliteService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	activityRepo := activityrepo.NewActivityRepo(theDB, log)
	updateRepo := updaterepo.NewUpdateRepo(theDB, log)
	goalRepo := goalrepo.NewGoalRepo(theDB, log)

	// Services
	log.Info("Setting up Services from main...")
	activityService := services.NewActivityService(theDB, log, activityRepo, updateRepo)
	dashboardService := services.NewDashboardService(theDB, log, activityRepo, updateRepo)
	analyticsService := services.NewAnalyticsService(theDB, log, activityRepo, updateRepo, cfg.CacheTTL)
	goalService := services.NewGoalService(theDB, log, goalRepo)
	exportService := services.NewExportService(theDB, log, activityRepo, updateRepo, goalRepo, cfg.DBPath)
	reportService := services.NewReportService(theDB, log, activityRepo, updateRepo)
	backupService := services.NewBackupService(log, cfg.DBPath, cfg.BackupDir, cfg.BackupKeep)

	// Metrics
	if cfg.MetricsEnabled {
		os.Setenv("METRICS_ENABLED", "true")
	}
	metrics := observability.Init(log)
	metrics.StartDBStatsCollector(context.Background(), log, theDB)

	// Startup backup plus a scheduled one. A failed backup never blocks
	// serving; the data file is still on disk.
	runBackup := func() {
		if _, err := backupService.Run(context.Background()); err != nil {
			log.Warn("Backup failed", "error", err)
			metrics.IncBackupRun("failure")
			return
		}
		metrics.IncBackupRun("success")
	}
	if cfg.DBPath != ":memory:" {
		runBackup()
	}
	scheduler := cron.New()
	if err := scheduler.AddFunc(cfg.BackupSchedule, runBackup); err != nil {
		log.Warn("Invalid backup schedule", "schedule", cfg.BackupSchedule, "error", err)
	} else {
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	activityHandler := handlers.NewActivityHandler(log, activityService, metrics)
	dashboardHandler := handlers.NewDashboardHandler(log, dashboardService, goalService)
	goalHandler := handlers.NewGoalHandler(log, goalService, metrics)
	analyticsHandler := handlers.NewAnalyticsHandler(log, analyticsService)
	searchHandler := handlers.NewSearchHandler(log, activityService)
	exportHandler := handlers.NewExportHandler(log, exportService, metrics)
	reportHandler := handlers.NewReportHandler(log, reportService)
	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.Profile)

	// Router
	log.Info("Setting up router from main...")
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		CSRFEnabled:      cfg.CSRFEnabled,
		ActivityHandler:  activityHandler,
		DashboardHandler: dashboardHandler,
		GoalHandler:      goalHandler,
		AnalyticsHandler: analyticsHandler,
		SearchHandler:    searchHandler,
		ExportHandler:    exportHandler,
		ReportHandler:    reportHandler,
		HealthHandler:    healthHandler,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		log.Info("Server listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("Forced shutdown", "error", err)
	}
	log.Info("Server stopped")
}
