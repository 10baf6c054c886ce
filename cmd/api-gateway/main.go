package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/internal/workload"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/jobs"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 1.0.0
// @description Session-scoped timetable workspace: time grid, schedule edits with audit and revert, projected views, workload distribution and exports.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Pinger{}

	var db *sqlx.DB
	if cfg.Roster.Enabled || cfg.Exports.Enabled {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect database", zap.Error(err))
		}
		defer db.Close()
		if cfg.Database.AutoMigrate {
			if err := database.RunMigrations(db.DB, logr); err != nil {
				logr.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		checks["postgres"] = handler.PingFunc(db.PingContext)
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if cfg.ViewCache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, view cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			checks["redis"] = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.ViewCache.TTL, logr, cacheRepo != nil)

	var rosterSvc *service.RosterService
	if cfg.Roster.Enabled && db != nil {
		rosterSvc = service.NewRosterService(repository.NewRosterRepository(db), metrics, logr)
	} else {
		rosterSvc = service.NewRosterService(nil, metrics, logr)
	}

	sessionSvc := service.NewSessionService(rosterSvc, cacheSvc, metrics, validate, logr, service.SessionServiceConfig{
		TTL:             cfg.Sessions.TTL,
		JanitorInterval: cfg.Sessions.JanitorInterval,
		AuditLogLimit:   cfg.Sessions.AuditLogLimit,
	})
	timetableSvc := service.NewTimetableService(sessionSvc, cacheSvc, metrics, validate, logr)
	workloadSvc := service.NewWorkloadService(sessionSvc, workload.NewDistributor(nil), metrics, validate, logr)

	exportSvc, exportJobSvc, queue := buildExports(cfg, db, sessionSvc, metrics, logr)
	if queue != nil {
		queue.Start(ctx)
		defer queue.Stop()
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
		sessionSvc.OnDrop(exportJobSvc.DiscardSession)
	}
	sessionSvc.StartJanitor(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", metricsHandler.Snapshot)
	registerRoutes(api, routeHandlers{
		sessions:  handler.NewSessionHandler(sessionSvc),
		timetable: handler.NewTimetableHandler(timetableSvc),
		workload:  handler.NewWorkloadHandler(workloadSvc),
		exports:   handler.NewExportHandler(exportSvc, exportJobSvc),
		roster:    handler.NewRosterHandler(rosterSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func buildExports(cfg *config.Config, db *sqlx.DB, sessions *service.SessionService, metrics *service.MetricsService, logr *zap.Logger) (*service.ExportService, *service.ExportJobService, *jobs.Queue) {
	exportCfg := service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
		Location:  cfg.Location(),
	}
	if !cfg.Exports.Enabled || db == nil {
		exporter := service.NewExportService(sessions, nil, nil, exportCfg, metrics, logr)
		return exporter, service.NewExportJobService(nil, sessions, nil, exporter, logr, service.ExportJobServiceConfig{}), nil
	}

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(sessions, files, signer, exportCfg, metrics, logr)

	repo := repository.NewExportJobRepository(db)
	worker := service.NewExportWorker(repo, exporter, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
		OnGiveUp:   worker.GiveUp,
	})
	jobSvc := service.NewExportJobService(repo, sessions, queue, exporter, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	return exporter, jobSvc, queue
}
