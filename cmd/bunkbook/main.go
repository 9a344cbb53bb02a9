package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/bunkbook/api/swagger"
	"github.com/noah-isme/bunkbook/internal/handler"
	internalmiddleware "github.com/noah-isme/bunkbook/internal/middleware"
	"github.com/noah-isme/bunkbook/internal/repository"
	"github.com/noah-isme/bunkbook/internal/service"
	"github.com/noah-isme/bunkbook/pkg/cache"
	"github.com/noah-isme/bunkbook/pkg/config"
	"github.com/noah-isme/bunkbook/pkg/database"
	"github.com/noah-isme/bunkbook/pkg/logger"
	corsmiddleware "github.com/noah-isme/bunkbook/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/bunkbook/pkg/middleware/requestid"
)

// @title Bunkbook API
// @version 1.0.0
// @description Attendance budget tracker on top of an LMS attendance feed
// @BasePath /api/v1
// @schemes http

type stateStore interface {
	Load(ctx context.Context, key string, dest interface{}) error
	SaveAll(ctx context.Context, values map[string]interface{}) error
	Ping(ctx context.Context) error
}

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to open state store", "driver", cfg.Store.Driver, "error", err)
	}
	defer closeStore()

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	loc := cfg.Policy.Location()
	parser := service.NewRecordParser(service.RecordParserConfig{LabThresholdMinutes: cfg.Policy.LabThresholdMinutes})
	ledger := service.NewBunkLedger(parser, service.BunkLedgerConfig{
		BunksPerCredit: cfg.Policy.BunksPerCredit,
		BaseBunks:      cfg.Policy.BaseBunks,
		CreditTable:    cfg.Policy.CreditTable,
		Location:       loc,
	})
	feed := repository.NewHTTPAttendanceFeed(repository.HTTPAttendanceFeedConfig{
		URL:     cfg.Feed.URL,
		Token:   cfg.Feed.Token,
		Timeout: cfg.Feed.Timeout,
	}, nil, logr)

	attendanceSvc := service.NewAttendanceService(feed, store, parser, ledger, service.AttendanceServiceConfig{
		KeyPrefix:             cfg.Store.KeyPrefix,
		MinRefreshInterval:    cfg.Feed.MinRefreshInterval,
		StartToleranceMinutes: cfg.Policy.StartToleranceMinutes,
	}, nil, metricsSvc, logr)
	if err := attendanceSvc.Load(ctx); err != nil {
		logr.Sugar().Fatalw("failed to load stored state", "error", err)
	}
	attendanceSvc.StartWorker(ctx)
	defer attendanceSvc.StopWorker()

	if cfg.Feed.RefreshOnStart && cfg.Feed.URL != "" {
		if _, err := attendanceSvc.TriggerRefresh(ctx); err != nil {
			logr.Warn("startup refresh not queued", zap.Error(err))
		}
	}

	exportSvc := service.NewExportService(attendanceSvc, ledger, logr, nil, nil)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, store)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Sync:      handler.NewSyncHandler(attendanceSvc),
		Course:    handler.NewCourseHandler(attendanceSvc),
		Bunk:      handler.NewBunkHandler(attendanceSvc),
		Unknown:   handler.NewUnknownHandler(attendanceSvc),
		Timetable: handler.NewTimetableHandler(attendanceSvc),
		Export:    handler.NewExportHandler(exportSvc),
		Metrics:   metricsHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore selects the state repository named by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (stateStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverRedis, "":
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewRedisStateRepository(client, logr)
		return repo, func() { _ = repo.Close() }, nil
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgresStateRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func() { _ = db.Close() }, nil
	case config.StoreDriverNone:
		logr.Warn("state store disabled; edits will not survive a restart")
		return repository.NewRedisStateRepository(nil, logr), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
