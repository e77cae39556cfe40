package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/06wuuntt/NTUT-Coursesystem/api/swagger"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/handler"
	appMiddleware "github.com/06wuuntt/NTUT-Coursesystem/internal/middleware"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/repository"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/schedule"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/service"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/simulation"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/config"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/kvstore"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/logger"
	corsmiddleware "github.com/06wuuntt/NTUT-Coursesystem/pkg/middleware/cors"
	reqidmiddleware "github.com/06wuuntt/NTUT-Coursesystem/pkg/middleware/requestid"
)

// @title NTUT Course System API
// @version 0.1.0
// @description Course catalog browser and what-if timetable simulator
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

	catalog, err := loadCatalog(cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to load period catalog", "error", err)
	}

	redisClient := connectRedis(cfg, logr)

	kv, err := buildSimulationStore(cfg, redisClient)
	if err != nil {
		logr.Sugar().Fatalw("failed to init simulation storage", "error", err)
	}

	crawler := repository.NewCrawler(cfg.Upstream, logr)
	cache := repository.NewCatalogCache(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	courseSvc := service.NewCourseService(crawler, cache, cfg.Catalog.CacheTTL, validator.New(), metricsSvc, logr)
	calendarSvc := service.NewCalendarService(crawler, cache, cfg.Calendar.ICSURL, logr)
	standardsSvc := service.NewStandardsService(crawler, cache, cfg.Catalog.CacheTTL, logr)

	registry := simulation.NewRegistry(kv, catalog, cfg.Simulation.KeyPrefix, logr)
	registry.Subscribe(metricsSvc.ObserveSimulation)

	var exportSvc *service.ExportService
	if cfg.Export.Enabled {
		exportSvc = service.NewExportService(nil, nil, logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(appMiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	simulationHandler := handler.NewSimulationHandler(registry, exportHandlerService(exportSvc))
	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Course:     handler.NewCourseHandler(courseSvc),
		Calendar:   handler.NewCalendarHandler(calendarSvc),
		Standards:  handler.NewStandardsHandler(standardsSvc),
		Simulation: simulationHandler,
		Period:     handler.NewPeriodHandler(catalog),
	})

	scheduler := startCatalogRefresh(cfg, courseSvc, cache, logr)
	if scheduler != nil {
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "storage", cfg.Simulation.Storage)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func loadCatalog(cfg *config.Config, logr *zap.Logger) (*schedule.Catalog, error) {
	if cfg.Catalog.PeriodsFile == "" {
		return schedule.DefaultCatalog(), nil
	}
	catalog, err := schedule.CatalogFromFile(cfg.Catalog.PeriodsFile)
	if err != nil {
		return nil, err
	}
	logr.Sugar().Infow("loaded period catalog", "file", cfg.Catalog.PeriodsFile, "periods", catalog.Len())
	return catalog, nil
}

// connectRedis returns nil when Redis is unreachable; the cache degrades to
// a pass-through and only the redis simulation backend hard-requires it.
func connectRedis(cfg *config.Config, logr *zap.Logger) *redis.Client {
	client, err := kvstore.NewRedisClient(cfg.Redis)
	if err != nil {
		if cfg.Simulation.Storage == config.StorageRedis {
			logr.Sugar().Fatalw("redis required for simulation storage", "error", err)
		}
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		return nil
	}
	return client
}

func buildSimulationStore(cfg *config.Config, redisClient *redis.Client) (kvstore.Store, error) {
	switch cfg.Simulation.Storage {
	case config.StorageRedis:
		return kvstore.NewRedis(redisClient), nil
	case config.StorageMemory:
		return kvstore.NewMemory(), nil
	default:
		return kvstore.NewFile(cfg.Simulation.FileDir)
	}
}

// startCatalogRefresh warms the configured semester on a cron schedule so
// the first request after a TTL expiry does not pay the upstream round trip.
func startCatalogRefresh(cfg *config.Config, courses *service.CourseService, cache *repository.CatalogCache, logr *zap.Logger) *cron.Cron {
	if cfg.Catalog.RefreshSpec == "" || cfg.Catalog.WarmupSemester == "" {
		return nil
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Catalog.RefreshSpec, func() {
		ctx := context.Background()
		if err := cache.Invalidate(ctx, "catalog:courses:"+cfg.Catalog.WarmupSemester); err != nil {
			logr.Sugar().Warnw("catalog invalidation failed", "error", err)
		}
		if err := courses.WarmSemester(ctx, cfg.Catalog.WarmupSemester); err != nil {
			logr.Sugar().Warnw("catalog warmup failed", "semester", cfg.Catalog.WarmupSemester, "error", err)
			return
		}
		logr.Sugar().Infow("catalog refreshed", "semester", cfg.Catalog.WarmupSemester)
	})
	if err != nil {
		logr.Sugar().Warnw("invalid catalog refresh spec", "spec", cfg.Catalog.RefreshSpec, "error", err)
		return nil
	}
	scheduler.Start()
	return scheduler
}

// exportHandlerService keeps a typed nil from masquerading as a non-nil
// interface when export is disabled.
func exportHandlerService(svc *service.ExportService) interface {
	Timetable(snapshot simulation.Snapshot, format service.ExportFormat) (*service.ExportResult, error)
} {
	if svc == nil {
		return nil
	}
	return svc
}
