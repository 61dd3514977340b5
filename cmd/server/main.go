package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	syncapp "github.com/fieldcrm/backend/internal/application/sync"
	"github.com/fieldcrm/backend/internal/infrastructure/auth"
	"github.com/fieldcrm/backend/internal/infrastructure/cache"
	"github.com/fieldcrm/backend/internal/infrastructure/config"
	"github.com/fieldcrm/backend/internal/infrastructure/logger"
	"github.com/fieldcrm/backend/internal/infrastructure/onec"
	"github.com/fieldcrm/backend/internal/infrastructure/persistence"
	"github.com/fieldcrm/backend/internal/infrastructure/scheduler"
	"github.com/fieldcrm/backend/internal/interfaces/http/handler"
	"github.com/fieldcrm/backend/internal/interfaces/http/middleware"
	"github.com/fieldcrm/backend/internal/interfaces/http/router"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting FieldCRM backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	if cfg.App.Env == "production" && gormLogLevel > gormlogger.Warn {
		gormLogLevel = gormlogger.Warn
	}
	gormLog := logger.NewGormLogger(log, gormLogLevel,
		logger.WithSlowThreshold(200*time.Millisecond),
		logger.WithIgnoreRecordNotFoundError(true),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName),
	)

	// Repositories
	integrationRepo := persistence.NewGormIntegrationRepository(db.DB)
	syncJobRepo := persistence.NewGormSyncJobRepository(db.DB)
	catalogWriter := persistence.NewGormCatalogWriter(db.DB)

	// Partition cache: Redis-backed when reachable, otherwise the sync
	// pipeline runs without read invalidation rather than not at all.
	var partitionCache syncapp.PartitionCache
	redisCache, err := cache.NewRedisPartitionCache(cache.PartitionCacheRedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, catalog cache invalidation disabled", zap.Error(err))
	} else {
		partitionCache = redisCache
		defer redisCache.Close()
		log.Info("Redis partition cache connected",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	}

	// 1C record source
	source := onec.NewClient(onec.ClientConfig{
		Namespace:      cfg.OneC.Namespace,
		TimeoutSeconds: cfg.OneC.TimeoutSeconds,
	}, log.Named("onec"))

	// Reconciliation engine
	engine, err := syncapp.NewEngine(syncapp.EngineConfig{
		BatchDelay:            cfg.Sync.BatchDelay,
		ItemYieldEvery:        cfg.Sync.ItemYieldEvery,
		ItemYieldDelay:        cfg.Sync.ItemYieldDelay,
		UpsertRetryAttempts:   cfg.Sync.UpsertRetryAttempts,
		UpsertBackoffMin:      cfg.Sync.UpsertBackoffMin,
		UpsertBackoffMax:      cfg.Sync.UpsertBackoffMax,
		ProgressRetryAttempts: cfg.Sync.ProgressRetryAttempts,
		ProgressRetryDelay:    cfg.Sync.ProgressRetryDelay,
	}, source, catalogWriter, syncJobRepo, partitionCache, log.Named("sync"))
	if err != nil {
		log.Fatal("Failed to create sync engine", zap.Error(err))
	}

	// Worker pool for background sync runs
	runner, err := scheduler.NewSyncRunner(scheduler.SyncRunnerConfig{
		MaxConcurrentJobs: cfg.Runner.MaxConcurrentJobs,
		QueueSize:         cfg.Runner.QueueSize,
		JobTimeout:        cfg.Runner.JobTimeout,
	}, log.Named("runner"))
	if err != nil {
		log.Fatal("Failed to create sync runner", zap.Error(err))
	}
	if err := runner.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync runner", zap.Error(err))
	}

	orchestrator := syncapp.NewOrchestrator(integrationRepo, syncJobRepo, engine, runner, log.Named("orchestrator"))

	// JWT
	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP engine and middleware stack
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginEngine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := ginEngine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	ginEngine.Use(middleware.RequestID())
	ginEngine.Use(logger.Recovery(log))
	ginEngine.Use(logger.GinMiddleware(log))
	ginEngine.Use(middleware.Secure())
	ginEngine.Use(middleware.CORSWithConfig(corsConfig))

	ginEngine.GET("/health", healthHandler(db))

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log.Named("auth")
	ginEngine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	router.NewRouter(ginEngine).
		Register(handler.NewSystemHandler()).
		Register(handler.NewSyncHandler(orchestrator)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	// Stop the runner after the HTTP server so no new runs are accepted
	// while in-flight ones drain.
	if err := runner.Stop(shutdownCtx); err != nil {
		log.Error("Sync runner shutdown failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
}

// healthHandler reports liveness plus database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
