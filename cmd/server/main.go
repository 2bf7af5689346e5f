package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	invoicingapp "github.com/gestionale/backend/internal/application/invoicing"
	"github.com/gestionale/backend/internal/application/records"
	"github.com/gestionale/backend/internal/domain/billing"
	"github.com/gestionale/backend/internal/infrastructure/auth"
	"github.com/gestionale/backend/internal/infrastructure/cache"
	"github.com/gestionale/backend/internal/infrastructure/config"
	providerclient "github.com/gestionale/backend/internal/infrastructure/invoicing"
	"github.com/gestionale/backend/internal/infrastructure/logger"
	"github.com/gestionale/backend/internal/infrastructure/persistence"
	"github.com/gestionale/backend/internal/infrastructure/persistence/models"
	"github.com/gestionale/backend/internal/interfaces/http/handler"
	"github.com/gestionale/backend/internal/interfaces/http/middleware"
	"github.com/gestionale/backend/internal/interfaces/http/router"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	// Initialize database with a gorm logger bridged to zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := db.EnableTracing(cfg.Database.DBName); err != nil {
		log.Warn("failed to enable database tracing", zap.Error(err))
	}

	if err := db.DB.AutoMigrate(
		&models.CustomerModel{},
		&models.ContractModel{},
		&models.IntegrationConfigModel{},
		&models.UploadRecordModel{},
		&models.ContractUploadStateModel{},
	); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	contractRepo := persistence.NewContractRepository(db.DB)
	customerRepo := persistence.NewCustomerRepository(db.DB)
	configRepo := persistence.NewIntegrationConfigRepository(db.DB)
	uploadRepo := persistence.NewUploadRecordRepository(db.DB)

	// Upload guard: Redis when reachable, in-memory otherwise. The
	// in-memory guard is only safe for single-instance deployments.
	var guard billing.UploadGuard
	redisGuard, err := cache.NewRedisUploadGuard(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Invoicing.GuardTTL, log)
	if err != nil {
		log.Warn("redis unavailable, using in-memory upload guard", zap.Error(err))
		guard = cache.NewInMemoryUploadGuard(cfg.Invoicing.GuardTTL)
	} else {
		guard = redisGuard
	}

	// Provider client and application services
	provider := providerclient.NewClient(cfg.Invoicing.ProviderBaseURL, cfg.Invoicing.RequestTimeout)

	settingsService := invoicingapp.NewSettingsService(configRepo, log)
	uploadService := invoicingapp.NewUploadService(provider, uploadRepo, log)
	bulkService := invoicingapp.NewBulkUploadService(contractRepo, uploadService, guard, cfg.Invoicing.UploadInterval, log)
	importService := invoicingapp.NewClientImportService(provider, customerRepo, cfg.Invoicing.ClientPageSize, log)
	contractService := records.NewContractService(contractRepo, log)
	customerService := records.NewCustomerService(customerRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP engine and middleware stack
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))

	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.Logger = log
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))

	// Handlers and routes
	invoicingHandler := handler.NewInvoicingHandler(
		settingsService,
		uploadService,
		bulkService,
		importService,
		contractRepo,
		guard,
		provider,
	)

	router.NewRouter(engine).
		Register(handler.NewSystemHandler(db, version)).
		Register(invoicingHandler).
		Register(handler.NewContractHandler(contractService)).
		Register(handler.NewCustomerHandler(customerService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
