package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"inventory-service/internal/cache"
	"inventory-service/internal/config"
	"inventory-service/internal/database"
	"inventory-service/internal/events"
	"inventory-service/internal/handlers"
	"inventory-service/internal/middleware"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"
	"inventory-service/internal/routes"
	"inventory-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store: PostgreSQL o memoria
	var (
		store      repository.Store
		postgresDB *database.PostgresDB
		sqlDB      *sqlx.DB
	)
	switch cfg.Database.Driver {
	case "memory":
		mem := repository.NewMemoryStore()
		repository.SeedDemo(mem)
		store = mem
		logger.Warn("Using in-memory store; data is lost on restart")
	default:
		postgresDB, err = database.NewPostgresDB(
			cfg.Database.URL,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
			logger,
		)
		if err != nil {
			logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer postgresDB.Close()

		if cfg.Database.AutoMigrate {
			if err := postgresDB.Migrate(ctx, logger); err != nil {
				logger.Fatal("Failed to migrate database", zap.Error(err))
			}
		}
		sqlDB = postgresDB.DB
		store = repository.NewPostgresStore(sqlDB, logger)
	}

	// Redis es opcional: sin él el caché de alertas queda solo en memoria
	var (
		redisDB     *database.RedisDB
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisDB, err = database.NewRedisDB(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis unavailable, alert cache will be L1 only", zap.Error(err))
		} else {
			defer redisDB.Close()
			redisClient = redisDB.Client
		}
	}

	alertCache := cache.NewAlertCache(redisClient, cfg.Redis.AlertHashKey, logger)
	if err := alertCache.Warm(ctx); err != nil {
		logger.Warn("Failed to warm alert cache", zap.Error(err))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info("Kafka publisher enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}
	defer publisher.Close()

	// Servicios
	alerts := services.NewAlertEngine(store, alertCache, cfg.Inventory.ResolvedAlertRetention, logger)
	ledger := services.NewLedger(store, alerts, models.Thresholds{
		Min: cfg.Inventory.DefaultMinStock,
		Max: cfg.Inventory.DefaultMaxStock,
	}, logger)
	engine := services.NewTransactionEngine(store, ledger, publisher, services.EngineLimits{
		DefaultLimit: cfg.Inventory.DefaultTransactionLimit,
		MaxLimit:     cfg.Inventory.MaxTransactionLimit,
	}, logger)
	dashboard := services.NewDashboardAggregator(store, logger)
	monitoringService := services.NewMonitoringService(logger, cfg, redisDB, sqlDB, alertCache, engine)

	sweeper := services.NewSweeper(alerts, engine, cfg.Inventory.AlertSweepInterval, cfg.Inventory.StaleTransferAfter, logger)
	go sweeper.Start(ctx)

	// Handlers
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService, cfg.Inventory.DashboardPushInterval, logger)
	h := routes.Handlers{
		Stock:       handlers.NewStockHandler(engine, ledger, logger),
		Transfer:    handlers.NewTransferHandler(engine, cfg.Inventory.StaleTransferAfter, logger),
		Transaction: handlers.NewTransactionHandler(engine, logger),
		Branch:      handlers.NewBranchHandler(store, logger),
		Dashboard:   handlers.NewDashboardHandler(dashboard, alerts, cfg.Inventory.DashboardPushInterval, logger),
		Monitoring:  monitoringHandler,
		Health:      middleware.NewHealthChecker(postgresDB, redisDB, logger),
	}

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(monitoringHandler.RecordRequestMiddleware())

	identity := middleware.IdentityMiddleware(cfg.JWT.Secret, cfg.JWT.AuthRequired, logger)
	routes.SetupRoutes(router, h, identity)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		middleware.ServerInfo(cfg, logger)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}

// newLogger producción por defecto; LOG_LEVEL=debug usa el logger de desarrollo
func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	if err := zcfg.Level.UnmarshalText([]byte(level)); err != nil {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zcfg.Build()
}
