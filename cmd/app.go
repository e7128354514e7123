package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tusharsharma89566/Edu-Learn/internal/config"
	"github.com/tusharsharma89566/Edu-Learn/internal/events"
	"github.com/tusharsharma89566/Edu-Learn/internal/llm"
	"github.com/tusharsharma89566/Edu-Learn/internal/repositories/postgres"
	"github.com/tusharsharma89566/Edu-Learn/internal/services"
	"github.com/tusharsharma89566/Edu-Learn/internal/validator"
	"github.com/tusharsharma89566/Edu-Learn/pkg"
)

// app holds the wired dependency graph shared by every subcommand
type app struct {
	cfg            *config.Config
	logger         *slog.Logger
	db             *gorm.DB
	redisClient    *redis.Client
	bus            *events.Bus
	serviceManager services.ServiceManager
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Failed to initialize Redis, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	// Initialize event bus
	bus, err := events.NewBus(cfg.Kafka, logger)
	if err != nil {
		repoManager.Shutdown(ctx)
		return nil, err
	}

	// LLM provider is optional
	provider, err := llm.NewProvider(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Warn("LLM provider unavailable, using rule-based fallbacks", "error", err)
		provider = nil
	}

	// Initialize services
	serviceManager := services.NewServiceManager(db, repoManager.GetRepository(), logger, validator.New(), cfg, bus, provider)
	if err := serviceManager.Initialize(ctx); err != nil {
		bus.Close()
		repoManager.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &app{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		redisClient:    redisClient,
		bus:            bus,
		serviceManager: serviceManager,
	}, nil
}

// close releases the bus first so in-flight handlers finish before the database closes
func (a *app) close(ctx context.Context) {
	if err := a.bus.Close(); err != nil {
		a.logger.Warn("Failed to close event bus", "error", err)
	}
	if err := a.serviceManager.Shutdown(ctx); err != nil {
		a.logger.Warn("Failed to shutdown services", "error", err)
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
