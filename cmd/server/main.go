package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"lessonhub/internal/core"
	httpProtocol "lessonhub/internal/protocols/http"
	"lessonhub/internal/repository"
	"lessonhub/internal/storage"
	"lessonhub/pkg/config"
	"lessonhub/pkg/database"
	"lessonhub/pkg/logger"
	"lessonhub/pkg/models"
)

func main() {
	configPath := os.Getenv("LESSONHUB_CONFIG")
	if configPath == "" {
		configPath = "./configs/development.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	logger.Info("Starting LessonHub server...")

	// Connect to database
	pool, err := database.NewPGXPool(database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		Timeout:         cfg.Database.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	logger.Info("Connected to PostgreSQL database")

	// Connect to redis (one-time login codes)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Warnf("Redis unreachable at startup (one-time codes unavailable): %v", err)
	} else {
		logger.Info("Connected to Redis")
	}

	// Object store for protected PDF materials
	store, err := storage.NewGCSStore(context.Background(), cfg.Storage.Bucket)
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}

	logger.Infof("Object store ready (bucket %s)", cfg.Storage.Bucket)

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	// Core services
	authSvc := core.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	otpSvc := core.NewOTPService(rdb, authSvc)
	lessonSvc := core.NewLessonService(lessonRepo, store)
	engine := core.NewStreakEngine(models.DefaultBadgeRules)
	progressSvc := core.NewProgressService(progressRepo, lessonRepo, statsRepo, engine)
	materialSvc := core.NewMaterialService(lessonRepo, store, core.MaterialServiceConfig{
		ViewerURLExpiry:    cfg.Storage.ViewerURLExpiry,
		DefaultSignExpiry:  cfg.Storage.DefaultSignExpiry,
		StreamSignExpiry:   cfg.Storage.StreamSignExpiry,
		StreamFetchTimeout: cfg.Storage.StreamFetchTimeout,
		KeyPrefix:          cfg.Storage.Prefix,
		MaxUploadBytes:     cfg.Storage.MaxUploadBytes,
	})
	ticketSvc := core.NewTicketService(ticketRepo)

	logger.Info("Initialized all core services")

	httpServer := httpProtocol.NewServer(
		cfg,
		authSvc,
		otpSvc,
		lessonSvc,
		progressSvc,
		materialSvc,
		ticketSvc,
		pool,
		rdb,
	)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("HTTP server panic recovered: %v", r)
			}
		}()
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logger.Infof("Starting HTTP server on %s", addr)
		if err := httpServer.Start(addr); err != nil {
			logger.Errorf("HTTP server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Infof("Received signal: %v", sig)
	logger.Info("Shutdown complete")
}
