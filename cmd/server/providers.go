// File: cmd/server/providers.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"campus_lostfound_backend/internal/app"
	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/middleware"
	"campus_lostfound_backend/internal/platform/database"
	platformLogger "campus_lostfound_backend/internal/platform/logger"
	"campus_lostfound_backend/internal/platform/worker"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// provideDatabase opens the database, migrates it when DB_AUTO_MIGRATE is set, and
// returns a cleanup that closes it.
func provideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := database.AutoMigrate(db, app.Models()...); err != nil {
			database.CloseGORMDB(db, logger)
			return nil, nil, fmt.Errorf("auto-migration failed: %w", err)
		}
		logger.Info("Database schema migrated.")
	}
	return db, func() { database.CloseGORMDB(db, logger) }, nil
}

// provideWorkerPool starts the background pool; the cleanup drains it.
func provideWorkerPool(cfg *config.Config, logger *zap.Logger) (*worker.Pool, func()) {
	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize, logger)
	pool.Start()
	return pool, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pool.Shutdown(ctx)
	}
}

func provideMessageLimiter(cfg *config.Config) *middleware.UserRateLimiter {
	if cfg.MessageRatePerSecond <= 0 {
		return nil
	}
	return middleware.NewUserRateLimiter(cfg.MessageRatePerSecond, cfg.MessageRateBurst)
}

// provideLogger builds the application logger; the cleanup flushes it.
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := platformLogger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() {
		if err := logger.Sync(); err != nil {
			log.Printf("WARN: failed to sync logger during cleanup: %v", err)
		}
	}, nil
}
