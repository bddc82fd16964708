// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/item"
	"campus_lostfound_backend/internal/platform/database"
	platformES "campus_lostfound_backend/internal/platform/elasticsearch"
	platformLogger "campus_lostfound_backend/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	syncItemsCmd := flag.NewFlagSet("sync-items", flag.ExitOnError)
	batchSize := syncItemsCmd.Int("batch-size", 100, "Batch size for syncing items")
	esRefresh := syncItemsCmd.String("es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")

	if len(os.Args) > 1 && os.Args[1] == "sync-items" {
		_ = syncItemsCmd.Parse(os.Args[2:])
		if err := runItemSync(*batchSize, *esRefresh); err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		return
	}

	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	server.AppLogger.Info("Received signal, shutting down server", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		server.AppLogger.Error("Server forced to shutdown", zap.Error(err))
	} else {
		server.AppLogger.Info("Server shutdown complete.")
	}
}

// runItemSync re-indexes every item into Elasticsearch.
func runItemSync(batchSize int, esRefresh string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appLogger, err := platformLogger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = appLogger.Sync() }()

	db, err := database.NewGORM(cfg, appLogger)
	if err != nil {
		return err
	}
	defer database.CloseGORMDB(db, appLogger)

	esClient, err := platformES.NewClient(cfg, appLogger)
	if err != nil {
		return err
	}
	if esClient == nil {
		return errors.New("ELASTICSEARCH_URL must be set to sync items")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := item.NewSearchIndex(esClient).EnsureIndex(ctx); err != nil {
		return err
	}
	synced, failed, err := item.SyncAll(ctx, item.NewGORMRepository(db), esClient, batchSize, esRefresh, appLogger)
	if err != nil {
		appLogger.Error("Item synchronization failed", zap.Int("synced", synced), zap.Int("failed", failed), zap.Error(err))
		return err
	}
	appLogger.Info("Item synchronization completed successfully.", zap.Int("synced", synced))
	return nil
}
