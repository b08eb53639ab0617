package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"user-enrichment/internal/common/logging"
	"user-enrichment/internal/handlers"
	"user-enrichment/internal/ingest"
	"user-enrichment/internal/queue"
	"user-enrichment/internal/server"
	"user-enrichment/internal/store"
)

// RunAPI starts the webhook ingestion and query API and blocks until a
// shutdown signal arrives.
func RunAPI() error {
	cfg, err := bootstrap("api")
	if err != nil {
		return err
	}
	defer logging.MustSync()

	userStore, err := store.NewFromConfig(cfg, logging.GetGlobalLogger())
	if err != nil {
		logging.Error("Failed to initialize storage backend", err)
		return err
	}
	defer userStore.Close()

	producer, err := queue.NewProducer(kafkaConfig(cfg), logging.GetGlobalLogger())
	if err != nil {
		logging.Error("Failed to initialize Kafka producer", err)
		return err
	}
	defer producer.Close()

	ingestor := ingest.New(producer, cfg.EnrichmentTopic, logging.GetGlobalLogger())

	router := mux.NewRouter()
	handlers.SetupRoutes(router, handlers.New(ingestor, userStore, cfg, logging.GetGlobalLogger()))

	srv := server.New(router, cfg.Port)
	serveErr := srv.Start()

	logging.Info("API server started",
		logging.Field{Key: "port", Value: cfg.Port},
		logging.Field{Key: "enrichment_topic", Value: cfg.EnrichmentTopic},
		logging.Field{Key: "storage_backend", Value: cfg.StorageBackend},
		logging.Field{Key: "api_key_configured", Value: cfg.APIKey != ""},
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Info("Received shutdown signal", logging.Field{Key: "signal", Value: sig.String()})
	case err := <-serveErr:
		logging.Error("HTTP server failed", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Graceful shutdown failed", err)
		return err
	}

	logging.Info("API server stopped")
	return nil
}
