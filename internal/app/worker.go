package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"user-enrichment/internal/common/logging"
	"user-enrichment/internal/identity"
	"user-enrichment/internal/queue"
	"user-enrichment/internal/retry"
	"user-enrichment/internal/store"
	"user-enrichment/internal/worker"
)

// RunWorker starts the enrichment consumer and blocks until a shutdown
// signal arrives or the consumer fails fatally.
func RunWorker() error {
	cfg, err := bootstrap("worker")
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

	dlqProducer, err := queue.NewProducer(kafkaConfig(cfg), logging.GetGlobalLogger())
	if err != nil {
		logging.Error("Failed to initialize DLQ producer", err)
		return err
	}
	defer dlqProducer.Close()

	consumer, err := queue.NewConsumer(kafkaConfig(cfg), cfg.EnrichmentTopic, logging.GetGlobalLogger())
	if err != nil {
		logging.Error("Failed to initialize Kafka consumer", err)
		return err
	}
	defer consumer.Close()

	fetcher, err := identity.NewOktaFetcher(cfg.OktaOrgURL, cfg.OktaAPIToken, cfg.APITimeout, logging.GetGlobalLogger())
	if err != nil {
		logging.Error("Failed to initialize identity fetcher", err)
		return err
	}

	w := worker.New(
		worker.Config{
			SourceTopic: cfg.EnrichmentTopic,
			DLQTopic:    cfg.DLQTopic,
		},
		consumer,
		dlqProducer,
		fetcher,
		userStore,
		retry.New(retry.DefaultConfig(), logging.GetGlobalLogger()),
		logging.GetGlobalLogger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		logging.Info("Received shutdown signal", logging.Field{Key: "signal", Value: sig.String()})
		cancel()
	}()

	if err := w.Run(ctx); err != nil {
		logging.Error("Worker terminated", err)
		return err
	}

	logging.Info("Worker stopped")
	return nil
}
