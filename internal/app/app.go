// Package app assembles the two processes: the ingestion API and the
// enrichment worker. Components are constructed once at startup and passed
// by reference; there is no lazily-built global state.
package app

import (
	"github.com/joho/godotenv"
	"user-enrichment/internal/common/logging"
	"user-enrichment/internal/config"
	"user-enrichment/internal/queue"
)

// bootstrap loads the environment, initializes logging and validates
// configuration. Shared by both entry points.
func bootstrap(name string) (*config.Config, error) {
	_ = godotenv.Load()

	logging.InitGlobalLogger(name)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logging.Error("Configuration validation failed", err)
		return nil, err
	}

	return cfg, nil
}

// kafkaConfig maps app configuration onto the queue package's config.
func kafkaConfig(cfg *config.Config) *queue.Config {
	return &queue.Config{
		Brokers:          cfg.KafkaBrokers,
		ClientID:         cfg.KafkaClientID,
		GroupID:          cfg.KafkaConsumerGroup,
		SecurityProtocol: cfg.KafkaSecurityProtocol,
		SASLMechanism:    cfg.KafkaSASLMechanism,
		SASLUsername:     cfg.KafkaSASLUsername,
		SASLPassword:     cfg.KafkaSASLPassword,
		FlushTimeout:     cfg.KafkaFlushTimeout,
	}
}
