// Package config provides configuration management for the user enrichment
// service. Configuration is loaded from environment variables with sensible
// defaults and validated before the process starts serving traffic.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: HTTP server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: INFO)
//   - API_KEY: Optional API key required on ingestion routes
//   - WEBHOOK_SECRET: Optional HMAC secret for webhook signature checks
//
// Okta Configuration:
//   - OKTA_ORG_URL: Okta organization URL (required by the worker)
//   - OKTA_API_TOKEN: Okta API token (SSWS token, required by the worker)
//   - API_TIMEOUT_SECONDS: Timeout for outbound Okta calls (default: 10)
//
// Kafka Configuration:
//   - KAFKA_BOOTSTRAP_SERVERS: Comma-separated broker list (default: localhost:9092)
//   - KAFKA_ENRICHMENT_TOPIC: Enrichment request topic (default: user.enrichment.requested)
//   - KAFKA_DLQ_TOPIC: Dead letter topic (default: user.enrichment.failed)
//   - KAFKA_CONSUMER_GROUP: Consumer group id (default: user-enrichment-workers)
//   - KAFKA_SECURITY_PROTOCOL: PLAINTEXT, SSL, SASL_PLAINTEXT or SASL_SSL
//   - KAFKA_SASL_MECHANISM / KAFKA_SASL_USERNAME / KAFKA_SASL_PASSWORD
//
// Storage Configuration:
//   - STORAGE_BACKEND: memory, redis or postgres (default: memory)
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD / REDIS_DB / REDIS_KEY_PREFIX / REDIS_POOL_SIZE
//   - POSTGRES_DSN: Postgres connection string (required for postgres backend)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the service.
type Config struct {
	// Application settings
	Port          string
	LogLevel      string
	APIKey        string
	WebhookSecret string

	// Okta configuration
	OktaOrgURL   string
	OktaAPIToken string
	APITimeout   time.Duration

	// Kafka configuration
	KafkaBrokers          []string
	KafkaClientID         string
	KafkaConsumerGroup    string
	EnrichmentTopic       string
	DLQTopic              string
	KafkaSecurityProtocol string
	KafkaSASLMechanism    string
	KafkaSASLUsername     string
	KafkaSASLPassword     string
	KafkaFlushTimeout     time.Duration

	// Storage configuration
	StorageBackend string
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	RedisPoolSize  int
	PostgresDSN    string
}

// Load reads configuration from environment variables, applying defaults
// for anything unset.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		APIKey:        os.Getenv("API_KEY"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),

		OktaOrgURL:   strings.TrimRight(os.Getenv("OKTA_ORG_URL"), "/"),
		OktaAPIToken: strings.TrimSpace(os.Getenv("OKTA_API_TOKEN")),
		APITimeout:   time.Duration(getEnvInt("API_TIMEOUT_SECONDS", 10)) * time.Second,

		KafkaBrokers:          splitAndTrim(getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")),
		KafkaClientID:         getEnv("KAFKA_CLIENT_ID", "user-enrichment"),
		KafkaConsumerGroup:    getEnv("KAFKA_CONSUMER_GROUP", "user-enrichment-workers"),
		EnrichmentTopic:       getEnv("KAFKA_ENRICHMENT_TOPIC", "user.enrichment.requested"),
		DLQTopic:              getEnv("KAFKA_DLQ_TOPIC", "user.enrichment.failed"),
		KafkaSecurityProtocol: getEnv("KAFKA_SECURITY_PROTOCOL", "PLAINTEXT"),
		KafkaSASLMechanism:    os.Getenv("KAFKA_SASL_MECHANISM"),
		KafkaSASLUsername:     os.Getenv("KAFKA_SASL_USERNAME"),
		KafkaSASLPassword:     os.Getenv("KAFKA_SASL_PASSWORD"),
		KafkaFlushTimeout:     time.Duration(getEnvInt("KAFKA_FLUSH_TIMEOUT_SECONDS", 10)) * time.Second,

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "memory")),
		RedisAddress:   getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "user_onboarding:"),
		RedisPoolSize:  getEnvInt("REDIS_POOL_SIZE", 10),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
	}
}

// Validate checks that the configuration is internally consistent.
// Okta credentials are validated by the identity fetcher so that a missing
// token surfaces as a configuration error in the pipeline's taxonomy.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: must be numeric", c.Port)
	}

	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BOOTSTRAP_SERVERS must list at least one broker")
	}
	for _, broker := range c.KafkaBrokers {
		if broker == "" {
			return fmt.Errorf("empty Kafka broker address")
		}
	}

	switch c.KafkaSecurityProtocol {
	case "PLAINTEXT", "SSL", "SASL_PLAINTEXT", "SASL_SSL":
	default:
		return fmt.Errorf("invalid KAFKA_SECURITY_PROTOCOL: %s", c.KafkaSecurityProtocol)
	}

	if strings.HasPrefix(c.KafkaSecurityProtocol, "SASL_") {
		if c.KafkaSASLUsername == "" || c.KafkaSASLPassword == "" {
			return fmt.Errorf("SASL username and password are required for %s", c.KafkaSecurityProtocol)
		}
	}

	switch c.StorageBackend {
	case "memory", "redis":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: %s (must be memory, redis or postgres)", c.StorageBackend)
	}

	if c.RedisDB < 0 || c.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15")
	}

	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT_SECONDS must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
