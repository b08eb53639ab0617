package store

import (
	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/common/logging"
	"user-enrichment/internal/config"
)

// NewFromConfig builds the store backend selected by STORAGE_BACKEND.
func NewFromConfig(cfg *config.Config, logger logging.Logger) (UserStore, error) {
	switch cfg.StorageBackend {
	case "memory":
		return NewMemoryStore(), nil

	case "redis":
		return NewRedisStore(&RedisConfig{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
			PoolSize:  cfg.RedisPoolSize,
		}, logger)

	case "postgres":
		return NewPostgresStore(cfg.PostgresDSN, logger)

	default:
		return nil, errors.ConfigError("unknown storage backend: " + cfg.StorageBackend)
	}
}
