package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/common/logging"
	"user-enrichment/internal/enrichment"
)

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	PoolSize  int
}

// RedisStore is the networked backend. Records are stored as JSON under a
// prefixed key and round-trip losslessly.
type RedisStore struct {
	rdb    *redis.Client
	config *RedisConfig
	logger logging.Logger
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(config *RedisConfig, logger logging.Logger) (*RedisStore, error) {
	if config == nil {
		return nil, errors.ConfigError("redis config is required")
	}
	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "user_onboarding:"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.ConnectionError("failed to connect to Redis", err)
	}

	logger.Info("Connected to Redis",
		logging.Field{Key: "address", Value: config.Address},
		logging.Field{Key: "db", Value: config.DB},
		logging.Field{Key: "key_prefix", Value: config.KeyPrefix},
	)

	return &RedisStore{rdb: rdb, config: config, logger: logger}, nil
}

func (s *RedisStore) key(id string) string {
	return s.config.KeyPrefix + id
}

// Put serializes user to JSON and stores it under the prefixed id,
// overwriting any prior value.
func (s *RedisStore) Put(ctx context.Context, id string, user *enrichment.EnrichedUser) error {
	if id == "" {
		return errors.ValidationError("store id is required")
	}
	if user == nil {
		return errors.ValidationError("store value is required")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return errors.InternalError("failed to serialize user", err)
	}

	if err := s.rdb.Set(ctx, s.key(id), data, 0).Err(); err != nil {
		return errors.ConnectionError("failed to store user in Redis", err)
	}
	return nil
}

// Get fetches and deserializes the record for id. A missing key is a
// not_found error; anything else is a connection error.
func (s *RedisStore) Get(ctx context.Context, id string) (*enrichment.EnrichedUser, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return nil, errors.NotFoundError("user " + id)
	}
	if err != nil {
		return nil, errors.ConnectionError("failed to read user from Redis", err)
	}

	var user enrichment.EnrichedUser
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, errors.InternalError("failed to deserialize stored user", err)
	}
	return &user, nil
}

// Health pings the Redis server.
func (s *RedisStore) Health(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return errors.ConnectionError("redis ping failed", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
