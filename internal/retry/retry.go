// Package retry provides bounded retry with exponential backoff for
// transient upstream failures.
package retry

import (
	"context"
	"fmt"
	"time"

	"user-enrichment/internal/common/logging"
)

// Config holds retry timing parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts, including the first
	MaxAttempts int

	// InitialDelay is the wait before the first retry
	InitialDelay time.Duration

	// MaxDelay caps the exponential growth of the wait
	MaxDelay time.Duration

	// BackoffFactor is the multiplier applied to the wait after each retry
	BackoffFactor float64
}

// DefaultConfig returns the pipeline's retry policy: three attempts with
// waits of 2s then 4s, capped at 30s.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  2 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Executor runs operations with bounded exponential-backoff retries.
type Executor struct {
	config Config
	logger logging.Logger
}

// New creates an Executor with the given config and logger.
func New(config Config, logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Executor{config: config, logger: logger}
}

// Run executes op up to MaxAttempts times. isRetryable decides whether a
// failure is worth another attempt; a non-retryable error is returned
// immediately with no further waits. When all attempts fail, the last error
// is returned wrapped as "retries exhausted". Context cancellation aborts
// any pending wait.
func (e *Executor) Run(ctx context.Context, op func() error, isRetryable func(error) bool) error {
	var lastErr error
	delay := e.config.InitialDelay

	for attempt := 1; attempt <= e.config.MaxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if isRetryable != nil && !isRetryable(err) {
			return err
		}

		if attempt == e.config.MaxAttempts {
			break
		}

		e.logger.Warn("Retrying after transient failure",
			logging.Field{Key: "attempt", Value: attempt},
			logging.Field{Key: "max_attempts", Value: e.config.MaxAttempts},
			logging.Field{Key: "wait", Value: delay.String()},
			logging.Field{Key: "error", Value: err.Error()},
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * e.config.BackoffFactor)
			if delay > e.config.MaxDelay {
				delay = e.config.MaxDelay
			}
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", e.config.MaxAttempts, lastErr)
}
