// Package worker consumes enrichment requests, fetches identity data with
// bounded retries, merges and stores the result, and dead-letters permanent
// failures. Offsets are committed only after a terminal outcome, giving
// at-least-once processing over an idempotent store.
package worker

import (
	"context"
	"time"

	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/common/logging"
	"user-enrichment/internal/enrichment"
	"user-enrichment/internal/identity"
	"user-enrichment/internal/queue"
	"user-enrichment/internal/retry"
	"user-enrichment/internal/security"
	"user-enrichment/internal/store"
)

// Config holds the worker's topics and poll interval.
type Config struct {
	SourceTopic string
	DLQTopic    string

	// PollTimeout bounds each consumer poll so shutdown is observed
	// between messages (default 1s)
	PollTimeout time.Duration
}

// Worker runs the consume loop. Messages are processed one at a time;
// horizontal scaling happens by running more worker processes in the same
// consumer group.
type Worker struct {
	config   Config
	consumer queue.Consumer
	dlq      queue.Producer
	fetcher  identity.Fetcher
	store    store.UserStore
	executor *retry.Executor
	logger   logging.Logger
}

// New assembles a worker from its collaborators.
func New(config Config, consumer queue.Consumer, dlq queue.Producer, fetcher identity.Fetcher,
	userStore store.UserStore, executor *retry.Executor, logger logging.Logger) *Worker {

	if config.PollTimeout <= 0 {
		config.PollTimeout = time.Second
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &Worker{
		config:   config,
		consumer: consumer,
		dlq:      dlq,
		fetcher:  fetcher,
		store:    userStore,
		executor: executor,
		logger:   logger,
	}
}

// Run polls until ctx is cancelled. A message already in flight is finished
// before the loop exits. A fatal consumer error is returned so process
// supervision can restart the worker; redelivery after restart is safe
// because the store is last-write-wins.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Starting enrichment worker",
		logging.Field{Key: "topic", Value: w.config.SourceTopic},
		logging.Field{Key: "dlq_topic", Value: w.config.DLQTopic},
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Enrichment worker stopping")
			return nil
		default:
		}

		msg, err := w.consumer.Poll(w.config.PollTimeout)
		if err != nil {
			return err
		}
		if msg == nil {
			continue
		}

		w.handleMessage(ctx, msg)
	}
}

// handleMessage drives one message to a terminal state and commits its
// offset. Malformed payloads are logged and committed without a dead
// letter; anything that decodes but fails to process is dead-lettered.
func (w *Worker) handleMessage(ctx context.Context, msg *queue.Message) {
	req, err := enrichment.DecodeRequest(msg.Value)
	if err != nil {
		w.logger.Error("Dropping malformed message", err,
			logging.Field{Key: "partition", Value: msg.Partition},
			logging.Field{Key: "offset", Value: msg.Offset},
		)
		w.commit(msg)
		return
	}

	if procErr := w.process(ctx, req); procErr != nil {
		w.deadLetter(msg, req, procErr)
		w.commit(msg)
		return
	}

	w.commit(msg)
}

// process fetches, merges and stores. The retry budget applies only to
// retryable fetch failures; everything else returns on the first attempt.
func (w *Worker) process(ctx context.Context, req *enrichment.Request) error {
	w.logger.Info("Processing enrichment request",
		logging.Field{Key: "employee_id_hash", Value: security.HashIdentifier(req.EmployeeID)},
		logging.Field{Key: "email", Value: security.MaskEmail(req.Email)},
		logging.Field{Key: "correlation_id", Value: req.CorrelationID},
	)

	if err := req.UserRecord.Validate(); err != nil {
		return err
	}

	var profile *identity.Profile
	err := w.executor.Run(ctx, func() error {
		p, fetchErr := w.fetcher.FetchByEmail(ctx, req.Email)
		if fetchErr != nil {
			return fetchErr
		}
		profile = p
		return nil
	}, errors.IsRetryable)
	if err != nil {
		return err
	}

	enriched := enrichment.Merge(&req.UserRecord, profile)

	if err := w.store.Put(ctx, enriched.ID, enriched); err != nil {
		return err
	}

	w.logger.Info("Completed enrichment",
		logging.Field{Key: "user_id_hash", Value: security.HashIdentifier(enriched.ID)},
		logging.Field{Key: "email", Value: security.MaskEmail(enriched.Email)},
		logging.Field{Key: "groups_count", Value: len(enriched.Groups)},
		logging.Field{Key: "apps_count", Value: len(enriched.Applications)},
		logging.Field{Key: "correlation_id", Value: req.CorrelationID},
	)

	return nil
}

// deadLetter publishes the failed message to the DLQ topic. Publish
// failures are swallowed after logging; the offset is committed either way
// so a broken DLQ cannot stall the consume loop.
func (w *Worker) deadLetter(msg *queue.Message, req *enrichment.Request, cause error) {
	w.logger.Error("Enrichment failed", cause,
		logging.Field{Key: "employee_id_hash", Value: security.HashIdentifier(req.EmployeeID)},
		logging.Field{Key: "email", Value: security.MaskEmail(req.Email)},
		logging.Field{Key: "error_type", Value: string(errors.GetType(cause))},
		logging.Field{Key: "correlation_id", Value: req.CorrelationID},
	)

	payload, err := enrichment.BuildDeadLetter(msg.Value, cause.Error(), w.config.SourceTopic, time.Now())
	if err != nil {
		w.logger.Error("Failed to build dead letter envelope", err,
			logging.Field{Key: "offset", Value: msg.Offset},
		)
		return
	}

	if err := w.dlq.Publish(w.config.DLQTopic, req.EmployeeID, payload); err != nil {
		w.logger.Error("Failed to publish to DLQ", err,
			logging.Field{Key: "dlq_topic", Value: w.config.DLQTopic},
			logging.Field{Key: "employee_id_hash", Value: security.HashIdentifier(req.EmployeeID)},
		)
		return
	}

	w.logger.Warn("Message moved to DLQ",
		logging.Field{Key: "dlq_topic", Value: w.config.DLQTopic},
		logging.Field{Key: "employee_id_hash", Value: security.HashIdentifier(req.EmployeeID)},
		logging.Field{Key: "correlation_id", Value: req.CorrelationID},
	)
}

func (w *Worker) commit(msg *queue.Message) {
	if err := w.consumer.Commit(msg); err != nil {
		// Redelivery after a failed commit is expected and harmless:
		// the store overwrite is idempotent.
		w.logger.Error("Failed to commit offset", err,
			logging.Field{Key: "partition", Value: msg.Partition},
			logging.Field{Key: "offset", Value: msg.Offset},
		)
	}
}
