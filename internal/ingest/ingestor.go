// Package ingest accepts validated HR records and hands them to the
// enrichment queue.
package ingest

import (
	"github.com/google/uuid"
	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/common/logging"
	"user-enrichment/internal/enrichment"
	"user-enrichment/internal/hr"
	"user-enrichment/internal/queue"
	"user-enrichment/internal/security"
)

// Ingestor publishes enrichment requests. The publish blocks until the
// broker acknowledges delivery; the ingestor itself never retries, callers
// surface failures to the client as retryable.
type Ingestor struct {
	producer queue.Producer
	topic    string
	logger   logging.Logger
}

// New creates an Ingestor publishing to topic.
func New(producer queue.Producer, topic string, logger logging.Logger) *Ingestor {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Ingestor{producer: producer, topic: topic, logger: logger}
}

// Accept validates the record, assigns a fresh correlation id and publishes
// the enrichment request keyed by employee id. The correlation id is
// returned so the caller can include it in the acknowledgment.
func (i *Ingestor) Accept(record hr.UserRecord) (string, error) {
	if err := record.Validate(); err != nil {
		return "", err
	}

	correlationID := uuid.NewString()

	payload, err := enrichment.NewRequest(record, correlationID).Encode()
	if err != nil {
		return "", err
	}

	if err := i.producer.Publish(i.topic, record.EmployeeID, payload); err != nil {
		i.logger.Error("Failed to publish enrichment request", err,
			logging.Field{Key: "employee_id_hash", Value: security.HashIdentifier(record.EmployeeID)},
			logging.Field{Key: "email", Value: security.MaskEmail(record.Email)},
			logging.Field{Key: "topic", Value: i.topic},
		)
		return "", errors.ConnectionError("enrichment queue unavailable", err)
	}

	i.logger.Info("Published enrichment request",
		logging.Field{Key: "employee_id_hash", Value: security.HashIdentifier(record.EmployeeID)},
		logging.Field{Key: "email", Value: security.MaskEmail(record.Email)},
		logging.Field{Key: "topic", Value: i.topic},
		logging.Field{Key: "correlation_id", Value: correlationID},
	)

	return correlationID, nil
}
