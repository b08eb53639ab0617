package enrichment

import (
	"encoding/json"
	"time"

	"user-enrichment/internal/common/errors"
	"user-enrichment/internal/hr"
)

// Request is the message published to the enrichment topic: the HR record
// plus the correlation id assigned at webhook receipt. The queue partition
// key is the employee id, so all messages for one employee are processed in
// publish order by a single consumer.
type Request struct {
	hr.UserRecord
	CorrelationID string `json:"correlation_id"`
}

// NewRequest pairs an HR record with its correlation id.
func NewRequest(record hr.UserRecord, correlationID string) *Request {
	return &Request{UserRecord: record, CorrelationID: correlationID}
}

// Encode serializes the request for the wire.
func (r *Request) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.InternalError("failed to encode enrichment request", err)
	}
	return data, nil
}

// DecodeRequest parses a queued enrichment request. A decode failure here
// means the payload is malformed beyond recovery.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errors.ValidationError("malformed enrichment request payload").WithCode("decode_failed")
	}
	return &req, nil
}

// DeadLetterEnvelope mirrors the shape of a dead-letter message: the
// original payload fields plus the failure metadata. It exists for readers
// of the DLQ topic; the producer side works on the raw payload so unknown
// HR fields survive the round trip.
type DeadLetterEnvelope struct {
	EmployeeID    string `json:"employee_id"`
	Email         string `json:"email"`
	CorrelationID string `json:"correlation_id"`
	Error         string `json:"error"`
	OriginalTopic string `json:"original_topic"`
	FailedAt      string `json:"failed_at"`
}

// BuildDeadLetter wraps an original enrichment payload with its failure
// reason, source topic and timestamp. The original fields are preserved
// verbatim at the top level.
func BuildDeadLetter(original []byte, reason, originalTopic string, failedAt time.Time) ([]byte, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(original, &fields); err != nil {
		return nil, errors.ValidationError("cannot dead-letter an unparseable payload")
	}

	fields["error"] = reason
	fields["original_topic"] = originalTopic
	fields["failed_at"] = failedAt.UTC().Format(time.RFC3339)

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.InternalError("failed to encode dead letter envelope", err)
	}
	return data, nil
}
