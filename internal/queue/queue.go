// Package queue provides the durable log behind the enrichment pipeline:
// an idempotent Kafka producer and a manually-committed Kafka consumer.
package queue

import (
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// Message is one consumed record. Offsets advance only when the consumer
// commits the message, after the worker reaches a terminal outcome.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time

	raw *kafka.Message
}

// Producer publishes keyed messages and waits for broker acknowledgment.
type Producer interface {
	Publish(topic, key string, value []byte) error
	Close()
}

// Consumer polls for messages and commits offsets manually.
type Consumer interface {
	Poll(timeout time.Duration) (*Message, error)
	Commit(msg *Message) error
	Close() error
}
